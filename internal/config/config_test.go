package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	s, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "Microscopy Fleet Dashboard", s.SiteName)
	assert.Equal(t, "instruments", s.InstrumentsDir)
	assert.Equal(t, filepath.Join("qc", "sessions"), s.QCDir)
	assert.Equal(t, filepath.Join("maintenance", "events"), s.MaintenanceDir)
	assert.Equal(t, "dashboard_docs", s.OutputDir)
	assert.Equal(t, 120, s.QCOverdueDays)
	assert.False(t, s.Strict)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	content := "site_name: Imaging Core\noutput_dir: site\nqc_overdue_days: 30\nstrict: true\n" +
		"metric_names:\n  custom.snr_db: \"SNR (dB)\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFilename), []byte(content), 0o644))

	s, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "Imaging Core", s.SiteName)
	assert.Equal(t, "site", s.OutputDir)
	assert.Equal(t, 30, s.QCOverdueDays)
	assert.True(t, s.Strict)
	// Untouched keys keep their defaults.
	assert.Equal(t, "instruments", s.InstrumentsDir)
	assert.Equal(t, "SNR (dB)", s.MetricName("custom.snr_db"))
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFilename),
		[]byte("site_name: From File\n"), 0o644))
	t.Setenv("FLEETDASH_SITE_NAME", "From Env")
	t.Setenv("FLEETDASH_QC_OVERDUE_DAYS", "7")

	s, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "From Env", s.SiteName)
	assert.Equal(t, 7, s.QCOverdueDays)
}

func TestLoad_BrokenFileIsError(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFilename),
		[]byte("site_name: [unclosed\n"), 0o644))

	_, err := Load(root)
	assert.Error(t, err)
}

func TestMetricName(t *testing.T) {
	s := Default()
	assert.Equal(t, "PSF fit R²", s.MetricName("psf.fit_r2"))
	assert.Equal(t, "mystery.metric", s.MetricName("mystery.metric"))

	s.MetricNames = map[string]string{"psf.fit_r2": "Fit quality"}
	assert.Equal(t, "Fit quality", s.MetricName("psf.fit_r2"))
}

func TestResolve(t *testing.T) {
	s := Default()
	assert.Equal(t, filepath.Join("/fleet", "instruments"), s.Resolve("/fleet", "instruments"))
	assert.Equal(t, "/elsewhere/instruments", s.Resolve("/fleet", "/elsewhere/instruments"))
}
