// Package config loads fleetdash configuration from fleetdash.yaml at the
// repository root, with FLEETDASH_* environment variables layered on top.
// A missing config file is not an error; defaults apply.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ConfigFilename is the config file looked up relative to the fleet root.
const ConfigFilename = "fleetdash.yaml"

// Settings holds the full fleetdash configuration.
type Settings struct {
	SiteName string `yaml:"site_name" env:"FLEETDASH_SITE_NAME"`
	SiteURL  string `yaml:"site_url" env:"FLEETDASH_SITE_URL"`

	// Ledger trees, relative to the fleet root unless absolute.
	InstrumentsDir string `yaml:"instruments_dir" env:"FLEETDASH_INSTRUMENTS_DIR"`
	QCDir          string `yaml:"qc_dir" env:"FLEETDASH_QC_DIR"`
	MaintenanceDir string `yaml:"maintenance_dir" env:"FLEETDASH_MAINTENANCE_DIR"`
	AssetsDir      string `yaml:"assets_dir" env:"FLEETDASH_ASSETS_DIR"`
	ImagesDir      string `yaml:"images_dir" env:"FLEETDASH_IMAGES_DIR"`
	OutputDir      string `yaml:"output_dir" env:"FLEETDASH_OUTPUT_DIR"`

	// QCOverdueDays is the QC staleness window for the yellow status rule.
	// Zero disables the rule.
	QCOverdueDays int `yaml:"qc_overdue_days" env:"FLEETDASH_QC_OVERDUE_DAYS"`

	// Strict makes instrument identity problems load errors instead of
	// falling back to synthesized ids.
	Strict bool `yaml:"strict" env:"FLEETDASH_STRICT"`

	// MetricNames maps metric ids to display names; entries merge over the
	// built-in table.
	MetricNames map[string]string `yaml:"metric_names"`
}

// defaultMetricNames maps the standard QC metric ids to display names.
var defaultMetricNames = map[string]string{
	"psf.fwhm_x_um":                                "PSF lateral FWHM (X, µm)",
	"psf.fwhm_y_um":                                "PSF lateral FWHM (Y, µm)",
	"psf.fwhm_z_um":                                "PSF axial FWHM (Z, µm)",
	"psf.fit_r2":                                   "PSF fit R²",
	"coreg.distance_488_561_um":                    "Co-registration (488↔561, µm)",
	"stage.repeatability_sigma_x_um":               "Stage repeatability σ (X, µm)",
	"stage.repeatability_sigma_y_um":               "Stage repeatability σ (Y, µm)",
	"laser.power_mw_405":                           "Laser power (405 nm, mW)",
	"laser.power_mw_488":                           "Laser power (488 nm, mW)",
	"laser.power_mw_561":                           "Laser power (561 nm, mW)",
	"laser.power_mw_640":                           "Laser power (640 nm, mW)",
	"laser.short_term_stability_delta_percent_488": "Laser stability Δ% (488 nm)",
	"laser.long_term_stability_delta_percent_488":  "Laser long-term stability Δ% (488 nm)",
	"illumination.uniformity_percent":              "Illumination uniformity (%)",
	"detector.dark_noise_electrons":                "Detector dark noise (e⁻)",
}

// Default returns the settings used when no config file exists.
func Default() *Settings {
	return &Settings{
		SiteName:       "Microscopy Fleet Dashboard",
		InstrumentsDir: "instruments",
		QCDir:          filepath.Join("qc", "sessions"),
		MaintenanceDir: filepath.Join("maintenance", "events"),
		AssetsDir:      "assets",
		ImagesDir:      filepath.Join("assets", "images"),
		OutputDir:      "dashboard_docs",
		QCOverdueDays:  120,
	}
}

// Load reads fleetdash.yaml relative to root and applies environment
// overrides. A missing file yields the defaults (still env-overridable);
// a present but broken file is an error.
func Load(root string) (*Settings, error) {
	s := Default()

	path := filepath.Join(root, ConfigFilename)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults apply.
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", path, err)
		}
	}

	if err := env.Parse(s); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return s, nil
}

// MetricName resolves a metric id to its display name: configured names
// first, then the built-in table, then the id itself.
func (s *Settings) MetricName(id string) string {
	if s != nil {
		if name, ok := s.MetricNames[id]; ok && name != "" {
			return name
		}
	}
	if name, ok := defaultMetricNames[id]; ok {
		return name
	}
	return id
}

// Resolve joins a configured directory with the fleet root unless the
// directory is already absolute.
func (s *Settings) Resolve(root, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}
