package site

// mkdocs.go — emits the mkdocs.yml that drives the static site build.
// The navigation deliberately lists only instrument names; history pages
// are reached through links on each instrument page.

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"fleetdash/internal/config"
	"fleetdash/internal/fleet"
)

// MkDocsConfig is the subset of mkdocs.yml this tool manages. Field order
// matches the emitted key order.
type MkDocsConfig struct {
	SiteName           string           `yaml:"site_name"`
	SiteURL            string           `yaml:"site_url,omitempty"`
	DocsDir            string           `yaml:"docs_dir"`
	UseDirectoryURLs   bool             `yaml:"use_directory_urls"`
	Theme              MkDocsTheme      `yaml:"theme"`
	MarkdownExtensions []any            `yaml:"markdown_extensions"`
	Plugins            []string         `yaml:"plugins"`
	ExtraCSS           []string         `yaml:"extra_css"`
	ExtraJavascript    []string         `yaml:"extra_javascript"`
	Nav                []map[string]any `yaml:"nav"`
}

// MkDocsTheme configures the Material theme.
type MkDocsTheme struct {
	Name     string           `yaml:"name"`
	Logo     string           `yaml:"logo,omitempty"`
	Favicon  string           `yaml:"favicon,omitempty"`
	Features []string         `yaml:"features"`
	Palette  []map[string]any `yaml:"palette"`
}

// BuildMkDocsConfig builds the full mkdocs.yml structure for the fleet.
func BuildMkDocsConfig(f *fleet.Fleet, cfg *config.Settings) *MkDocsConfig {
	microscopesNav := make([]map[string]any, 0, len(f.Instruments))
	for _, view := range byDisplayName(f.Instruments) {
		microscopesNav = append(microscopesNav, map[string]any{
			view.DisplayName: fmt.Sprintf("instruments/%s/index.md", view.ID),
		})
	}

	return &MkDocsConfig{
		SiteName:         cfg.SiteName,
		SiteURL:          cfg.SiteURL,
		DocsDir:          cfg.OutputDir,
		UseDirectoryURLs: true,
		Theme: MkDocsTheme{
			Name:    "material",
			Logo:    "assets/images/logo.svg",
			Favicon: "assets/images/favicon.svg",
			Features: []string{
				"navigation.tabs",
				"navigation.sections",
				"navigation.top",
				"toc.integrate",
				"search.suggest",
				"search.highlight",
				"content.code.copy",
			},
			Palette: []map[string]any{
				{
					"scheme": "default",
					"toggle": map[string]any{"icon": "material/brightness-7", "name": "Switch to dark mode"},
				},
				{
					"scheme": "slate",
					"toggle": map[string]any{"icon": "material/brightness-4", "name": "Switch to light mode"},
				},
			},
		},
		MarkdownExtensions: []any{
			"attr_list",
			"md_in_html",
			"pymdownx.details",
			"pymdownx.superfences",
			map[string]any{"pymdownx.tabbed": map[string]any{"alternate_style": true}},
		},
		Plugins:  []string{"search"},
		ExtraCSS: []string{"assets/stylesheets/dashboard.css"},
		ExtraJavascript: []string{
			"https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js",
			"assets/javascripts/charts.js",
			"assets/javascripts/dashboard.js",
		},
		Nav: []map[string]any{
			{"Fleet Overview": "index.md"},
			{"System Health": "status.md"},
			{"Microscopes": microscopesNav},
		},
	}
}

// WriteMkDocsConfig writes mkdocs.yml to path.
func WriteMkDocsConfig(mk *MkDocsConfig, path string) error {
	data, err := yaml.Marshal(mk)
	if err != nil {
		return fmt.Errorf("marshal mkdocs config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
