// Package config holds the site-level build configuration consumed by the
// docset compiler core. General site configuration loading beyond these
// fields lives with the hosting application.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the site configuration for one docset build.
type Config struct {
	// HostName is the public hostname of the site, e.g. "docs.example.com".
	HostName string `yaml:"host_name" json:"host_name"`

	// BasePath is the site base path the docset publishes under, e.g. "/widgets".
	// Normalized to a leading slash and no trailing slash; empty means root.
	BasePath string `yaml:"base_path" json:"base_path"`

	// Locale is the content locale, e.g. "en-us".
	Locale string `yaml:"locale" json:"locale"`

	// SiteName and ProductName feed template metadata and search indexing.
	SiteName    string `yaml:"site_name" json:"site_name"`
	ProductName string `yaml:"product_name" json:"product_name"`

	// DocsetName identifies the docset in search indexing fields.
	DocsetName string `yaml:"docset_name" json:"docset_name"`

	// Bilingual enables the side-by-side translation reading experience.
	Bilingual bool `yaml:"bilingual" json:"bilingual"`

	// Monikers is the ordered list of version labels known to the docset,
	// oldest first. Range expressions resolve against this order.
	Monikers []Moniker `yaml:"monikers" json:"monikers"`

	// Files and Exclude are glob patterns selecting the build scope.
	Files   []string `yaml:"files" json:"files"`
	Exclude []string `yaml:"exclude" json:"exclude"`

	// OutputJSON emits the raw page model instead of rendered text.
	OutputJSON bool `yaml:"output_json" json:"output_json"`

	// LegacyOutput enables the backward-compatible output layout: landing
	// pages render through the secondary HTML path and a metadata sidecar is
	// written next to each primary output.
	LegacyOutput bool `yaml:"legacy_output" json:"legacy_output"`

	// PDF enables per-moniker PDF URL templates in output metadata.
	PDF bool `yaml:"pdf" json:"pdf"`

	// PDFBasePath overrides the base path segment used in PDF URL templates.
	PDFBasePath string `yaml:"pdf_base_path" json:"pdf_base_path"`
}

// Moniker is one version label definition. Order in Config.Monikers defines
// the comparison order for range expressions.
type Moniker struct {
	Name  string `yaml:"name" json:"name"`
	Group string `yaml:"group,omitempty" json:"group,omitempty"`
}

// Load reads and normalizes a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Normalize canonicalizes path-shaped fields. Safe to call repeatedly.
func (c *Config) Normalize() {
	c.BasePath = normalizeBasePath(c.BasePath)
	c.HostName = strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(c.HostName, "https://"), "http://"), "/")
	if c.Locale == "" {
		c.Locale = "en-us"
	}
}

// SiteURLPrefix returns the canonical URL prefix for this docset,
// e.g. "https://docs.example.com/widgets".
func (c *Config) SiteURLPrefix() string {
	if c.HostName == "" {
		return c.BasePath
	}
	return "https://" + c.HostName + c.BasePath
}

func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p == "/" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimSuffix(p, "/")
}
