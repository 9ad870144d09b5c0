package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v4"
)

// Config is the top-level application configuration. It is loaded once at
// process start and passed into each component; there is no package-level
// settings singleton.
type Config struct {
	LogLevel  string            `yaml:"log_level"`
	LocalPath string            `yaml:"local_path"`
	Store     StoreConfig       `yaml:"store"`
	SMTP      SMTP              `yaml:"smtp"`
	Reports   map[string]Report `yaml:"reports"`
}

// StoreConfig selects and configures the remote document store backend.
type StoreConfig struct {
	Provider       string      `yaml:"provider"` // "graph" or "s3"
	TimeoutSeconds int         `yaml:"timeout_seconds"`
	Graph          GraphConfig `yaml:"graph"`
	S3             S3Config    `yaml:"s3"`
}

// GraphConfig holds Microsoft Graph (SharePoint) credentials and site
// coordinates.
type GraphConfig struct {
	TenantID     string `yaml:"tenant_id"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Host         string `yaml:"host"` // e.g. "contoso.sharepoint.com"
	Site         string `yaml:"site"`
}

// S3Config holds Amazon S3 (or S3-compatible) storage settings.
type S3Config struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Endpoint        string `yaml:"endpoint"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

// SMTP holds the outgoing mail server configuration.
type SMTP struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	From           string `yaml:"from"`
	UseSSL         bool   `yaml:"use_ssl"` // implicit TLS; otherwise STARTTLS
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Report describes one recurring report export.
type Report struct {
	RemoteFolder string `yaml:"remote_folder"`
	// DateFormat is the Go reference layout of the date token the upstream
	// exporter embeds in filenames. It is an explicit contract with the
	// exporting system, never inferred from locale settings.
	DateFormat string `yaml:"date_format"`
}

// Timeout returns the store client timeout as a time.Duration.
func (s *StoreConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Timeout returns the SMTP dial/send timeout as a time.Duration.
func (s *SMTP) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Report looks up the configuration for a report identifier.
func (c *Config) Report(name string) (Report, error) {
	r, ok := c.Reports[name]
	if !ok {
		return Report{}, fmt.Errorf("unknown report %q", name)
	}
	return r, nil
}

// ReportDir returns the local data directory for a report identifier:
// <local_path>/<slug>. The directory holds report.pdf, body.html and
// recipients.txt.
func (c *Config) ReportDir(name string) string {
	return filepath.Join(c.LocalPath, Slug(name))
}

// Slug derives the local folder name for a report identifier.
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{
		LogLevel:  "info",
		LocalPath: "data",
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	for name, r := range c.Reports {
		if r.DateFormat == "" {
			r.DateFormat = "2006-01-02"
			c.Reports[name] = r
		}
	}
}

func (c *Config) validate() error {
	switch c.Store.Provider {
	case "graph":
		g := c.Store.Graph
		if g.TenantID == "" || g.ClientID == "" || g.ClientSecret == "" {
			return fmt.Errorf("store.graph: tenant_id, client_id and client_secret are required")
		}
		if g.Host == "" || g.Site == "" {
			return fmt.Errorf("store.graph: host and site are required")
		}
	case "s3":
		s := c.Store.S3
		if s.Bucket == "" {
			return fmt.Errorf("store.s3.bucket is required")
		}
		if s.Region == "" {
			return fmt.Errorf("store.s3.region is required")
		}
	default:
		return fmt.Errorf("store.provider must be graph or s3")
	}

	if c.SMTP.Host == "" {
		return fmt.Errorf("smtp.host is required")
	}
	if c.SMTP.Port == 0 {
		return fmt.Errorf("smtp.port is required")
	}
	if c.SMTP.From == "" {
		return fmt.Errorf("smtp.from is required")
	}

	if len(c.Reports) == 0 {
		return fmt.Errorf("at least one report is required")
	}
	for name, r := range c.Reports {
		if r.RemoteFolder == "" {
			return fmt.Errorf("report %s: remote_folder is required", name)
		}
	}
	return nil
}
