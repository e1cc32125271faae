// Package config loads and validates ingestion configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/aero-news-crawler/internal/classify"
	"github.com/JakeFAU/aero-news-crawler/internal/imaging"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Sites    SitesConfig       `mapstructure:"sites"`
	Pipeline PipelineConfig    `mapstructure:"pipeline"`
	Images   ImagesConfig      `mapstructure:"images"`
	Fetch    FetchConfig       `mapstructure:"fetch"`
	Store    StoreConfig       `mapstructure:"store"`
	Server   ServerConfig      `mapstructure:"server"`
	Logging  LoggingConfig     `mapstructure:"logging"`
	Taxonomy classify.Taxonomy `mapstructure:"taxonomy"`
}

// SitesConfig locates the site list.
type SitesConfig struct {
	File string `mapstructure:"file"`
}

// PipelineConfig governs the worker pool and per-site limits.
type PipelineConfig struct {
	Concurrency     int `mapstructure:"concurrency"`
	MaxLinksPerSite int `mapstructure:"max_links_per_site"`
	ArticlesPerSite int `mapstructure:"articles_per_site"`
	MinBodyChars    int `mapstructure:"min_body_chars"`
}

// ImagesConfig controls lead image acquisition.
type ImagesConfig struct {
	Dir       string        `mapstructure:"dir"`
	MinBytes  int           `mapstructure:"min_bytes"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Extension string        `mapstructure:"extension"`
	UserAgent string        `mapstructure:"user_agent"`
}

// FetchConfig controls page fetching.
type FetchConfig struct {
	UserAgent     string        `mapstructure:"user_agent"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RespectRobots bool          `mapstructure:"respect_robots"`
	PerHostRPS    float64       `mapstructure:"per_host_rps"`
	PerHostBurst  int           `mapstructure:"per_host_burst"`
}

// StoreConfig selects and configures the article store.
type StoreConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
	DSN        string `mapstructure:"dsn"`
	Table      string `mapstructure:"table"`
	MaxConns   int32  `mapstructure:"max_conns"`
}

// ServerConfig controls the read API.
type ServerConfig struct {
	Port         int `mapstructure:"port"`
	LatestLimit  int `mapstructure:"latest_limit"`
	PreviewChars int `mapstructure:"preview_chars"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NEWSCRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sites.file", "sites.json")
	v.SetDefault("pipeline.concurrency", 10)
	v.SetDefault("pipeline.max_links_per_site", 20)
	v.SetDefault("pipeline.articles_per_site", 10)
	v.SetDefault("pipeline.min_body_chars", 200)
	v.SetDefault("images.dir", "demo_images")
	v.SetDefault("images.min_bytes", 5*1024)
	v.SetDefault("images.timeout", 15*time.Second)
	v.SetDefault("images.extension", "jpg")
	v.SetDefault("images.user_agent", imaging.DefaultUserAgent)
	v.SetDefault("fetch.user_agent", imaging.DefaultUserAgent)
	v.SetDefault("fetch.timeout", 20*time.Second)
	v.SetDefault("fetch.respect_robots", false)
	v.SetDefault("fetch.per_host_rps", 2.0)
	v.SetDefault("fetch.per_host_burst", 2)
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.sqlite_path", "demo_data.db")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.table", "articles")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.latest_limit", 50)
	v.SetDefault("server.preview_chars", 200)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("taxonomy", taxonomyDefault())
}

// taxonomyDefault renders the built-in taxonomy as the generic list shape a
// config file would decode to, so file values replace it wholesale.
func taxonomyDefault() []map[string]any {
	tax := classify.DefaultTaxonomy()
	out := make([]map[string]any, 0, len(tax))
	for _, c := range tax {
		out = append(out, map[string]any{
			"name":     c.Name,
			"keywords": append([]string(nil), c.Keywords...),
		})
	}
	return out
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Sites.File) == "" {
		return fmt.Errorf("sites.file is required")
	}
	if c.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("pipeline.concurrency must be > 0")
	}
	if c.Pipeline.MaxLinksPerSite <= 0 {
		return fmt.Errorf("pipeline.max_links_per_site must be > 0")
	}
	if c.Pipeline.ArticlesPerSite <= 0 {
		return fmt.Errorf("pipeline.articles_per_site must be > 0")
	}
	if c.Pipeline.MinBodyChars <= 0 {
		return fmt.Errorf("pipeline.min_body_chars must be > 0")
	}
	if strings.TrimSpace(c.Images.Dir) == "" {
		return fmt.Errorf("images.dir is required")
	}
	if c.Images.MinBytes <= 0 {
		return fmt.Errorf("images.min_bytes must be > 0")
	}
	if c.Images.Timeout <= 0 {
		return fmt.Errorf("images.timeout must be > 0")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be > 0")
	}
	if c.Fetch.PerHostRPS < 0 {
		return fmt.Errorf("fetch.per_host_rps must be >= 0")
	}
	switch c.Store.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("store.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Store.Driver)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.LatestLimit <= 0 {
		return fmt.Errorf("server.latest_limit must be > 0")
	}
	if c.Server.PreviewChars <= 0 {
		return fmt.Errorf("server.preview_chars must be > 0")
	}
	if len(c.Taxonomy) == 0 {
		return fmt.Errorf("taxonomy must contain at least one category")
	}
	for i, cat := range c.Taxonomy {
		if strings.TrimSpace(cat.Name) == "" {
			return fmt.Errorf("taxonomy[%d].name is required", i)
		}
	}
	return nil
}
