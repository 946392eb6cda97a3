package storefront

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configVersionV1 = "1"
	// ConfigVersion is the current configuration format version.
	ConfigVersion = configVersionV1
)

// Transport and backend kinds accepted by the config.
const (
	TransportFiber = "fiber"
	TransportHTTP  = "http"
	BackendHosted  = "hosted"
	BackendMemory  = "memory"
	StorageHosted  = "hosted"
	StorageS3      = "s3"
	StorageMinIO   = "minio"
)

// Config is the application configuration document.
type Config struct {
	Version   string          `yaml:"version"`
	Server    ServerConfig    `yaml:"server"`
	Backend   BackendConfig   `yaml:"backend"`
	Storage   StorageConfig   `yaml:"storage"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Activity  ActivityConfig  `yaml:"activity"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Source    string          `yaml:"-"`
}

// ServerConfig controls the HTTP listener and login sessions.
type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	Transport     string        `yaml:"transport"`
	SessionSecret string        `yaml:"session_secret"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	SecureCookies bool          `yaml:"secure_cookies"`
}

// BackendConfig points at the hosted backend.
type BackendConfig struct {
	Kind      string        `yaml:"kind"`
	URL       string        `yaml:"url"`
	APIKey    string        `yaml:"api_key"`
	JWTSecret string        `yaml:"jwt_secret"`
	Timeout   time.Duration `yaml:"timeout"`
}

// StorageConfig selects where product images are uploaded.
type StorageConfig struct {
	Driver string   `yaml:"driver"`
	Bucket string   `yaml:"bucket"`
	S3     S3Config `yaml:"s3"`
}

// S3Config configures the S3-compatible image store. The minio driver reads
// the same fields; its endpoint is a URL such as http://localhost:9000.
type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PublicURL       string `yaml:"public_url"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

// DashboardConfig tunes the admin dashboard.
type DashboardConfig struct {
	LoginPath     string        `yaml:"login_path"`
	Locale        string        `yaml:"locale"`
	ChartTheme    string        `yaml:"chart_theme"`
	ChartCacheTTL time.Duration `yaml:"chart_cache_ttl"`
	AssetsHost    string        `yaml:"assets_host"`
}

// ActivityConfig toggles the audit trail.
type ActivityConfig struct {
	Enabled bool   `yaml:"enabled"`
	Channel string `yaml:"channel"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns a config with every default applied.
func DefaultConfig() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

// ReadConfig loads a config file from disk.
func ReadConfig(path string) (*Config, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("storefront: open config %s: %w", path, err)
	}
	defer f.Close()
	cfg, err := DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("storefront: decode config %s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}

// DecodeConfig parses a YAML config. Unknown fields are rejected.
func DecodeConfig(r io.Reader) (*Config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("storefront: config is empty")
		}
		return nil, fmt.Errorf("storefront: parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides secrets and endpoints from the environment.
func (cfg *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	set := func(target *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*target = strings.TrimSpace(v)
		}
	}
	set(&cfg.Backend.URL, "STOREFRONT_BACKEND_URL")
	set(&cfg.Backend.APIKey, "STOREFRONT_API_KEY")
	set(&cfg.Backend.JWTSecret, "STOREFRONT_JWT_SECRET")
	set(&cfg.Server.SessionSecret, "STOREFRONT_SESSION_SECRET")
	set(&cfg.Server.Addr, "STOREFRONT_ADDR")
	set(&cfg.Storage.S3.AccessKeyID, "STOREFRONT_S3_ACCESS_KEY_ID")
	set(&cfg.Storage.S3.SecretAccessKey, "STOREFRONT_S3_SECRET_ACCESS_KEY")
}

// Validate checks the document for unsupported values.
func (cfg *Config) Validate() error {
	if cfg.Version != configVersionV1 {
		return fmt.Errorf("storefront: unsupported config version %q", cfg.Version)
	}
	switch cfg.Server.Transport {
	case TransportFiber, TransportHTTP:
	default:
		return fmt.Errorf("storefront: unsupported transport %q", cfg.Server.Transport)
	}
	switch cfg.Backend.Kind {
	case BackendMemory:
	case BackendHosted:
		if cfg.Backend.URL == "" {
			return fmt.Errorf("storefront: backend.url is required for the hosted backend")
		}
	default:
		return fmt.Errorf("storefront: unsupported backend %q", cfg.Backend.Kind)
	}
	switch cfg.Storage.Driver {
	case StorageHosted:
	case StorageS3:
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storefront: storage.s3.region is required for the s3 driver")
		}
	case StorageMinIO:
		if cfg.Storage.S3.Endpoint == "" {
			return fmt.Errorf("storefront: storage.s3.endpoint is required for the minio driver")
		}
	default:
		return fmt.Errorf("storefront: unsupported storage driver %q", cfg.Storage.Driver)
	}
	if !strings.HasPrefix(cfg.Dashboard.LoginPath, "/") {
		return fmt.Errorf("storefront: dashboard.login_path must be absolute, got %q", cfg.Dashboard.LoginPath)
	}
	return nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Version == "" {
		cfg.Version = configVersionV1
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = TransportFiber
	}
	if cfg.Server.SessionTTL <= 0 {
		cfg.Server.SessionTTL = 12 * time.Hour
	}
	if cfg.Backend.Kind == "" {
		cfg.Backend.Kind = BackendHosted
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 10 * time.Second
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageHosted
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = DefaultImageBucket
	}
	if cfg.Dashboard.LoginPath == "" {
		cfg.Dashboard.LoginPath = DefaultLoginPath
	}
	if cfg.Dashboard.Locale == "" {
		cfg.Dashboard.Locale = "en"
	}
	if cfg.Dashboard.ChartCacheTTL == 0 {
		cfg.Dashboard.ChartCacheTTL = 5 * time.Minute
	}
	if cfg.Activity.Channel == "" {
		cfg.Activity.Channel = "storefront"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
