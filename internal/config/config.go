// Package config provides configuration loading and management for the launch registry server.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/launch-registry-server/internal/resilience"
	"github.com/stacklok/launch-registry-server/internal/telemetry"
)

const (
	// SourceTypeAPI fetches launches from the upstream launch API
	SourceTypeAPI = "api"

	// SourceTypeFile reads launches from a local JSON file
	SourceTypeFile = "file"

	// SourceTypeGit reads launches from a JSON file committed to a Git repository
	SourceTypeGit = "git"
)

const (
	// StorageTypeSQLite stores launches in a local SQLite file
	StorageTypeSQLite = "sqlite"

	// StorageTypePostgres stores launches in PostgreSQL
	StorageTypePostgres = "postgres"
)

const (
	// DefaultEndpoint is the upstream launch API
	DefaultEndpoint = "https://api.spacexdata.com/v4/launches"

	// DefaultSyncInterval is the wait between successful sync cycles
	DefaultSyncInterval = 5 * time.Minute

	// DefaultErrorBackoffInterval is the wait after a failed sync cycle
	DefaultErrorBackoffInterval = time.Minute

	// DefaultMaxConnsPerHost bounds concurrent upstream connections
	DefaultMaxConnsPerHost = 4

	// DefaultSQLitePath is the database file used when none is configured
	DefaultSQLitePath = "data/launches.db"

	// PasswordEnvVar is read when no database password file is configured
	PasswordEnvVar = "LAUNCH_REGISTRY_DATABASE_PASSWORD"

	// EnvPrefix prefixes every environment variable read through viper
	EnvPrefix = "LAUNCH_REGISTRY"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// EvalSymlinks also cleans the path
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Source     SourceConfig      `yaml:"source"`
	Sync       SyncConfig        `yaml:"sync"`
	Storage    StorageConfig     `yaml:"storage"`
	Database   *DatabaseConfig   `yaml:"database,omitempty"`
	Filter     *FilterConfig     `yaml:"filter,omitempty"`
	Resilience ResilienceConfig  `yaml:"resilience"`
	Telemetry  *telemetry.Config `yaml:"telemetry,omitempty"`
}

// Launch outcomes accepted by FilterConfig.Outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeUnknown = "unknown"
)

// FilterConfig narrows the fetched launches before they are stored
type FilterConfig struct {
	Names *NameFilterConfig `yaml:"names,omitempty"`

	// Outcomes keeps only launches whose outcome is listed (success, failure, unknown)
	Outcomes []string `yaml:"outcomes,omitempty"`
}

// NameFilterConfig holds glob patterns matched against launch names. Exclude wins.
type NameFilterConfig struct {
	Include []string `yaml:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// SourceConfig selects where launches are fetched from
type SourceConfig struct {
	// Type is api, file or git. Inferred from the populated section when empty.
	Type string      `yaml:"type,omitempty"`
	API  *APIConfig  `yaml:"api,omitempty"`
	File *FileConfig `yaml:"file,omitempty"`
	Git  *GitConfig  `yaml:"git,omitempty"`
}

// APIConfig defines the upstream launch API
type APIConfig struct {
	// Endpoint is the full URL returning the launch list
	Endpoint string `yaml:"endpoint"`

	// Timeout bounds a single HTTP attempt
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// MaxConnsPerHost bounds concurrent connections to the upstream
	MaxConnsPerHost int `yaml:"maxConnsPerHost,omitempty"`

	// ResultPath selects the launch array inside an enveloped response,
	// e.g. "docs" for a paginated query result. Empty means the body is the array.
	ResultPath string `yaml:"resultPath,omitempty"`
}

// FileConfig defines a local launch file
type FileConfig struct {
	// Path is absolute or relative to the working directory
	Path string `yaml:"path"`
}

// GitConfig defines a launch file committed to a Git repository
type GitConfig struct {
	// Repository is the clone URL
	Repository string `yaml:"repository"`

	// Branch and Tag are mutually exclusive; the default branch is used when both are empty
	Branch string `yaml:"branch,omitempty"`
	Tag    string `yaml:"tag,omitempty"`

	// Commit pins a commit; it is checked out after a full clone
	Commit string `yaml:"commit,omitempty"`

	// Path is the launch file within the repository
	Path string `yaml:"path"`

	// Username and PasswordFile enable HTTP basic auth for private repositories
	Username     string `yaml:"username,omitempty"`
	PasswordFile string `yaml:"passwordFile,omitempty"`
}

// GetPassword reads the git password or token from PasswordFile
func (g *GitConfig) GetPassword() (string, error) {
	if g.PasswordFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(filepath.Clean(g.PasswordFile))
	if err != nil {
		return "", fmt.Errorf("failed to read git password from file %s: %w", g.PasswordFile, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SyncConfig controls the background sync loop
type SyncConfig struct {
	// Interval is the wait after a successful cycle
	Interval time.Duration `yaml:"interval,omitempty"`

	// ErrorBackoffInterval is the wait after a cycle that panicked
	ErrorBackoffInterval time.Duration `yaml:"errorBackoffInterval,omitempty"`

	// InitialPopulation runs a blocking sync at startup when the store is empty
	InitialPopulation *bool `yaml:"initialPopulation,omitempty"`

	// StatusPath persists the sync status as JSON so the last hash survives
	// restarts. Empty keeps the status in memory only.
	StatusPath string `yaml:"statusPath,omitempty"`
}

// StorageConfig selects the launch store backend
type StorageConfig struct {
	Type   string        `yaml:"type,omitempty"`
	SQLite *SQLiteConfig `yaml:"sqlite,omitempty"`
}

// SQLiteConfig defines the SQLite store
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// ResilienceConfig overrides the built-in pipeline policies. Zero fields keep the defaults.
type ResilienceConfig struct {
	HTTP    *resilience.Config `yaml:"http,omitempty"`
	Storage *resilience.Config `yaml:"storage,omitempty"`
	Sync    *resilience.Config `yaml:"sync,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password.
	// Trailing whitespace is trimmed.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password from PasswordFile, falling back
// to the LAUNCH_REGISTRY_DATABASE_PASSWORD environment variable.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(PasswordEnvVar); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s environment variable", PasswordEnvVar,
	)
}

// GetConnectionString builds a PostgreSQL connection URL with the password escaped
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.Database,
		RawQuery: "sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String(), nil
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig loads configuration from a YAML file, applies defaults and
// validates the result. Without WithConfigPath the defaults are returned.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	var config Config
	if loaderCfg.path != "" {
		data, err := os.ReadFile(loaderCfg.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if isJSONConfig(loaderCfg.path) {
			// JSON is valid YAML once comments and trailing commas are gone
			data, err = hujson.Standardize(data)
			if err != nil {
				return nil, fmt.Errorf("failed to parse JSON config: %w", err)
			}
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func isJSONConfig(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".hujson", ".jsonc":
		return true
	}
	return false
}

func (c *Config) applyDefaults() {
	if c.Source.Type == "" {
		c.Source.Type = c.Source.inferType()
	}
	if c.Source.Type == SourceTypeAPI {
		if c.Source.API == nil {
			c.Source.API = &APIConfig{}
		}
		if c.Source.API.Endpoint == "" {
			c.Source.API.Endpoint = DefaultEndpoint
		}
		if c.Source.API.MaxConnsPerHost == 0 {
			c.Source.API.MaxConnsPerHost = DefaultMaxConnsPerHost
		}
	}

	if c.Sync.Interval == 0 {
		c.Sync.Interval = DefaultSyncInterval
	}
	if c.Sync.ErrorBackoffInterval == 0 {
		c.Sync.ErrorBackoffInterval = DefaultErrorBackoffInterval
	}
	if c.Sync.InitialPopulation == nil {
		enabled := true
		c.Sync.InitialPopulation = &enabled
	}

	if c.Storage.Type == "" {
		c.Storage.Type = StorageTypeSQLite
	}
	if c.Storage.Type == StorageTypeSQLite {
		if c.Storage.SQLite == nil {
			c.Storage.SQLite = &SQLiteConfig{}
		}
		if c.Storage.SQLite.Path == "" {
			c.Storage.SQLite.Path = DefaultSQLitePath
		}
	}
}

func (s *SourceConfig) inferType() string {
	switch {
	case s.File != nil:
		return SourceTypeFile
	case s.Git != nil:
		return SourceTypeGit
	}
	return SourceTypeAPI
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error
	errs = append(errs, c.Source.validate())

	if c.Sync.Interval < 0 || c.Sync.ErrorBackoffInterval < 0 {
		errs = append(errs, fmt.Errorf("sync: intervals must not be negative"))
	}

	switch c.Storage.Type {
	case StorageTypeSQLite:
		if c.Storage.SQLite == nil || c.Storage.SQLite.Path == "" {
			errs = append(errs, fmt.Errorf("storage: sqlite.path is required"))
		}
	case StorageTypePostgres:
		if c.Database == nil {
			errs = append(errs, fmt.Errorf("storage: database section is required for %s", StorageTypePostgres))
		} else if c.Database.Host == "" || c.Database.Database == "" {
			errs = append(errs, fmt.Errorf("database: host and database are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage: unsupported type %q", c.Storage.Type))
	}

	for name, p := range map[string]resilience.Config{
		"http":    c.Resilience.HTTPPolicy(),
		"storage": c.Resilience.StoragePolicy(),
		"sync":    c.Resilience.SyncPolicy(),
	} {
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("resilience.%s: %w", name, err))
		}
	}

	if err := c.Filter.validate(); err != nil {
		errs = append(errs, fmt.Errorf("filter: %w", err))
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

func (f *FilterConfig) validate() error {
	if f == nil {
		return nil
	}
	var errs []error
	if f.Names != nil {
		for _, pattern := range append(append([]string{}, f.Names.Include...), f.Names.Exclude...) {
			if _, err := glob.Compile(pattern); err != nil {
				errs = append(errs, fmt.Errorf("invalid name pattern %q: %w", pattern, err))
			}
		}
	}
	for _, o := range f.Outcomes {
		switch o {
		case OutcomeSuccess, OutcomeFailure, OutcomeUnknown:
		default:
			errs = append(errs, fmt.Errorf("unknown outcome %q", o))
		}
	}
	return errors.Join(errs...)
}

func (s *SourceConfig) validate() error {
	switch s.Type {
	case SourceTypeAPI:
		if s.API == nil || s.API.Endpoint == "" {
			return fmt.Errorf("source: api.endpoint is required")
		}
		u, err := url.Parse(s.API.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("source: api.endpoint must be an absolute http(s) URL, got %q", s.API.Endpoint)
		}
		if s.API.Timeout < 0 || s.API.MaxConnsPerHost < 0 {
			return fmt.Errorf("source: api.timeout and api.maxConnsPerHost must not be negative")
		}
	case SourceTypeFile:
		if s.File == nil || s.File.Path == "" {
			return fmt.Errorf("source: file.path is required")
		}
	case SourceTypeGit:
		if s.Git == nil || s.Git.Repository == "" || s.Git.Path == "" {
			return fmt.Errorf("source: git.repository and git.path are required")
		}
		if s.Git.Branch != "" && s.Git.Tag != "" {
			return fmt.Errorf("source: git.branch and git.tag are mutually exclusive")
		}
		if s.Git.PasswordFile != "" && s.Git.Username == "" {
			return fmt.Errorf("source: git.passwordFile requires git.username")
		}
	default:
		return fmt.Errorf("source: unsupported type %q", s.Type)
	}
	return nil
}

// HTTPPolicy returns the outbound HTTP pipeline settings. The circuit breaker
// keeps its defaults unless the breaker section is given.
func (r ResilienceConfig) HTTPPolicy() resilience.Config {
	defaults := resilience.DefaultHTTPConfig()
	if r.HTTP == nil {
		return defaults
	}
	cfg := *r.HTTP
	if cfg.Breaker == nil {
		cfg.Breaker = defaults.Breaker
	}
	return cfg.Merge(defaults)
}

// StoragePolicy returns the storage write pipeline settings
func (r ResilienceConfig) StoragePolicy() resilience.Config {
	if r.Storage == nil {
		return resilience.DefaultStorageConfig()
	}
	return r.Storage.Merge(resilience.DefaultStorageConfig())
}

// SyncPolicy returns the whole-cycle pipeline settings
func (r ResilienceConfig) SyncPolicy() resilience.Config {
	if r.Sync == nil {
		return resilience.DefaultSyncConfig()
	}
	return r.Sync.Merge(resilience.DefaultSyncConfig())
}
