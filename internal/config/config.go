package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mantonx/moviecatalog/internal/logger"
	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"server" json:"server"`

	// Database configuration
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Query engine configuration
	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`

	// Security configuration
	Security SecurityConfig `yaml:"security" json:"security"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host            string        `yaml:"host" json:"host" env:"MOVIECATALOG_HOST" default:"0.0.0.0"`
	Port            int           `yaml:"port" json:"port" env:"MOVIECATALOG_PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout" env:"MOVIECATALOG_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout" env:"MOVIECATALOG_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" env:"MOVIECATALOG_SHUTDOWN_TIMEOUT" default:"10s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" json:"max_header_bytes" env:"MOVIECATALOG_MAX_HEADER_BYTES" default:"1048576"`
	EnableCORS      bool          `yaml:"enable_cors" json:"enable_cors" env:"MOVIECATALOG_ENABLE_CORS" default:"true"`
	TrustedProxies  []string      `yaml:"trusted_proxies,omitempty" json:"trusted_proxies,omitempty" env:"MOVIECATALOG_TRUSTED_PROXIES"`
}

// DatabaseConfig selects and tunes the record store connection
type DatabaseConfig struct {
	Type            string        `yaml:"type" json:"type" env:"DATABASE_TYPE" default:"sqlite"`
	URL             string        `yaml:"url" json:"url" env:"DATABASE_URL"`
	Host            string        `yaml:"host" json:"host" env:"POSTGRES_HOST" default:"localhost"`
	Port            int           `yaml:"port" json:"port" env:"POSTGRES_PORT" default:"5432"`
	Username        string        `yaml:"username" json:"username" env:"POSTGRES_USER" default:"moviecatalog"`
	Password        string        `yaml:"password" json:"password" env:"POSTGRES_PASSWORD"`
	Database        string        `yaml:"database" json:"database" env:"POSTGRES_DB" default:"moviecatalog"`
	DataDir         string        `yaml:"data_dir" json:"data_dir" env:"MOVIECATALOG_DATA_DIR" default:"./data"`
	DatabasePath    string        `yaml:"database_path" json:"database_path" env:"MOVIECATALOG_DATABASE_PATH"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns" env:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" default:"2h"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time" env:"DB_CONN_MAX_IDLE_TIME" default:"30m"`
	LogQueries      bool          `yaml:"log_queries" json:"log_queries" env:"DB_LOG_QUERIES" default:"false"`
	BatchSize       int           `yaml:"batch_size" json:"batch_size" env:"DB_BATCH_SIZE" default:"200"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level" env:"LOG_LEVEL" default:"info"`
	Format string `yaml:"format" json:"format" env:"LOG_FORMAT" default:"text"`
	Color  bool   `yaml:"color" json:"color" env:"LOG_COLOR" default:"false"`
}

// CatalogConfig tunes query evaluation
type CatalogConfig struct {
	// RecentWindow is how many years back "recent" reaches, inclusive.
	RecentWindow int `yaml:"recent_window" json:"recent_window" env:"CATALOG_RECENT_WINDOW" default:"5"`
	// ZeroIsMissing treats a zero budget or box office as unknown.
	ZeroIsMissing   bool  `yaml:"zero_is_missing" json:"zero_is_missing" env:"CATALOG_ZERO_IS_MISSING" default:"false"`
	DefaultPageSize int   `yaml:"default_page_size" json:"default_page_size" env:"CATALOG_DEFAULT_PAGE_SIZE" default:"20"`
	MaxPageSize     int   `yaml:"max_page_size" json:"max_page_size" env:"CATALOG_MAX_PAGE_SIZE" default:"100"`
	SampleSeed      int64 `yaml:"sample_seed" json:"sample_seed" env:"CATALOG_SAMPLE_SEED"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	RateLimitEnabled bool     `yaml:"rate_limit_enabled" json:"rate_limit_enabled" env:"MOVIECATALOG_RATE_LIMIT" default:"true"`
	RateLimitRPM     int      `yaml:"rate_limit_rpm" json:"rate_limit_rpm" env:"MOVIECATALOG_RATE_LIMIT_RPM" default:"600"`
	RateLimitBurst   int      `yaml:"rate_limit_burst" json:"rate_limit_burst" env:"MOVIECATALOG_RATE_LIMIT_BURST" default:"50"`
	AllowedOrigins   []string `yaml:"allowed_origins,omitempty" json:"allowed_origins,omitempty" env:"MOVIECATALOG_ALLOWED_ORIGINS"`
}

// MetricsConfig controls the prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" env:"METRICS_ENABLED" default:"true"`
	Path    string `yaml:"path" json:"path" env:"METRICS_PATH" default:"/metrics"`
}

// ConfigManager manages application configuration with hot-reload support
type ConfigManager struct {
	config     *Config
	configPath string
	watchers   []ConfigWatcher
	mu         sync.RWMutex
}

// ConfigWatcher is called when configuration changes
type ConfigWatcher func(oldConfig, newConfig *Config)

var (
	globalConfigManager *ConfigManager
	configOnce          sync.Once
)

// GetConfigManager returns the global configuration manager instance
func GetConfigManager() *ConfigManager {
	configOnce.Do(func() {
		globalConfigManager = NewConfigManager()
	})
	return globalConfigManager
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config:   DefaultConfig(),
		watchers: make([]ConfigWatcher, 0),
	}
}

// DefaultConfig returns the configuration described by the default tags,
// with derived values applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	if err := applyDefaults(reflect.ValueOf(cfg).Elem()); err != nil {
		// default tags are constants; a failure here is a programming error
		panic(fmt.Sprintf("invalid default tag: %v", err))
	}
	applyDerivedConfig(cfg)
	return cfg
}

// LoadConfig loads configuration from file and environment variables
func (cm *ConfigManager) LoadConfig(configPath string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	oldConfig := *cm.config
	cm.configPath = configPath

	newConfig := &Config{}
	if err := applyDefaults(reflect.ValueOf(newConfig).Elem()); err != nil {
		return fmt.Errorf("failed to apply defaults: %w", err)
	}

	// Load from file if it exists
	if configPath != "" && fileExists(configPath) {
		if err := loadFromFile(configPath, newConfig); err != nil {
			return fmt.Errorf("failed to load config from file: %w", err)
		}
		logger.Debug("configuration file read", "path", configPath)
	}

	// Override with environment variables
	if err := loadStructFromEnv(reflect.ValueOf(newConfig).Elem()); err != nil {
		return fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := validateConfig(newConfig); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	applyDerivedConfig(newConfig)

	cm.config = newConfig

	// Notify watchers of config change
	for _, watcher := range cm.watchers {
		go watcher(&oldConfig, newConfig)
	}

	logger.Info("configuration loaded", "database", newConfig.Database.Type, "port", newConfig.Server.Port)
	return nil
}

// Reload re-reads the file the manager was last loaded from.
func (cm *ConfigManager) Reload() error {
	cm.mu.RLock()
	path := cm.configPath
	cm.mu.RUnlock()
	return cm.LoadConfig(path)
}

// GetConfig returns the current configuration (thread-safe)
func (cm *ConfigManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	// Return a copy to prevent external modifications
	configCopy := *cm.config
	return &configCopy
}

// Path returns the file the configuration was loaded from.
func (cm *ConfigManager) Path() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.configPath
}

// AddWatcher adds a configuration change watcher
func (cm *ConfigManager) AddWatcher(watcher ConfigWatcher) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.watchers = append(cm.watchers, watcher)
}

// SaveConfig saves the current configuration to file
func (cm *ConfigManager) SaveConfig() error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.configPath == "" {
		return fmt.Errorf("no config path set")
	}

	return saveToFile(cm.configPath, cm.config)
}

// Helper methods

func loadFromFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	case ".json":
		return json.Unmarshal(data, config)
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
}

func saveToFile(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	var data []byte
	var err error

	switch ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// applyDefaults fills every field carrying a default tag.
func applyDefaults(v reflect.Value) error {
	return walkTagged(v, "default")
}

// loadStructFromEnv overrides fields whose env variable is set.
func loadStructFromEnv(v reflect.Value) error {
	return walkTagged(v, "env")
}

func walkTagged(v reflect.Value, tag string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		// Handle nested structs recursively
		if field.Kind() == reflect.Struct {
			if err := walkTagged(field, tag); err != nil {
				return err
			}
			continue
		}

		value := fieldType.Tag.Get(tag)
		if tag == "env" && value != "" {
			value = os.Getenv(value)
		}
		if value == "" {
			continue
		}

		if err := setFieldValue(field, value); err != nil {
			return fmt.Errorf("failed to set field %s: %w", fieldType.Name, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			duration, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(duration))
		} else {
			intVal, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(intVal)
		}
	case reflect.Float32, reflect.Float64:
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolVal)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %v", field.Type())
		}
		var values []string
		for _, v := range strings.Split(value, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
		field.Set(reflect.ValueOf(values))
	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

func validateConfig(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Database.Type != "sqlite" && config.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type: %s", config.Database.Type)
	}

	if config.Catalog.RecentWindow < 0 {
		return fmt.Errorf("invalid recent window: %d", config.Catalog.RecentWindow)
	}

	if config.Catalog.DefaultPageSize < 1 {
		return fmt.Errorf("invalid default page size: %d", config.Catalog.DefaultPageSize)
	}

	if config.Catalog.MaxPageSize < config.Catalog.DefaultPageSize {
		return fmt.Errorf("max page size %d is below default page size %d",
			config.Catalog.MaxPageSize, config.Catalog.DefaultPageSize)
	}

	if config.Security.RateLimitEnabled && config.Security.RateLimitRPM < 1 {
		return fmt.Errorf("invalid rate limit: %d requests per minute", config.Security.RateLimitRPM)
	}

	return nil
}

func applyDerivedConfig(config *Config) {
	// Set derived database path if not explicitly set
	if config.Database.DatabasePath == "" && config.Database.Type == "sqlite" {
		config.Database.DatabasePath = filepath.Join(config.Database.DataDir, "moviecatalog.db")
	}

	if config.Security.RateLimitBurst < 1 {
		config.Security.RateLimitBurst = max(1, config.Security.RateLimitRPM/10)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Global convenience functions

// Get returns the current global configuration
func Get() *Config {
	return GetConfigManager().GetConfig()
}

// Load loads configuration from the specified path
func Load(configPath string) error {
	return GetConfigManager().LoadConfig(configPath)
}

// AddWatcher adds a global configuration watcher
func AddWatcher(watcher ConfigWatcher) {
	GetConfigManager().AddWatcher(watcher)
}

// Save saves the current configuration
func Save() error {
	return GetConfigManager().SaveConfig()
}
