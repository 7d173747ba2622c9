// Package config provides configuration management for hierarchy analysis.
package config

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. HIERARCHY_NEO4J_URI.
const EnvPrefix = "HIERARCHY"

// Config holds all configuration for the application.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
	Server   ServerConfig   `mapstructure:"server"`
	Output   OutputConfig   `mapstructure:"output"`
	Log      LogConfig      `mapstructure:"log"`
}

// AnalysisConfig controls how the class hierarchy is built and queried.
type AnalysisConfig struct {
	// Classpath entries are directories, jar/zip files or "storage:<prefix>".
	Classpath []string `mapstructure:"classpath"`
	// AuxClasspath is searched after Classpath; its classes are never application classes.
	AuxClasspath []string `mapstructure:"aux_classpath"`
	// ApplicationPrefixes selects application classes by package prefix.
	ApplicationPrefixes []string `mapstructure:"application_prefixes"`
	// ApplicationClasses names application classes explicitly.
	ApplicationClasses []string `mapstructure:"application_classes"`

	SupertypeCacheSize        int  `mapstructure:"supertype_cache_size"`
	SubtypeCacheSize          int  `mapstructure:"subtype_cache_size"`
	CommonSuperclassCacheSize int  `mapstructure:"common_superclass_cache_size"`
	DisableCache              bool `mapstructure:"disable_cache"`

	ScanWorkers int `mapstructure:"scan_workers"`
}

// StorageConfig holds object storage configuration.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // local, cos or s3
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`   // COS domain, e.g. "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`   // "https" or "http"
	Endpoint  string `mapstructure:"endpoint"` // S3 endpoint host:port
	UseSSL    bool   `mapstructure:"use_ssl"`
	Prefix    string `mapstructure:"prefix"` // key prefix for uploaded reports
	LocalPath string `mapstructure:"local_path"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Type     string `mapstructure:"type"` // postgres, mysql or sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
	Path     string `mapstructure:"path"` // sqlite file
}

// Neo4jConfig holds the graph export target.
type Neo4jConfig struct {
	URI       string `mapstructure:"uri"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	Database  string `mapstructure:"database"`
	BatchSize int    `mapstructure:"batch_size"`
}

// ServerConfig holds the query API listener.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// Pprof mounts net/http/pprof handlers on the query server.
	Pprof bool `mapstructure:"pprof"`
}

// OutputConfig controls report files.
type OutputConfig struct {
	Dir         string `mapstructure:"dir"`
	Compression string `mapstructure:"compression"` // none, gzip or zstd
	Upload      bool   `mapstructure:"upload"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from the specified file path. A missing file
// leaves the defaults and environment overrides in place.
func Load(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/hierarchy-analysis")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromReader loads configuration from memory (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// DefaultScanWorkers is min(NumCPU, 8).
func DefaultScanWorkers() int {
	return min(runtime.NumCPU(), 8)
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Analysis defaults
	v.SetDefault("analysis.classpath", []string{})
	v.SetDefault("analysis.aux_classpath", []string{})
	v.SetDefault("analysis.application_prefixes", []string{})
	v.SetDefault("analysis.application_classes", []string{})
	v.SetDefault("analysis.supertype_cache_size", 500)
	v.SetDefault("analysis.subtype_cache_size", 500)
	v.SetDefault("analysis.common_superclass_cache_size", 2000)
	v.SetDefault("analysis.disable_cache", false)
	v.SetDefault("analysis.scan_workers", DefaultScanWorkers())

	// Storage defaults
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./storage")
	v.SetDefault("storage.scheme", "https")
	v.SetDefault("storage.domain", "myqcloud.com")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.prefix", "reports")

	// Database defaults
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.type", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.path", "./hierarchy.db")

	// Neo4j defaults
	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.user", "neo4j")
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("neo4j.batch_size", 500)

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.pprof", false)

	// Output defaults
	v.SetDefault("output.dir", "./output")
	v.SetDefault("output.compression", "none")
	v.SetDefault("output.upload", false)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	a := c.Analysis
	if a.SupertypeCacheSize < 0 || a.SubtypeCacheSize < 0 || a.CommonSuperclassCacheSize < 0 {
		return fmt.Errorf("cache sizes must not be negative")
	}
	if a.ScanWorkers < 1 {
		return fmt.Errorf("scan workers must be at least 1")
	}

	switch c.Storage.Type {
	case "local", "cos", "s3":
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	switch c.Output.Compression {
	case "", "none", "gzip", "zstd":
	default:
		return fmt.Errorf("unsupported output compression: %s", c.Output.Compression)
	}

	if c.Database.Enabled {
		switch c.Database.Type {
		case "postgres", "mysql":
			if c.Database.Host == "" {
				return fmt.Errorf("database host is required")
			}
		case "sqlite":
			if c.Database.Path == "" {
				return fmt.Errorf("sqlite database path is required")
			}
		default:
			return fmt.Errorf("unsupported database type: %s", c.Database.Type)
		}
	}

	if c.Neo4j.BatchSize < 1 {
		return fmt.Errorf("neo4j batch size must be at least 1")
	}

	return nil
}

// EnsureOutputDir creates the report directory if it doesn't exist.
func (c *Config) EnsureOutputDir() error {
	if c.Output.Dir == "" {
		return nil
	}
	return os.MkdirAll(c.Output.Dir, 0755)
}
