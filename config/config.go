// Package config holds the settings shared by the command line and the HTTP service.
//
// Values are resolved by viper in this order: command-line flags, CRISPRS_*
// environment variables (a .env file is loaded first), the optional config file,
// then the defaults below.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/coronin/Crisprs"
	"github.com/coronin/Crisprs/blobstore/minio"
	"github.com/coronin/Crisprs/blobstore/resolver"
	"github.com/coronin/Crisprs/output"
	"github.com/coronin/Crisprs/search"
)

// EnvPrefix prefixes every environment variable, e.g. CRISPRS_SEARCH_THRESHOLD.
const EnvPrefix = "CRISPRS"

// SearchConfig controls off-target search.
type SearchConfig struct {
	Threshold   int    `mapstructure:"threshold"`
	Workers     int    `mapstructure:"workers"`
	BothStrands bool   `mapstructure:"both-strands"`
	ExcludeSelf bool   `mapstructure:"exclude-self"`
	MaxMatches  int    `mapstructure:"max-matches"`
	Format      string `mapstructure:"format"`
}

// ServerConfig controls the HTTP service.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read-timeout"`
	WriteTimeout time.Duration `mapstructure:"write-timeout"`
	// RateLimit is the sustained requests per second; 0 disables limiting.
	RateLimit  float64 `mapstructure:"rate-limit"`
	RateBurst  int     `mapstructure:"rate-burst"`
	MaxQueries int     `mapstructure:"max-queries"`
	// CacheBytes bounds the cache of encoded results by query id; 0 disables it.
	CacheBytes int64 `mapstructure:"cache-bytes"`
}

// StorageConfig holds the credentials and endpoints of remote index locations.
type StorageConfig struct {
	S3Region    string `mapstructure:"s3-region"`
	S3Endpoint  string `mapstructure:"s3-endpoint"`
	S3PathStyle bool   `mapstructure:"s3-path-style"`

	MinIOEndpoint  string `mapstructure:"minio-endpoint"`
	MinIOAccessKey string `mapstructure:"minio-access-key"`
	MinIOSecretKey string `mapstructure:"minio-secret-key"`
	MinIOSecure    bool   `mapstructure:"minio-secure"`
	MinIORegion    string `mapstructure:"minio-region"`
}

// Config is the root-level settings struct.
type Config struct {
	LogLevel  string        `mapstructure:"log-level"`
	LogFormat string        `mapstructure:"log-format"`
	Search    SearchConfig  `mapstructure:"search"`
	Server    ServerConfig  `mapstructure:"server"`
	Storage   StorageConfig `mapstructure:"storage"`
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "text")

	v.SetDefault("search.threshold", search.DefaultThreshold)
	v.SetDefault("search.workers", 0)
	v.SetDefault("search.both-strands", false)
	v.SetDefault("search.exclude-self", false)
	v.SetDefault("search.max-matches", 0)
	v.SetDefault("search.format", output.FormatTSV)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read-timeout", 30*time.Second)
	v.SetDefault("server.write-timeout", 0)
	v.SetDefault("server.rate-limit", 0.0)
	v.SetDefault("server.rate-burst", 10)
	v.SetDefault("server.max-queries", 10_000)
	v.SetDefault("server.cache-bytes", 64<<20)

	v.SetDefault("storage.s3-region", "")
	v.SetDefault("storage.s3-endpoint", "")
	v.SetDefault("storage.s3-path-style", false)
	v.SetDefault("storage.minio-endpoint", "")
	v.SetDefault("storage.minio-access-key", "")
	v.SetDefault("storage.minio-secret-key", "")
	v.SetDefault("storage.minio-secure", true)
	v.SetDefault("storage.minio-region", "")
}

// New returns a viper instance with defaults and environment binding set up.
// dotenv names a .env file to load first; a missing file is ignored.
func New(dotenv string) (*viper.Viper, error) {
	if err := LoadDotEnv(dotenv); err != nil {
		return nil, err
	}
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v, nil
}

// BindEnv makes v read CRISPRS_* variables, with "." and "-" in keys written as "_".
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv copies the variables of a .env file into the environment without
// overriding variables already set. An empty path or a missing file is ignored.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads the optional config file into v and decodes the result.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return c, c.Validate()
}

// Validate checks values that viper cannot.
func (c Config) Validate() error {
	if c.Search.Threshold < 0 {
		return fmt.Errorf("search.threshold: %w", search.ErrInvalidThreshold)
	}
	if c.Search.Workers < 0 {
		return fmt.Errorf("search.workers: %w", search.ErrInvalidWorkers)
	}
	if !output.IsValidFormat(c.Search.Format) {
		return fmt.Errorf("search.format: %w: %q", output.ErrUnknownFormat, c.Search.Format)
	}
	if c.Server.CacheBytes < 0 {
		return fmt.Errorf("server.cache-bytes: must not be negative, got %d", c.Server.CacheBytes)
	}
	if _, err := crisprs.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log-format: want text or json, got %q", c.LogFormat)
	}
	return nil
}

// Logger returns the logger the settings describe, writing to w.
func (c Config) Logger(w io.Writer) *crisprs.Logger {
	level, err := crisprs.ParseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return crisprs.NewLogger(slog.NewJSONHandler(w, opts))
	}
	return crisprs.NewLogger(slog.NewTextHandler(w, opts))
}

// SearchOptions returns the engine options the settings describe.
func (c Config) SearchOptions() []search.Option {
	opts := []search.Option{
		search.WithThreshold(c.Search.Threshold),
		search.WithBothStrands(c.Search.BothStrands),
		search.WithExcludeSelf(c.Search.ExcludeSelf),
		search.WithMaxMatches(c.Search.MaxMatches),
	}
	if c.Search.Workers > 0 {
		opts = append(opts, search.WithWorkers(c.Search.Workers))
	}
	return opts
}

// Resolver returns the remote location settings.
func (c Config) Resolver() resolver.Config {
	return resolver.Config{
		S3Region:    c.Storage.S3Region,
		S3Endpoint:  c.Storage.S3Endpoint,
		S3PathStyle: c.Storage.S3PathStyle,
		MinIO: minio.Config{
			Endpoint:  c.Storage.MinIOEndpoint,
			AccessKey: c.Storage.MinIOAccessKey,
			SecretKey: c.Storage.MinIOSecretKey,
			Secure:    c.Storage.MinIOSecure,
			Region:    c.Storage.MinIORegion,
		},
	}
}
