// Package config loads gardenplanner settings from an optional YAML file and
// GARDENPLANNER_* environment variables. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers understood by the persistence opener.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Blob drivers understood by the export store opener.
const (
	BlobFilesystem = "fs"
	BlobS3         = "s3"
	BlobMemory     = "memory"
)

// Environment variable names.
const (
	EnvStorageDriver  = "GARDENPLANNER_STORAGE_DRIVER"
	EnvSQLitePath     = "GARDENPLANNER_SQLITE_PATH"
	EnvPostgresDSN    = "GARDENPLANNER_POSTGRES_DSN"
	EnvBlobDriver     = "GARDENPLANNER_BLOB_DRIVER"
	EnvBlobFSRoot     = "GARDENPLANNER_BLOB_FS_ROOT"
	EnvS3Bucket       = "GARDENPLANNER_BLOB_S3_BUCKET"
	EnvS3Region       = "GARDENPLANNER_BLOB_S3_REGION"
	EnvS3Endpoint     = "GARDENPLANNER_BLOB_S3_ENDPOINT"
	EnvS3PathStyle    = "GARDENPLANNER_BLOB_S3_PATH_STYLE"
	EnvCatalogPath    = "GARDENPLANNER_CATALOG_PATH"
	EnvCatalogURL     = "GARDENPLANNER_CATALOG_URL"
	EnvCatalogTimeout = "GARDENPLANNER_CATALOG_TIMEOUT"
	EnvLogLevel       = "GARDENPLANNER_LOG_LEVEL"
	EnvWatchDebounce  = "GARDENPLANNER_WATCH_DEBOUNCE"
)

// Config is the root configuration document.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Blob    BlobConfig    `yaml:"blob"`
	Catalog CatalogConfig `yaml:"catalog"`
	Log     LogConfig     `yaml:"log"`
	Watch   WatchConfig   `yaml:"watch"`
}

// StorageConfig selects the key-value backend holding planner state.
type StorageConfig struct {
	Driver      string `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// BlobConfig selects where export files are written.
type BlobConfig struct {
	Driver      string `yaml:"driver"`
	FSRoot      string `yaml:"fs_root"`
	S3Bucket    string `yaml:"s3_bucket"`
	S3Region    string `yaml:"s3_region"`
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style"`
}

// CatalogConfig points at the plant catalog. URL takes precedence over Path.
type CatalogConfig struct {
	Path    string        `yaml:"path"`
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// LogConfig controls the CLI logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// WatchConfig tunes the store watcher.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Storage: StorageConfig{Driver: StorageSQLite, SQLitePath: "gardenplanner.db"},
		Blob:    BlobConfig{Driver: BlobFilesystem, FSRoot: "gardenplanner-data", S3Region: "us-east-1"},
		Catalog: CatalogConfig{Path: "plants.json", Timeout: 10 * time.Second},
		Log:     LogConfig{Level: "info"},
		Watch:   WatchConfig{Debounce: 200 * time.Millisecond},
	}
}

// Load reads path (when non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overlays GARDENPLANNER_* variables onto cfg.
func (c *Config) ApplyEnv() error {
	setString(&c.Storage.Driver, EnvStorageDriver)
	setString(&c.Storage.SQLitePath, EnvSQLitePath)
	setString(&c.Storage.PostgresDSN, EnvPostgresDSN)
	setString(&c.Blob.Driver, EnvBlobDriver)
	setString(&c.Blob.FSRoot, EnvBlobFSRoot)
	setString(&c.Blob.S3Bucket, EnvS3Bucket)
	setString(&c.Blob.S3Region, EnvS3Region)
	setString(&c.Blob.S3Endpoint, EnvS3Endpoint)
	setString(&c.Catalog.Path, EnvCatalogPath)
	setString(&c.Catalog.URL, EnvCatalogURL)
	setString(&c.Log.Level, EnvLogLevel)
	if raw := strings.TrimSpace(os.Getenv(EnvS3PathStyle)); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvS3PathStyle, err)
		}
		c.Blob.S3PathStyle = v
	}
	if err := setDuration(&c.Catalog.Timeout, EnvCatalogTimeout); err != nil {
		return err
	}
	return setDuration(&c.Watch.Debounce, EnvWatchDebounce)
}

// Validate reports every inconsistent setting.
func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Storage.Driver) {
	case StorageMemory, StorageSQLite, StoragePostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	switch strings.ToLower(c.Blob.Driver) {
	case BlobFilesystem, BlobMemory:
	case BlobS3:
		if c.Blob.S3Bucket == "" {
			errs = append(errs, errors.New("blob s3_bucket required for s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob driver %q", c.Blob.Driver))
	}
	if c.Catalog.Timeout < 0 {
		errs = append(errs, errors.New("catalog timeout must not be negative"))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, errors.New("watch debounce must not be negative"))
	}
	return errors.Join(errs...)
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, env string) error {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", env, err)
	}
	*dst = d
	return nil
}
