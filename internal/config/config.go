package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultLogLevel     = "info"
	defaultLogMaxSizeMB = 10
	defaultLogMaxFiles  = 5

	defaultMapsLanguage    = "pt-BR"
	defaultMapsRegion      = "BR"
	defaultMapsTimeout     = 10 * time.Second
	defaultMapsCacheTTL    = 30 * time.Minute
	defaultMapsCacheSize   = 100
	defaultNearbyRadiusMtr = 1000
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Maps     MapsConfig     `toml:"maps"`
	Logging  LoggingConfig  `toml:"logging"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
	// AllowRebuild opts in to the lossy schema-rebuild recovery path.
	AllowRebuild bool `toml:"allow_rebuild"`
}

type MapsConfig struct {
	APIKey       string        `toml:"api_key"`
	Language     string        `toml:"language"`
	Region       string        `toml:"region"`
	Timeout      time.Duration `toml:"timeout"`
	CacheTTL     time.Duration `toml:"cache_ttl"`
	CacheMaxSize int           `toml:"cache_max_size"`
	NearbyRadius int           `toml:"nearby_radius"`
}

type LoggingConfig struct {
	Level     string `toml:"level"`
	File      string `toml:"file"`
	MaxSizeMB int    `toml:"max_size_mb"`
	MaxFiles  int    `toml:"max_files"`
}

type LoadOptions struct {
	ConfigPath string
	// Env overrides process environment lookups, mainly for tests.
	Env map[string]string
}

func DefaultConfig() (Config, error) {
	dataDir, err := dataHome(LoadOptions{})
	if err != nil {
		return Config{}, err
	}
	return defaultConfigWithDataDir(dataDir), nil
}

func defaultConfigWithDataDir(dataDir string) Config {
	return Config{
		Database: DatabaseConfig{
			Path:         filepath.Join(dataDir, "porondeandei.db"),
			AllowRebuild: false,
		},
		Maps: MapsConfig{
			Language:     defaultMapsLanguage,
			Region:       defaultMapsRegion,
			Timeout:      defaultMapsTimeout,
			CacheTTL:     defaultMapsCacheTTL,
			CacheMaxSize: defaultMapsCacheSize,
			NearbyRadius: defaultNearbyRadiusMtr,
		},
		Logging: LoggingConfig{
			Level:     defaultLogLevel,
			File:      "",
			MaxSizeMB: defaultLogMaxSizeMB,
			MaxFiles:  defaultLogMaxFiles,
		},
	}
}

func Load(opts LoadOptions) (Config, error) {
	dataDir, err := dataHome(opts)
	if err != nil {
		return Config{}, err
	}
	cfg := defaultConfigWithDataDir(dataDir)

	configPath, err := resolveConfigPath(opts)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}
	if err := loadAndApplyFile(configPath, &cfg); err != nil {
		return Config{}, err
	}
	if err := applyEnvOverrides(&cfg, opts); err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// rawConfig mirrors Config with pointer fields so absent keys leave
// defaults alone, and durations as strings for time.ParseDuration.
type rawConfig struct {
	Database *rawDatabase `toml:"database"`
	Maps     *rawMaps     `toml:"maps"`
	Logging  *rawLogging  `toml:"logging"`
}

type rawDatabase struct {
	Path         *string `toml:"path"`
	AllowRebuild *bool   `toml:"allow_rebuild"`
}

type rawMaps struct {
	APIKey       *string `toml:"api_key"`
	Language     *string `toml:"language"`
	Region       *string `toml:"region"`
	Timeout      *string `toml:"timeout"`
	CacheTTL     *string `toml:"cache_ttl"`
	CacheMaxSize *int    `toml:"cache_max_size"`
	NearbyRadius *int    `toml:"nearby_radius"`
}

type rawLogging struct {
	Level     *string `toml:"level"`
	File      *string `toml:"file"`
	MaxSizeMB *int    `toml:"max_size_mb"`
	MaxFiles  *int    `toml:"max_files"`
}

func loadAndApplyFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: parse TOML file %q: %v", ErrInvalidConfig, path, err)
	}

	if raw.Database != nil {
		setString(raw.Database.Path, &cfg.Database.Path)
		setBool(raw.Database.AllowRebuild, &cfg.Database.AllowRebuild)
	}
	if raw.Maps != nil {
		setString(raw.Maps.APIKey, &cfg.Maps.APIKey)
		setString(raw.Maps.Language, &cfg.Maps.Language)
		setString(raw.Maps.Region, &cfg.Maps.Region)
		if err := setDuration("maps.timeout", raw.Maps.Timeout, &cfg.Maps.Timeout); err != nil {
			return err
		}
		if err := setDuration("maps.cache_ttl", raw.Maps.CacheTTL, &cfg.Maps.CacheTTL); err != nil {
			return err
		}
		setInt(raw.Maps.CacheMaxSize, &cfg.Maps.CacheMaxSize)
		setInt(raw.Maps.NearbyRadius, &cfg.Maps.NearbyRadius)
	}
	if raw.Logging != nil {
		setString(raw.Logging.Level, &cfg.Logging.Level)
		setString(raw.Logging.File, &cfg.Logging.File)
		setInt(raw.Logging.MaxSizeMB, &cfg.Logging.MaxSizeMB)
		setInt(raw.Logging.MaxFiles, &cfg.Logging.MaxFiles)
	}
	return nil
}

func applyEnvOverrides(cfg *Config, opts LoadOptions) error {
	if value, ok := lookupEnv(opts, "ANDEI_DB_PATH"); ok {
		cfg.Database.Path = value
	}
	if value, ok := lookupEnv(opts, "ANDEI_DB_ALLOW_REBUILD"); ok {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: parse ANDEI_DB_ALLOW_REBUILD: %v", ErrInvalidConfig, err)
		}
		cfg.Database.AllowRebuild = parsed
	}
	if value, ok := lookupEnv(opts, "ANDEI_MAPS_API_KEY"); ok {
		cfg.Maps.APIKey = value
	}
	if value, ok := lookupEnv(opts, "ANDEI_MAPS_LANGUAGE"); ok {
		cfg.Maps.Language = value
	}
	if value, ok := lookupEnv(opts, "ANDEI_MAPS_REGION"); ok {
		cfg.Maps.Region = value
	}
	if value, ok := lookupEnv(opts, "ANDEI_LOG_LEVEL"); ok {
		cfg.Logging.Level = value
	}
	if value, ok := lookupEnv(opts, "ANDEI_LOG_FILE"); ok {
		cfg.Logging.File = value
	}
	return nil
}

func validate(cfg Config) error {
	if cfg.Database.Path == "" {
		return fmt.Errorf("%w: database.path must not be empty", ErrInvalidConfig)
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level must be one of debug, info, warn, error", ErrInvalidConfig)
	}
	if cfg.Maps.Timeout <= 0 {
		return fmt.Errorf("%w: maps.timeout must be > 0", ErrInvalidConfig)
	}
	if cfg.Maps.NearbyRadius <= 0 {
		return fmt.Errorf("%w: maps.nearby_radius must be > 0", ErrInvalidConfig)
	}
	return nil
}

func setString(raw *string, target *string) {
	if raw != nil {
		*target = *raw
	}
}

func setBool(raw *bool, target *bool) {
	if raw != nil {
		*target = *raw
	}
}

func setInt(raw *int, target *int) {
	if raw != nil {
		*target = *raw
	}
}

func setDuration(field string, raw *string, target *time.Duration) error {
	if raw == nil {
		return nil
	}
	d, err := time.ParseDuration(*raw)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, field, err)
	}
	*target = d
	return nil
}

func resolveConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigPath != "" {
		return opts.ConfigPath, nil
	}
	if value, ok := lookupEnv(opts, "ANDEI_CONFIG_PATH"); ok {
		return value, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "PorOndeAndei", "config.toml"), nil
	}

	configHome := filepath.Join(home, ".config")
	if xdgConfigHome, ok := lookupEnv(opts, "XDG_CONFIG_HOME"); ok && xdgConfigHome != "" {
		configHome = xdgConfigHome
	}
	return filepath.Join(configHome, "porondeandei", "config.toml"), nil
}

func lookupEnv(opts LoadOptions, key string) (string, bool) {
	if opts.Env != nil {
		if value, ok := opts.Env[key]; ok {
			return value, true
		}
	}
	return os.LookupEnv(key)
}

func dataHome(opts LoadOptions) (string, error) {
	if value, ok := lookupEnv(opts, "ANDEI_HOME"); ok {
		return value, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve user home: %w", err)
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "PorOndeAndei"), nil
	}

	dataDir := filepath.Join(home, ".local", "share")
	if xdgDataHome, ok := lookupEnv(opts, "XDG_DATA_HOME"); ok && xdgDataHome != "" {
		dataDir = xdgDataHome
	}
	return filepath.Join(dataDir, "porondeandei"), nil
}
