package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const fileName = "fieldcap"

type Config struct {
	DataDir  string         `mapstructure:"data_dir"`
	DBPath   string         `mapstructure:"db_path"`
	Timezone string         `mapstructure:"timezone"`
	Store    StoreConfig    `mapstructure:"store"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Objects  ObjectsConfig  `mapstructure:"objects"`
	Identity IdentityConfig `mapstructure:"identity"`
	Device   DeviceConfig   `mapstructure:"device"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`

	location *time.Location
}

type StoreConfig struct {
	Backend   string `mapstructure:"backend"`
	RedisAddr string `mapstructure:"redis_addr"`
	RedisDB   int    `mapstructure:"redis_db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type RemoteConfig struct {
	DatabaseURL string `mapstructure:"database_url"`
	Table       string `mapstructure:"table"`
}

type ObjectsConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
}

type IdentityConfig struct {
	TokenPath  string        `mapstructure:"token_path"`
	SigningKey string        `mapstructure:"signing_key"`
	Issuer     string        `mapstructure:"issuer"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type DeviceConfig struct {
	PluginPath    string        `mapstructure:"plugin_path"`
	WatchInterval time.Duration `mapstructure:"watch_interval"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// New loads configuration for dataDir: defaults, then <dataDir>/fieldcap.yaml when present,
// then FIELDCAP_* environment variables.
func New(dataDir string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	v := viper.New()
	setDefaults(v, dataDir)

	v.SetEnvPrefix("FIELDCAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dataDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.DataDir = dataDir
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(dataDir, ".fieldcap", "fieldcap.db")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault("data_dir", dataDir)
	v.SetDefault("timezone", "Local")
	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.key_prefix", "fieldcap:")
	v.SetDefault("remote.table", "geo_images")
	v.SetDefault("objects.bucket", "geo-images")
	v.SetDefault("identity.token_path", filepath.Join(dataDir, ".fieldcap", "token"))
	v.SetDefault("identity.timeout", "5s")
	v.SetDefault("device.watch_interval", "2s")
	v.SetDefault("http.addr", "127.0.0.1:8088")
	v.SetDefault("log.level", "info")

	// Keys without a useful default are still registered so AutomaticEnv can fill them on Unmarshal.
	for key, zero := range map[string]any{
		"db_path":              "",
		"store.redis_db":       0,
		"remote.database_url":  "",
		"objects.endpoint":     "",
		"objects.access_key":   "",
		"objects.secret_key":   "",
		"objects.use_ssl":      false,
		"identity.signing_key": "",
		"identity.issuer":      "",
		"device.plugin_path":   "",
		"log.json":             false,
	} {
		v.SetDefault(key, zero)
	}
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("unsupported store backend %q", c.Store.Backend)
	}
	loc, err := loadLocation(c.Timezone)
	if err != nil {
		return err
	}
	c.location = loc
	if c.Device.WatchInterval <= 0 {
		return fmt.Errorf("device.watch_interval must be positive")
	}
	return nil
}

// Location is the zone used for calendar-day keys and localized folder dates.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}
