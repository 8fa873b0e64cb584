package config

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"fleetevents/internal/bootstrap/logging"
	"fleetevents/internal/errs"
)

type Config struct {
	App         AppConfig                    `mapstructure:"app"`
	Database    DatabaseConfig               `mapstructure:"database"`
	Storage     StorageConfig                `mapstructure:"storage"`
	Saga        SagaConfig                   `mapstructure:"saga"`
	Log         LogConfig                    `mapstructure:"log"`
	Permissions map[string]map[string]string `mapstructure:"permissions"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type StorageConfig struct {
	Driver       string        `mapstructure:"driver"`
	BaseDir      string        `mapstructure:"base_dir"`
	ServerURL    string        `mapstructure:"server_url"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	S3           S3Config      `mapstructure:"s3"`
}

type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Prefix          string `mapstructure:"prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PathStyle       bool   `mapstructure:"path_style"`
}

type SagaConfig struct {
	MaxAttempts    uint          `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FLEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("storage_driver", cfg.Storage.Driver),
	)

	return cfg, nil
}

func (c Config) validate() error {
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	switch strings.ToLower(c.Storage.Driver) {
	case "fs":
		// An empty base_dir is reported by the first attachment write.
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket is required for the s3 driver")
		}
	case "memory":
	default:
		return errors.New("storage.driver must be one of fs, s3, memory")
	}
	if c.Saga.MaxAttempts == 0 {
		return errors.New("saga.max_attempts must be at least 1")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "fleetevents")
	v.SetDefault("app.env", "local")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/fleetevents.sqlite?_pragma=busy_timeout(5000)")
	v.SetDefault("storage.driver", "fs")
	v.SetDefault("storage.base_dir", "data/files")
	v.SetDefault("storage.server_url", "http://localhost:8080")
	v.SetDefault("storage.write_timeout", "30s")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("saga.max_attempts", 4)
	v.SetDefault("saga.initial_backoff", "50ms")
	v.SetDefault("saga.max_backoff", "1s")
	v.SetDefault("saga.timeout", "30s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
