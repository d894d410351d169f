package internal

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/imagehub/imagehub_server/internal/batch"
	"github.com/imagehub/imagehub_server/internal/storage"
)

type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

type BatchConfig struct {
	Workers int `mapstructure:"workers"`
}

type Config struct {
	Server   ServerConfig                     `mapstructure:"server"`
	LogLevel string                           `mapstructure:"log_level"`
	Engine   string                           `mapstructure:"engine"`
	Progress batch.RedisConfig                `mapstructure:"progress"`
	Batch    BatchConfig                      `mapstructure:"batch"`
	Storages map[string]storage.BackendConfig `mapstructure:"storages"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile("files/config.yaml")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.request_timeout", 30*time.Second)
	viper.SetDefault("engine", "native")
	viper.SetDefault("batch.workers", 4)

	// Deployment override for the progress-store connection string.
	viper.SetEnvPrefix("imagehub")
	viper.AutomaticEnv()
	_ = viper.BindEnv("progress.redis_address", "IMAGEHUB_REDIS_ADDRESS")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(config.Storages) == 0 {
		return nil, fmt.Errorf("no storage backends configured")
	}
	return &config, nil
}
