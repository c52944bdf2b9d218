package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	DBUrl    string `mapstructure:"DB_URL"`
	RedisUrl string `mapstructure:"REDIS_URL"`
	LogFile  string `mapstructure:"LOG_FILE"`

	GridXL float64 `mapstructure:"GRID_XL"`
	GridYL float64 `mapstructure:"GRID_YL"`
	GridXU float64 `mapstructure:"GRID_XU"`
	GridYU float64 `mapstructure:"GRID_YU"`
	GridM  int     `mapstructure:"GRID_M"`

	KNNMaxHops  int `mapstructure:"KNN_MAX_HOPS"`
	JoinWorkers int `mapstructure:"JOIN_WORKERS"`

	ResultTTL        time.Duration `mapstructure:"RESULT_TTL"`
	ResultStorePath  string        `mapstructure:"RESULT_STORE_PATH"`
	SnapshotInterval time.Duration `mapstructure:"SNAPSHOT_INTERVAL"`
}

// setDefaults registers the default value of every key so that
// AutomaticEnv can also resolve keys missing from the config file
func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", ":8080")
	v.SetDefault("DB_URL", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("LOG_FILE", "spatialgrid.log")

	v.SetDefault("GRID_XL", 0.0)
	v.SetDefault("GRID_YL", 0.0)
	v.SetDefault("GRID_XU", 100.0)
	v.SetDefault("GRID_YU", 100.0)
	v.SetDefault("GRID_M", 10)

	v.SetDefault("KNN_MAX_HOPS", DefaultMaxHops)
	v.SetDefault("JOIN_WORKERS", 0)

	v.SetDefault("RESULT_TTL", DefaultResultTTL.String())
	v.SetDefault("RESULT_STORE_PATH", ":memory:")
	v.SetDefault("SNAPSHOT_INTERVAL", SnapshotWorkerInterval.String())
}

func LoadConfig() (c Config, err error) {
	return LoadConfigFrom(".")
}

// LoadConfigFrom reads .env.<APP_ENV> from dir, environment variables take precedence
func LoadConfigFrom(dir string) (c Config, err error) {
	// Get environment type from ENV variable or use development as default
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	setDefaults(v)

	// Load environment file
	v.SetConfigName(fmt.Sprintf(".env.%s", env))
	v.SetConfigType("env")
	v.AddConfigPath(dir)

	// Environment variables take precedence over config file
	v.AutomaticEnv()

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		// Continue even if file is not found
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	// Map the values to the Config struct
	if err = v.Unmarshal(&c); err != nil {
		return c, err
	}

	if c.GridXU <= c.GridXL || c.GridYU <= c.GridYL {
		return c, fmt.Errorf("invalid grid bounds [%g,%g]x[%g,%g]", c.GridXL, c.GridXU, c.GridYL, c.GridYU)
	}
	if c.KNNMaxHops <= 0 {
		c.KNNMaxHops = DefaultMaxHops
	}
	return c, nil
}
