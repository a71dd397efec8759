package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Matching MatchingConfig `mapstructure:"matching"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// MatchingConfig surfaces the product-tuned matching constants. Defaults are
// the calibrated production values; change them deliberately.
type MatchingConfig struct {
	AmountWeight    float64 `mapstructure:"amount_weight"`
	DateWeight      float64 `mapstructure:"date_weight"`
	DateWindowDays  float64 `mapstructure:"date_window_days"`
	AmountTolerance float64 `mapstructure:"amount_tolerance"`
	MinConfidence   float64 `mapstructure:"min_confidence"`
	MaxConfidence   float64 `mapstructure:"max_confidence"`
	MaxSuggestions  int     `mapstructure:"max_suggestions"`
}

// WorkerConfig holds background matching worker configuration
type WorkerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/paycile.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	// Matching defaults (production-calibrated)
	viper.SetDefault("matching.amount_weight", 0.7)
	viper.SetDefault("matching.date_weight", 0.3)
	viper.SetDefault("matching.date_window_days", 60.0)
	viper.SetDefault("matching.amount_tolerance", 1.0)
	viper.SetDefault("matching.min_confidence", 0.30)
	viper.SetDefault("matching.max_confidence", 0.99)
	viper.SetDefault("matching.max_suggestions", 3)

	// Worker defaults
	viper.SetDefault("worker.enabled", false)
	viper.SetDefault("worker.interval", 15*time.Minute)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("database.path", "DATABASE_PATH")
	viper.BindEnv("logger.level", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Database.MigrationsDir == "" {
		return fmt.Errorf("database.migrations_dir is required")
	}
	if c.Worker.Enabled && c.Worker.Interval <= 0 {
		return fmt.Errorf("worker.interval must be positive when the worker is enabled")
	}
	return nil
}
