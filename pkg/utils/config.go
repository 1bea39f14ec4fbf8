package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Scheduler SchedulerConfig
	Notifier  NotifierConfig
	Admin     AdminConfig
}

type AppConfig struct {
	Name            string        `validate:"required"`
	Port            string        `validate:"required,numeric"`
	Debug           bool
	LogPath         string
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

type DatabaseConfig struct {
	Host     string `validate:"required"`
	Port     string `validate:"required,numeric"`
	Name     string `validate:"required"`
	User     string `validate:"required"`
	Password string
	MaxConns int32 `validate:"min=1"`
}

type SchedulerConfig struct {
	Enabled  bool
	Interval time.Duration `validate:"gt=0"`
}

type NotifierConfig struct {
	Driver       string        `validate:"oneof=log kafka"`
	Timeout      time.Duration `validate:"gt=0"`
	KafkaBrokers []string      `validate:"required_if=Driver kafka,dive,hostname_port"`
	KafkaTopic   string        `validate:"required_if=Driver kafka"`
}

type AdminConfig struct {
	// bcrypt hash of the token accepted on admin routes; empty disables them
	TokenHash string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	viper.SetDefault("APP_NAME", "wedding-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("SCHEDULER_ENABLED", true)
	viper.SetDefault("SCHEDULER_INTERVAL", "1h")
	viper.SetDefault("NOTIFIER_DRIVER", "log")
	viper.SetDefault("NOTIFY_TIMEOUT", "10s")
	viper.SetDefault("KAFKA_TOPIC", "booking-notifications")

	// The .env file is optional; plain environment variables are enough in containers.
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:            viper.GetString("APP_NAME"),
			Port:            viper.GetString("PORT"),
			Debug:           viper.GetBool("DEBUG"),
			LogPath:         viper.GetString("LOG_PATH"),
			ShutdownTimeout: viper.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Scheduler: SchedulerConfig{
			Enabled:  viper.GetBool("SCHEDULER_ENABLED"),
			Interval: viper.GetDuration("SCHEDULER_INTERVAL"),
		},
		Notifier: NotifierConfig{
			Driver:       strings.ToLower(viper.GetString("NOTIFIER_DRIVER")),
			Timeout:      viper.GetDuration("NOTIFY_TIMEOUT"),
			KafkaBrokers: splitList(viper.GetString("KAFKA_BROKERS")),
			KafkaTopic:   viper.GetString("KAFKA_TOPIC"),
		},
		Admin: AdminConfig{
			TokenHash: viper.GetString("ADMIN_TOKEN_HASH"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the struct tags of every section.
func (c *Config) Validate() error {
	sections := []any{c.App, c.Database, c.Scheduler, c.Notifier}
	var msgs []string
	for _, s := range sections {
		if errs := ValidateStruct(s); len(errs) > 0 {
			msgs = append(msgs, FormatValidationErrors(errs))
		}
	}
	if len(msgs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
