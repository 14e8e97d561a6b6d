package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures configuration values for the lab scheduler service.
//
// Values come from three layers, each overriding the previous one: built-in
// defaults, an optional YAML file named by LAB_SCHEDULER_CONFIG, and
// LAB_SCHEDULER_* environment variables.
type Config struct {
	HTTPPort           int
	SQLiteDSN          string
	Timezone           string
	DefaultSlotMinutes int
	CommitTimeout      time.Duration
	KafkaBrokers       []string
	KafkaTopic         string
}

// fileConfig mirrors Config for the YAML layer. Durations are strings in the
// file ("3s", "500ms") and parsed here.
type fileConfig struct {
	HTTPPort           *int     `yaml:"http_port"`
	SQLiteDSN          string   `yaml:"sqlite_dsn"`
	Timezone           string   `yaml:"timezone"`
	DefaultSlotMinutes *int     `yaml:"default_slot_minutes"`
	CommitTimeout      string   `yaml:"commit_timeout"`
	KafkaBrokers       []string `yaml:"kafka_brokers"`
	KafkaTopic         string   `yaml:"kafka_topic"`
}

// Load assembles configuration from defaults, the optional YAML file, and the
// process environment.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:           8080,
		SQLiteDSN:          "file:labscheduler.db?_foreign_keys=on",
		Timezone:           "UTC",
		DefaultSlotMinutes: 30,
		CommitTimeout:      3 * time.Second,
		KafkaTopic:         "lab-scheduler.cancellations",
	}

	if path := strings.TrimSpace(os.Getenv("LAB_SCHEDULER_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("LAB_SCHEDULER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "LAB_SCHEDULER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("LAB_SCHEDULER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if tz := strings.TrimSpace(os.Getenv("LAB_SCHEDULER_TIMEZONE")); tz != "" {
		cfg.Timezone = tz
	}

	if slotValue := strings.TrimSpace(os.Getenv("LAB_SCHEDULER_DEFAULT_SLOT_MINUTES")); slotValue != "" {
		minutes, err := strconv.Atoi(slotValue)
		if err != nil || minutes <= 0 {
			invalid = append(invalid, "LAB_SCHEDULER_DEFAULT_SLOT_MINUTES")
		} else {
			cfg.DefaultSlotMinutes = minutes
		}
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("LAB_SCHEDULER_COMMIT_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "LAB_SCHEDULER_COMMIT_TIMEOUT")
		} else {
			cfg.CommitTimeout = timeout
		}
	}

	if brokers := strings.TrimSpace(os.Getenv("LAB_SCHEDULER_KAFKA_BROKERS")); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}

	if topic := strings.TrimSpace(os.Getenv("LAB_SCHEDULER_KAFKA_TOPIC")); topic != "" {
		cfg.KafkaTopic = topic
	}

	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		invalid = append(invalid, "LAB_SCHEDULER_TIMEZONE")
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Location resolves the configured timezone. Load already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if file.HTTPPort != nil {
		cfg.HTTPPort = *file.HTTPPort
	}
	if file.SQLiteDSN != "" {
		cfg.SQLiteDSN = file.SQLiteDSN
	}
	if file.Timezone != "" {
		cfg.Timezone = file.Timezone
	}
	if file.DefaultSlotMinutes != nil {
		cfg.DefaultSlotMinutes = *file.DefaultSlotMinutes
	}
	if file.CommitTimeout != "" {
		timeout, err := time.ParseDuration(file.CommitTimeout)
		if err != nil || timeout <= 0 {
			return fmt.Errorf("invalid commit_timeout in config file %s: %q", path, file.CommitTimeout)
		}
		cfg.CommitTimeout = timeout
	}
	if len(file.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = file.KafkaBrokers
	}
	if file.KafkaTopic != "" {
		cfg.KafkaTopic = file.KafkaTopic
	}
	return nil
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
