package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Databases
	LakePath  string
	AppDBPath string

	// Source MES system
	SourceDBHost     string
	SourceDBPort     int
	SourceDBName     string
	SourceDBUser     string
	SourceDBPassword string
	SourceDBSSLMode  string

	// API server
	APIPort string
	APIHost string

	// Worker pool
	WorkerPoolSize int

	// Scheduler
	Scheduler SchedulerConfig `mapstructure:"scheduler"`

	// Retention
	Retention RetentionConfig `mapstructure:"retention"`

	// Seed data settings
	Seed SeedConfig `mapstructure:"seed"`
}

// SchedulerConfig controls the periodic ingest/recompute loop.
type SchedulerConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalMinutes int  `mapstructure:"interval_minutes"`
}

// RetentionConfig holds data retention settings.
type RetentionConfig struct {
	DataDays    int    `mapstructure:"data_days"`
	CleanupTime string `mapstructure:"cleanup_time"` // "15:04"
}

// SeedConfig holds demo data generation settings.
type SeedConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	Lines         []string `mapstructure:"lines"`
	PartNumbers   []string `mapstructure:"part_numbers"`
	TimeRangeDays int      `mapstructure:"time_range_days"`
	PlansPerShift int      `mapstructure:"plans_per_shift"`
}

// LoadConfig loads configuration from .env and config.yaml.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional, only warn
		fmt.Println("Warning: .env file not found, using environment variables")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	config := &Config{
		LakePath:         getEnv("LAKE_PATH", "./data/prodstat.duckdb"),
		AppDBPath:        getEnv("APP_DB_PATH", "./data/prodstat.db"),
		SourceDBHost:     getEnv("SOURCE_DB_HOST", "localhost"),
		SourceDBPort:     getEnvAsInt("SOURCE_DB_PORT", 5432),
		SourceDBName:     getEnv("SOURCE_DB_NAME", "mes"),
		SourceDBUser:     getEnv("SOURCE_DB_USER", "etl_user"),
		SourceDBPassword: getEnv("SOURCE_DB_PASSWORD", ""),
		SourceDBSSLMode:  getEnv("SOURCE_DB_SSLMODE", "disable"),
		APIPort:          getEnv("API_PORT", "8080"),
		APIHost:          getEnv("API_HOST", "0.0.0.0"),
		WorkerPoolSize:   getEnvAsInt("WORKER_POOL_SIZE", 4),
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config.yaml: %w", err)
	}

	if config.Retention.DataDays <= 0 {
		config.Retention.DataDays = 365
	}
	if config.Seed.TimeRangeDays <= 0 {
		config.Seed.TimeRangeDays = 30
	}
	if config.Seed.PlansPerShift <= 0 {
		config.Seed.PlansPerShift = 2
	}

	return config, nil
}

// SourceDSN builds the Postgres connection string for the MES source.
func (c *Config) SourceDSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.SourceDBHost, c.SourceDBPort, c.SourceDBName,
		c.SourceDBUser, c.SourceDBPassword, c.SourceDBSSLMode)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
