package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	BaseURL     string
	MaxPages    int
	PageDelayMs int
	MaxRetries  int
	ChromeBin   string

	CleanWorkers int

	RawCSVPath   string
	CleanCSVPath string
	EDAOutputDir string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "housing"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "housing123"),
		PostgresDB:       getEnv("POSTGRES_DB", "housing_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		BaseURL:     getEnv("ZOLO_BASE_URL", "https://www.zolo.ca/toronto-real-estate"),
		MaxPages:    getEnvInt("MAX_PAGES", 395),
		PageDelayMs: getEnvInt("PAGE_DELAY_MS", 3000),
		MaxRetries:  getEnvInt("MAX_RETRIES", 3),
		ChromeBin:   getEnv("CHROME_BIN", ""),

		CleanWorkers: getEnvInt("CLEAN_WORKERS", 4),

		RawCSVPath:   getEnv("RAW_CSV_PATH", "./data/raw/toronto_housing_data.csv"),
		CleanCSVPath: getEnv("CLEAN_CSV_PATH", "./data/clean/toronto_housing_data.csv"),
		EDAOutputDir: getEnv("EDA_OUTPUT_DIR", "./eda_outputs"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
