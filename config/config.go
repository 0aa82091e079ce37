package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds the application's configuration values.
type Config struct {
	AppName  string `json:"appname"`
	AppEnv   string `json:"appenv"`
	AppPort  uint16 `json:"appport"`
	GinMode  string `json:"ginmode"`
	LogLevel string `json:"loglevel"`
	DBDriver string `json:"dbdriver"`
	DBHost   string `json:"dbhost"`
	DBPort   uint16 `json:"dbport"`
	DBName   string `json:"dbname"`
	DBUSER   string `json:"dbuser"`
	DBPass   string `json:"dbpass"`

	RateLimit  int           `json:"ratelimit"`
	RateWindow time.Duration `json:"ratewindow"`

	// LockTTL bounds how long a booking lock can be held before it expires on its own.
	LockTTL  time.Duration `json:"lockttl"`
	LockWait time.Duration `json:"lockwait"`

	NotificationQueueSize int           `json:"notificationqueuesize"`
	ReminderLead          time.Duration `json:"reminderlead"`
}

var config *Config
var once sync.Once

// LoadConfig loads the environment variables from a .env file, and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		// A missing .env is fine, the process environment is used as is.
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Fatalf("Error loading .env file: %v", err)
		}
		config = loadFromEnv()
	})
	return config
}

// ResetConfigForTest drops the singleton so the next LoadConfig re-reads the environment.
func ResetConfigForTest() {
	config = nil
	once = sync.Once{}
}

func loadFromEnv() *Config {
	appPort, _ := strconv.ParseUint(getEnv("APPPORT", "4000"), 10, 16)
	dbPort, _ := strconv.ParseUint(getEnv("DBPORT", "3306"), 10, 16)

	return &Config{
		AppName:  getEnv("APPNAME", "AyurSutra API"),
		AppEnv:   getEnv("APPENV", "development"),
		AppPort:  uint16(appPort),
		GinMode:  getEnv("GINMODE", "debug"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DBDriver: getEnv("DBDRIVER", "mysql"),
		DBHost:   os.Getenv("DBHOST"),
		DBPort:   uint16(dbPort),
		DBName:   os.Getenv("DBNAME"),
		DBUSER:   os.Getenv("DBUSER"),
		DBPass:   os.Getenv("DBPASS"),

		RateLimit:  getEnvInt("RATE_LIMIT", 30),
		RateWindow: getEnvDuration("RATE_WINDOW", time.Minute),

		LockTTL:  getEnvDuration("LOCK_TTL", 10*time.Second),
		LockWait: getEnvDuration("LOCK_WAIT", 5*time.Second),

		NotificationQueueSize: getEnvInt("NOTIFICATION_QUEUE_SIZE", 256),
		ReminderLead:          getEnvDuration("REMINDER_LEAD", 24*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// UseSQLite reports whether the database should be an SQLite one. The test
// environment always runs on in-memory SQLite.
func (c *Config) UseSQLite() bool {
	return c.AppEnv == "test" || c.DBDriver == "sqlite"
}

// ConnectDatabase opens the configured database. MySQL is the default; SQLite
// is used for tests and for the in-memory mode (DBDRIVER=sqlite with no DBNAME).
func ConnectDatabase() (*gorm.DB, error) {
	cfg := LoadConfig()
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	if cfg.UseSQLite() {
		dsn := cfg.DBName
		if dsn == "" || cfg.AppEnv == "test" {
			dsn = "file::memory:?cache=shared"
		}
		db, err := gorm.Open(sqlite.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// Shared-cache memory databases must not be used from several connections at once.
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
		return db, nil
	}

	return ConnectMySQL()
}

// ConnectMySQL establishes a connection to a MySQL database using the configuration values.
func ConnectMySQL() (*gorm.DB, error) {
	cfg := LoadConfig()
	// Build the Data Source Name (DSN) using the configuration values.
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC", cfg.DBUSER, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	return db, nil
}
