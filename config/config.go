package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds the application's configuration values.
type Config struct {
	AppName string `mapstructure:"APPNAME"`
	AppEnv  string `mapstructure:"APPENV"`
	AppPort uint16 `mapstructure:"APPPORT"`
	GinMode string `mapstructure:"GINMODE"`

	DBDriver string `mapstructure:"DB_DRIVER"`
	DBHost   string `mapstructure:"DBHOST"`
	DBPort   uint16 `mapstructure:"DBPORT"`
	DBName   string `mapstructure:"DBNAME"`
	DBUser   string `mapstructure:"DBUSER"`
	DBPass   string `mapstructure:"DBPASS"`
	DBDSN    string `mapstructure:"DB_DSN"`

	RedisEnabled  bool   `mapstructure:"REDIS_ENABLED"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	JWTSecret string `mapstructure:"JWTSECRET"`

	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogFile       string `mapstructure:"LOG_FILE"`
	LogMaxSizeMB  int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `mapstructure:"LOG_MAX_AGE_DAYS"`

	AdherenceCacheTTL          time.Duration `mapstructure:"ADHERENCE_CACHE_TTL"`
	RateLimit                  int           `mapstructure:"RATE_LIMIT"`
	RateWindow                 time.Duration `mapstructure:"RATE_WINDOW"`
	AppointmentStart           string        `mapstructure:"APPOINTMENT_START"`
	AppointmentDurationMinutes int           `mapstructure:"APPOINTMENT_DURATION_MINUTES"`
}

var defaults = map[string]interface{}{
	"APPNAME":                      "tbcare",
	"APPENV":                       "development",
	"APPPORT":                      19091,
	"GINMODE":                      "debug",
	"DB_DRIVER":                    "mysql",
	"DBHOST":                       "localhost",
	"DBPORT":                       3306,
	"DBNAME":                       "tbcare",
	"DBUSER":                       "root",
	"DBPASS":                       "",
	"DB_DSN":                       "",
	"REDIS_ENABLED":                false,
	"REDIS_ADDR":                   "localhost:6379",
	"REDIS_PASSWORD":               "",
	"REDIS_DB":                     0,
	"JWTSECRET":                    "",
	"LOG_LEVEL":                    "info",
	"LOG_FILE":                     "",
	"LOG_MAX_SIZE_MB":              100,
	"LOG_MAX_BACKUPS":              5,
	"LOG_MAX_AGE_DAYS":             30,
	"ADHERENCE_CACHE_TTL":          "10m",
	"RATE_LIMIT":                   120,
	"RATE_WINDOW":                  "1m",
	"APPOINTMENT_START":            "09:00",
	"APPOINTMENT_DURATION_MINUTES": 30,
}

// IsTest reports whether the application runs in the test environment.
func (c *Config) IsTest() bool {
	return strings.EqualFold(c.AppEnv, "test")
}

// IsDevelopment reports whether the application runs in development.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// AppointmentDuration is the length of one generated follow-up appointment.
func (c *Config) AppointmentDuration() time.Duration {
	return time.Duration(c.AppointmentDurationMinutes) * time.Minute
}

// Load reads the .env file when present and the process environment.
func Load() (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.DBDriver = strings.ToLower(cfg.DBDriver)
	return cfg, nil
}

var config *Config
var once sync.Once

// LoadConfig returns the process-wide Config, loading it on first use.
func LoadConfig() *Config {
	once.Do(func() {
		cfg, err := Load()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load configuration")
		}
		config = cfg
	})
	return config
}

// DSN builds the connection string for the configured driver. DB_DSN wins
// when set.
func (c *Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	switch c.DBDriver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName)
	case "sqlite":
		return fmt.Sprintf("%s.db", c.DBName)
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
	}
}

// ConnectDatabase opens the configured database. The test environment always
// gets a private in-memory sqlite database.
func ConnectDatabase(cfg *Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	if cfg.IsTest() {
		dsn := fmt.Sprintf("file:%s_test_%d?mode=memory&cache=shared", cfg.AppName, time.Now().UnixNano())
		return gorm.Open(sqlite.Open(dsn), gormCfg)
	}

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "mysql", "":
		dialector = mysql.Open(cfg.DSN())
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}
	return db, nil
}
