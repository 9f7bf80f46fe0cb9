package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APPENV", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("ADHERENCE_CACHE_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.AdherenceCacheTTL)
	assert.Equal(t, time.Minute, cfg.RateWindow)
	assert.Equal(t, 30*time.Minute, cfg.AppointmentDuration())
	assert.Equal(t, "09:00", cfg.AppointmentStart)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APPENV", "test")
	t.Setenv("APPPORT", "8088")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ADHERENCE_CACHE_TTL", "90s")
	t.Setenv("RATE_LIMIT", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsTest())
	assert.Equal(t, uint16(8088), cfg.AppPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 90*time.Second, cfg.AdherenceCacheTTL)
	assert.Equal(t, 5, cfg.RateLimit)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBDriver: "mysql", DBUser: "u", DBPass: "p", DBHost: "db", DBPort: 3306, DBName: "tb"}
	assert.Equal(t, "u:p@tcp(db:3306)/tb?parseTime=true&loc=UTC", cfg.DSN())

	cfg.DBDriver = "postgres"
	cfg.DBPort = 5432
	assert.Contains(t, cfg.DSN(), "host=db port=5432 user=u password=p dbname=tb")

	cfg.DBDSN = "override"
	assert.Equal(t, "override", cfg.DSN())
}

func TestConnectDatabase_TestEnvUsesSQLite(t *testing.T) {
	db, err := ConnectDatabase(&Config{AppName: "tbcare", AppEnv: "test"})
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.Equal(t, "sqlite", db.Dialector.Name())
}

func TestConnectDatabase_UnknownDriver(t *testing.T) {
	_, err := ConnectDatabase(&Config{AppEnv: "production", DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestNewLogger_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&Config{AppName: "tbcare", AppEnv: "production", LogLevel: "warn"}, &buf)

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"service":"tbcare"`)
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
}

func TestNewLogger_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&Config{AppEnv: "production", LogLevel: "loud"}, &buf)
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}
