package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"DB_DRIVER", "JWT_EXPIRES_IN", "LOGIN_MAX_FAILURES", "REDIS_ADDR"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg := LoadConfig()
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, 5, cfg.LoginMaxFailures)
	assert.False(t, cfg.RedisEnabled())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_PATH", "/tmp/test.db")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_EXPIRES_IN", "7d")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("REDIS_ADDR", "127.0.0.1:6379")

	cfg := LoadConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "/tmp/test.db", cfg.GetDSN())
	assert.Equal(t, 7*24*time.Hour, cfg.JWTExpiresIn)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.RedisEnabled())
}

func TestValidate(t *testing.T) {
	cfg := &Config{DBDriver: "mysql", DBUser: "root", DBName: "voting"}
	assert.Error(t, cfg.Validate(), "missing jwt secret")

	cfg.JWTSecretKey = "secret"
	assert.NoError(t, cfg.Validate())

	cfg.DBName = ""
	assert.Error(t, cfg.Validate())

	cfg.DBDriver = "oracle"
	assert.Error(t, cfg.Validate())
}

func TestGetDSN_MySQL(t *testing.T) {
	cfg := &Config{DBDriver: "mysql", DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "3306", DBName: "d"}
	assert.Equal(t, "u:p@tcp(h:3306)/d?charset=utf8mb4&parseTime=True&loc=Local", cfg.GetDSN())
}
