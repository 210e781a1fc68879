package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config stores all configuration of the application
type Config struct {
	// Database
	DBDriver        string // mysql(默认) 或 sqlite
	DBHost          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBPort          string
	DBPath          string // sqlite 数据库文件
	DBMigrationMode string // 数据库迁移模式: "auto"(默认), "skip"(跳过)
	DBLogSQL        bool

	// Server
	ServerPort  string
	CORSOrigins []string

	// Redis (可选，用于登录失败限制)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT Authentication
	JWTSecretKey string
	JWTExpiresIn time.Duration

	// 登录失败锁定
	LoginMaxFailures int
	LoginLockMinutes int

	// 日志
	LogDir         string
	AuditQueueSize int

	// Admin
	DefaultAdminPassword string
}

// LoadConfig loads config from environment variables
func LoadConfig() *Config {
	return &Config{
		DBDriver:        strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBUser:          getEnv("DB_USER", ""),
		DBPassword:      getEnv("DB_PASSWORD", ""),
		DBName:          getEnv("DB_NAME", ""),
		DBPort:          getEnv("DB_PORT", "3306"),
		DBPath:          getEnv("DB_PATH", "voting.db"),
		DBMigrationMode: getEnv("DB_MIGRATION_MODE", "auto"),
		DBLogSQL:        getEnvAsBool("DB_LOG_SQL", false),

		ServerPort:  getEnv("SERVER_PORT", "3001"),
		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173"}),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		JWTSecretKey: getEnv("JWT_SECRET", ""),
		JWTExpiresIn: getEnvAsDuration("JWT_EXPIRES_IN", 24*time.Hour),

		LoginMaxFailures: getEnvAsInt("LOGIN_MAX_FAILURES", 5),
		LoginLockMinutes: getEnvAsInt("LOGIN_LOCK_MINUTES", 15),

		LogDir:         getEnv("LOG_DIR", "logs"),
		AuditQueueSize: getEnvAsInt("AUDIT_QUEUE_SIZE", 1024),

		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", "admin123"),
	}
}

// Validate 检查启动必需的配置项
func (c *Config) Validate() error {
	if c.JWTSecretKey == "" {
		return errors.New("JWT_SECRET 未配置")
	}
	switch c.DBDriver {
	case "mysql":
		var missing []string
		if c.DBUser == "" {
			missing = append(missing, "DB_USER")
		}
		if c.DBName == "" {
			missing = append(missing, "DB_NAME")
		}
		if len(missing) > 0 {
			return fmt.Errorf("数据库配置缺失: %s", strings.Join(missing, ", "))
		}
	case "sqlite":
		if c.DBPath == "" {
			return errors.New("DB_PATH 未配置")
		}
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", c.DBDriver)
	}
	return nil
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	if c.DBDriver == "sqlite" {
		return c.DBPath
	}
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=True&loc=Local"
}

// RedisEnabled 是否配置了 Redis
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// JWT_EXPIRES_IN 兼容 "24h" 与 "7d" 两种写法
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	if strings.HasSuffix(valueStr, "d") {
		if days, err := strconv.Atoi(strings.TrimSuffix(valueStr, "d")); err == nil && days > 0 {
			return time.Duration(days) * 24 * time.Hour
		}
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
