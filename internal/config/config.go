// internal/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	DSN            string `yaml:"dsn"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"-"`
	DBName         string `yaml:"dbname"`
	MigrationsPath string `yaml:"migrations_path"`
}

// Configured сообщает, заданы ли параметры подключения. Без них панель работает на пустых данных.
func (d DatabaseConfig) Configured() bool {
	return d.DSN != "" || (d.Host != "" && d.User != "" && d.DBName != "")
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"-"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Channel  string `yaml:"channel"`
}

type SessionConfig struct {
	CookieName    string `yaml:"cookie_name"`
	LifetimeHours int    `yaml:"lifetime_hours"`
}

func (s SessionConfig) Lifetime() time.Duration {
	return time.Duration(s.LifetimeHours) * time.Hour
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type StatsConfig struct {
	DefaultMonths int `yaml:"default_months"`
}

type RealtimeConfig struct {
	Enabled bool `yaml:"enabled"`
}

type Config struct {
	SiteName    string          `yaml:"site_name"`
	BaseURL     string          `yaml:"base_url"`
	Port        int             `yaml:"port"`
	AppEnv      string          `yaml:"app_env"`
	Timezone    string          `yaml:"timezone"`
	Database    DatabaseConfig  `yaml:"database"`
	Redis       RedisConfig     `yaml:"redis"`
	Session     SessionConfig   `yaml:"session"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	CORS        CORSConfig      `yaml:"cors"`
	Stats       StatsConfig     `yaml:"stats"`
	Realtime    RealtimeConfig  `yaml:"realtime"`
	CSRFAuthKey string          `yaml:"-"`

	// TrustProxyHeaders - доверять X-Forwarded-Proto от обратного прокси при проверке CSRF.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`

	// Location - часовой пояс для «сегодня» и «этот месяц» в статистике.
	Location *time.Location `yaml:"-"`
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getStringEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
		slog.Warn("Не удалось преобразовать переменную окружения в число, используется значение по умолчанию", "key", key, "value", valueStr)
	}
	return defaultValue
}

func getBoolEnvOrDefault(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
		slog.Warn("Не удалось преобразовать переменную окружения в bool, используется значение по умолчанию", "key", key, "value", valueStr)
	}
	return defaultValue
}

// LoadConfig читает YAML, затем .env (вне production) и переменные окружения поверх файла.
// Отсутствующий файл не ошибка: всё можно задать через окружение.
func LoadConfig(filename string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load("configs/.env"); err != nil {
			slog.Info("configs/.env не найден или ошибка загрузки, используются системные переменные", "error", err)
		} else {
			slog.Info("Переменные окружения загружены из configs/.env")
		}
	}

	var cfg Config
	file, err := os.Open(filename)
	switch {
	case os.IsNotExist(err):
		slog.Warn("Файл конфигурации не найден, используются переменные окружения", "path", filename)
	case err != nil:
		return nil, fmt.Errorf("ошибка открытия файла конфигурации '%s': %w", filename, err)
	default:
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("ошибка декодирования YAML из файла '%s': %w", filename, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	slog.Info("Конфигурация загружена", "app_env", cfg.AppEnv, "base_url", cfg.BaseURL, "port", cfg.Port, "database_configured", cfg.Database.Configured(), "redis", cfg.Redis.Address != "")
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.AppEnv = getStringEnvOrDefault("APP_ENV", cfg.AppEnv)
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	isProduction := cfg.IsProduction()

	cfg.BaseURL = strings.TrimSuffix(getStringEnvOrDefault("BASE_URL", cfg.BaseURL), "/")
	cfg.Port = getIntEnvOrDefault("PORT", cfg.Port)
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "Helper Admin Panel"
	}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	cfg.Database.Host = getStringEnvOrDefault("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getIntEnvOrDefault("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getStringEnvOrDefault("DB_USER", cfg.Database.User)
	cfg.Database.DBName = getStringEnvOrDefault("DB_NAME", cfg.Database.DBName)
	cfg.Database.Password = getStringEnvOrDefault("DB_PASSWORD", "")
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 3306
	}
	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = "migrations"
	}
	if !cfg.Database.Configured() {
		slog.Warn("Параметры подключения к БД не заданы: панель будет показывать пустые данные")
	}

	cfg.Redis.Address = getStringEnvOrDefault("REDIS_ADDRESS", cfg.Redis.Address)
	cfg.Redis.Password = getStringEnvOrDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getIntEnvOrDefault("REDIS_DB", cfg.Redis.DB)
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = "helper:changes"
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = 10
	}

	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "helper_admin_session"
	}
	if cfg.Session.LifetimeHours <= 0 {
		cfg.Session.LifetimeHours = 12
	}
	if cfg.RateLimit.RPS <= 0 {
		cfg.RateLimit.RPS = 1
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 5
	}
	if cfg.Stats.DefaultMonths <= 0 {
		cfg.Stats.DefaultMonths = 6
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORS.AllowedOrigins = strings.Split(origins, ",")
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}

	cfg.TrustProxyHeaders = getBoolEnvOrDefault("TRUST_PROXY_HEADERS", cfg.TrustProxyHeaders)

	cfg.Timezone = getStringEnvOrDefault("TZ_NAME", cfg.Timezone)
	cfg.Location = time.Local
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return fmt.Errorf("неизвестный часовой пояс '%s': %w", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	cfg.CSRFAuthKey = getStringEnvOrDefault("CSRF_AUTH_KEY", "")
	if isProduction && cfg.CSRFAuthKey == "" {
		slog.Error("КРИТИЧЕСКАЯ ОШИБКА: CSRF_AUTH_KEY должен быть установлен в переменных окружения для production")
		return fmt.Errorf("CSRF_AUTH_KEY должен быть установлен в переменных окружения для production")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	if isProduction && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return fmt.Errorf("в production окружении BASE_URL должен начинаться с https://")
	}
	return nil
}

func InitLogger(appEnv string) {
	var logger *slog.Logger
	logLevel := slog.LevelInfo

	if appEnv == "development" {
		logLevel = slog.LevelDebug
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: false,
		}))
	}
	slog.SetDefault(logger)
}
