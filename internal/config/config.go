package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	RepositoryInMemory = "inmemory"
	RepositoryPostgres = "postgres"
	RepositorySQLite   = "sqlite"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	SQLite     SQLiteConfig     `mapstructure:"sqlite"`
	Redis      RedisConfig      `mapstructure:"redis"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Health     HealthConfig     `mapstructure:"health"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Repository RepositoryConfig `mapstructure:"repository"`
}

type AppConfig struct {
	Version     string `mapstructure:"version"`
	Description string `mapstructure:"description"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MinConnections int           `mapstructure:"min_connections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AutoMigrate    bool          `mapstructure:"auto_migrate"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig: пустой Addr - лимитер работает в памяти
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type HealthConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type"` // "inmemory", "postgres" или "sqlite"
}

// envBindings: ключ конфигурации -> переменная окружения без префикса
var envBindings = map[string]string{
	"server.port":                    "PORT",
	"server.host":                    "HOST",
	"repository.type":                "REPOSITORY_TYPE",
	"sqlite.path":                    "SQLITE_PATH",
	"redis.addr":                     "REDIS_ADDR",
	"redis.password":                 "REDIS_PASSWORD",
	"redis.db":                       "REDIS_DB",
	"cors.allowed_origins":           "CORS_ALLOWED_ORIGINS",
	"rate_limit.requests_per_minute": "RATE_LIMIT_RPM",
	"logging.development":            "LOG_DEVELOPMENT",
	"database.url":                   "DATABASE_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.description", "Esta é API de tarefas (todos) da turma de Infoweb 2025.")

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 35*time.Second)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("sqlite.path", "tasks.db")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("rate_limit.requests_per_minute", 100)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("health.interval", 30*time.Second)
	v.SetDefault("logging.development", false)
	v.SetDefault("repository.type", RepositoryInMemory)
}

func Default() *Config {
	v := viper.New()
	setDefaults(v)

	cfg := &Config{}
	if err := v.UnmarshalExact(cfg); err != nil {
		panic(fmt.Sprintf("config: значения по умолчанию не разбираются: %v", err))
	}
	return cfg
}

// Load: значения по умолчанию, затем YAML (если файл есть), затем .env и переменные окружения.
// Любой ключ можно переопределить через TASK_API_<СЕКЦИЯ>_<КЛЮЧ>, например TASK_API_SERVER_READ_TIMEOUT.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("ошибка чтения .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
	}

	v.SetEnvPrefix("TASK_API")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("привязка %s: %w", env, err)
		}
	}

	cfg := &Config{}
	if err := v.UnmarshalExact(cfg); err != nil {
		return nil, fmt.Errorf("ошибка конфигурации: %w", err)
	}
	cfg.CORS.AllowedOrigins = trimList(cfg.CORS.AllowedOrigins)
	cfg.applyDatabaseEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDatabaseEnv собирает URL из DATABASE_HOST/PORT/USER/PASSWORD/NAME, если DATABASE_URL не задан
func (c *Config) applyDatabaseEnv() {
	env := viper.New()
	env.AutomaticEnv()
	env.SetDefault("database_port", "5432")

	if env.GetString("database_url") != "" {
		return
	}
	host := env.GetString("database_host")
	if host == "" {
		return
	}
	c.Database.URL = buildPostgresURL(
		host,
		env.GetString("database_port"),
		env.GetString("database_user"),
		env.GetString("database_password"),
		env.GetString("database_name"),
	)
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepositoryInMemory, RepositorySQLite:
	case RepositoryPostgres:
		if c.Database.URL == "" {
			return errors.New("для postgres нужен database.url или DATABASE_URL/DATABASE_HOST")
		}
	default:
		return fmt.Errorf("неизвестный тип репозитория %q", c.Repository.Type)
	}

	if c.Repository.Type == RepositorySQLite && c.SQLite.Path == "" {
		return errors.New("для sqlite нужен sqlite.path")
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.requests_per_minute должен быть положительным, получено %d", c.RateLimit.RequestsPerMinute)
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("неверный порт %q: %w", c.Server.Port, err)
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

func buildPostgresURL(host, port, user, password, name string) string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + name,
		RawQuery: "sslmode=disable",
	}
	if user != "" {
		u.User = url.UserPassword(user, password)
	}
	return u.String()
}

func trimList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
