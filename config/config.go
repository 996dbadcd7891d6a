package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	StorageSQLite   = "sqlite"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"

	ReconnectNone    = "none"
	ReconnectBackoff = "backoff"
)

// Duration accepts Go duration strings ("10m") in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type (
	Postgres struct {
		User   string `yaml:"user"`
		Pass   string `yaml:"pass"`
		Host   string `yaml:"host"`
		Port   string `yaml:"port"`
		DBName string `yaml:"db_name"`
	}

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	}

	SQLite struct {
		Path string `yaml:"path"`
	}

	Storage struct {
		Backend  string   `yaml:"backend"`
		SQLite   SQLite   `yaml:"sqlite"`
		Redis    Redis    `yaml:"redis"`
		Postgres Postgres `yaml:"postgres"`
	}

	ServerConfig struct {
		Port   string `yaml:"port"`
		Host   string `yaml:"host"`
		LogLvl string `yaml:"log_level"`
	}

	Exchanges struct {
		BinanceURL        string   `yaml:"binance_url"`
		CoinbaseURL       string   `yaml:"coinbase_url"`
		OKXURL            string   `yaml:"okx_url"`
		PingInterval      Duration `yaml:"ping_interval"`
		ReconnectPolicy   string   `yaml:"reconnect_policy"`
		ReconnectMaxDelay Duration `yaml:"reconnect_max_delay"`
	}

	AI struct {
		APIKey           string   `yaml:"api_key"`
		Model            string   `yaml:"model"`
		AnalysisCacheTTL Duration `yaml:"analysis_cache_ttl"`
		NewsCacheTTL     Duration `yaml:"news_cache_ttl"`
		AnalysisInterval Duration `yaml:"analysis_refresh_interval"`
		NewsInterval     Duration `yaml:"news_refresh_interval"`
		MaxAttempts      int      `yaml:"max_attempts"`
		InitialBackoff   Duration `yaml:"initial_backoff"`
	}

	Config struct {
		Server    ServerConfig `yaml:"server"`
		Storage   Storage      `yaml:"storage"`
		Exchanges Exchanges    `yaml:"exchanges"`
		AI        AI           `yaml:"ai"`
	}
)

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Host: "0.0.0.0", LogLvl: "dev"},
		Storage: Storage{
			Backend: StorageSQLite,
			SQLite:  SQLite{Path: "cryptoradar.db"},
			Redis:   Redis{Addr: "localhost:6379"},
			Postgres: Postgres{
				User: "postgres", Pass: "postgres", Host: "localhost", Port: "5432", DBName: "cryptoradar",
			},
		},
		Exchanges: Exchanges{
			PingInterval:      Duration(25 * time.Second),
			ReconnectPolicy:   ReconnectNone,
			ReconnectMaxDelay: Duration(30 * time.Second),
		},
		AI: AI{
			AnalysisCacheTTL: Duration(10 * time.Minute),
			NewsCacheTTL:     Duration(20 * time.Minute),
			AnalysisInterval: Duration(10 * time.Minute),
			NewsInterval:     Duration(15 * time.Minute),
			MaxAttempts:      3,
			InitialBackoff:   Duration(2 * time.Second),
		},
	}
}

// LoadConfig layers defaults, an optional YAML file named by CONFIG_FILE and
// the environment (a local .env file is loaded first when present).
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Server.LogLvl = getEnv("LOG_LVL", cfg.Server.LogLvl)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.Host = getEnv("HOST", cfg.Server.Host)

	cfg.Storage.Backend = getEnv("STORAGE_BACKEND", cfg.Storage.Backend)
	cfg.Storage.SQLite.Path = getEnv("SQLITE_PATH", cfg.Storage.SQLite.Path)
	cfg.Storage.Redis.Addr = getEnv("REDIS_ADDR", cfg.Storage.Redis.Addr)
	cfg.Storage.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Storage.Redis.Password)
	cfg.Storage.Redis.DB = getEnvInt("REDIS_DB", cfg.Storage.Redis.DB)
	cfg.Storage.Postgres.User = getEnv("DB_USER", cfg.Storage.Postgres.User)
	cfg.Storage.Postgres.Pass = getEnv("DB_PASS", cfg.Storage.Postgres.Pass)
	cfg.Storage.Postgres.Host = getEnv("DB_HOST", cfg.Storage.Postgres.Host)
	cfg.Storage.Postgres.Port = getEnv("DB_PORT", cfg.Storage.Postgres.Port)
	cfg.Storage.Postgres.DBName = getEnv("DB_NAME", cfg.Storage.Postgres.DBName)

	cfg.Exchanges.BinanceURL = getEnv("BINANCE_WS_URL", cfg.Exchanges.BinanceURL)
	cfg.Exchanges.CoinbaseURL = getEnv("COINBASE_WS_URL", cfg.Exchanges.CoinbaseURL)
	cfg.Exchanges.OKXURL = getEnv("OKX_WS_URL", cfg.Exchanges.OKXURL)
	cfg.Exchanges.PingInterval = getEnvDuration("WS_PING_INTERVAL", cfg.Exchanges.PingInterval)
	cfg.Exchanges.ReconnectPolicy = getEnv("RECONNECT_POLICY", cfg.Exchanges.ReconnectPolicy)
	cfg.Exchanges.ReconnectMaxDelay = getEnvDuration("RECONNECT_MAX_DELAY", cfg.Exchanges.ReconnectMaxDelay)

	cfg.AI.APIKey = getEnv("GEMINI_API_KEY", getEnv("API_KEY", cfg.AI.APIKey))
	cfg.AI.Model = getEnv("GEMINI_MODEL", cfg.AI.Model)
	cfg.AI.AnalysisCacheTTL = getEnvDuration("ANALYSIS_CACHE_TTL", cfg.AI.AnalysisCacheTTL)
	cfg.AI.NewsCacheTTL = getEnvDuration("NEWS_CACHE_TTL", cfg.AI.NewsCacheTTL)
	cfg.AI.AnalysisInterval = getEnvDuration("ANALYSIS_REFRESH_INTERVAL", cfg.AI.AnalysisInterval)
	cfg.AI.NewsInterval = getEnvDuration("NEWS_REFRESH_INTERVAL", cfg.AI.NewsInterval)
	cfg.AI.MaxAttempts = getEnvInt("AI_MAX_ATTEMPTS", cfg.AI.MaxAttempts)
	cfg.AI.InitialBackoff = getEnvDuration("AI_INITIAL_BACKOFF", cfg.AI.InitialBackoff)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case StorageSQLite, StorageRedis, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Exchanges.ReconnectPolicy {
	case ReconnectNone, ReconnectBackoff:
	default:
		return fmt.Errorf("unknown reconnect policy %q", c.Exchanges.ReconnectPolicy)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}

	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue Duration) Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return Duration(v)
}
