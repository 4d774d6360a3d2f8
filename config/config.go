package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	// DSN wins over the individual fields when set.
	DSN string `yaml:"dsn"`
}

// ConnectionString returns a libpq style connection string.
func (p PostgresConfig) ConnectionString() string {
	if p.DSN != "" {
		return p.DSN
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// RateLimit is the global request budget per second. Zero disables it.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
	PublicDir string  `yaml:"public_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ImportConfig struct {
	File     string        `yaml:"file"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
	Currency string        `yaml:"currency"`
}

type RatesConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
	// USDOverride is used when the live lookup fails.
	USDOverride string `yaml:"usd_override"`
}

// Override parses USDOverride. It returns nil when unset.
func (r RatesConfig) Override() (*decimal.Decimal, error) {
	if r.USDOverride == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(r.USDOverride)
	if err != nil {
		return nil, fmt.Errorf("USD_TO_ZAR: %w", err)
	}
	if !d.IsPositive() {
		return nil, fmt.Errorf("USD_TO_ZAR: rate must be positive, got %s", d)
	}
	return &d, nil
}

// HotDealsConfig lists the products featured by GET /api/hot-deals.
type HotDealsConfig struct {
	Slugs    []string      `yaml:"slugs"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type FlagsConfig struct {
	Interval  time.Duration `yaml:"interval"`
	InProcess bool          `yaml:"in_process"`
}

type Config struct {
	Postgres PostgresConfig `yaml:"postgres"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Import   ImportConfig   `yaml:"import"`
	Rates    RatesConfig    `yaml:"rates"`
	Flags    FlagsConfig    `yaml:"flags"`
	HotDeals HotDealsConfig `yaml:"hot_deals"`
}

func Default() *Config {
	return &Config{
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			DBName:   "postgres",
			SSLMode:  "disable",
		},
		HTTP: HTTPConfig{
			Addr:      ":8080",
			RateLimit: 50,
			RateBurst: 100,
			PublicDir: "public",
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Import: ImportConfig{
			File:     "tmp/newegg_products.csv",
			LockTTL:  20 * time.Minute,
			Currency: "ZAR",
		},
		Rates: RatesConfig{
			URL:     "https://api.exchangerate.host/latest",
			Timeout: 5 * time.Second,
		},
		Flags: FlagsConfig{Interval: 7 * 24 * time.Hour},
		HotDeals: HotDealsConfig{
			Slugs:    []string{"nzxt-h5-mini-itx-case"},
			CacheTTL: 30 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, then the optional YAML file
// named by CATALOG_CONFIG, then environment variables. A .env file in the
// working directory is read first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CATALOG_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if _, err := cfg.Rates.Override(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return yaml.NewDecoder(file).Decode(c)
}

func (c *Config) applyEnv() error {
	c.Postgres.Host = getEnv("POSTGRES_HOST", c.Postgres.Host)
	c.Postgres.Port = getEnv("POSTGRES_PORT", c.Postgres.Port)
	c.Postgres.User = getEnv("POSTGRES_USER", c.Postgres.User)
	c.Postgres.Password = getEnv("POSTGRES_PASSWORD", c.Postgres.Password)
	c.Postgres.DBName = getEnv("POSTGRES_NAME", c.Postgres.DBName)
	c.Postgres.SSLMode = getEnv("POSTGRES_SSLMODE", c.Postgres.SSLMode)
	c.Postgres.DSN = getEnv("DATABASE_DSN", c.Postgres.DSN)

	c.HTTP.Addr = getEnv("HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.PublicDir = getEnv("PUBLIC_DIR", c.HTTP.PublicDir)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Import.File = getEnv("IMPORT_FILE", c.Import.File)
	c.Import.Currency = getEnv("CURRENCY_CODE", c.Import.Currency)
	c.Rates.URL = getEnv("RATE_API_URL", c.Rates.URL)
	c.Rates.APIKey = getEnv("RATE_API_KEY", c.Rates.APIKey)
	c.Rates.USDOverride = getEnv("USD_TO_ZAR", c.Rates.USDOverride)
	if raw := os.Getenv("HOT_DEALS_SLUGS"); raw != "" {
		c.HotDeals.Slugs = splitList(raw)
	}

	return errors.Join(
		envFloat("HTTP_RATE_LIMIT", &c.HTTP.RateLimit),
		envInt("HTTP_RATE_BURST", &c.HTTP.RateBurst),
		envDuration("IMPORT_LOCK_TTL", &c.Import.LockTTL),
		envDuration("RATE_TIMEOUT", &c.Rates.Timeout),
		envDuration("FLAGS_INTERVAL", &c.Flags.Interval),
		envBool("FLAGS_IN_PROCESS", &c.Flags.InProcess),
		envDuration("HOT_DEALS_TTL", &c.HotDeals.CacheTTL),
	)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envDuration(key string, dst *time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func envFloat(key string, dst *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func envInt(key string, dst *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}
