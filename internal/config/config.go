package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Bar data providers.
const (
	ProviderYahoo = "yahoo"
	ProviderREST  = "rest"
	ProviderCSV   = "csv"
)

// Insider data providers.
const (
	InsiderCSV         = "csv"
	InsiderOpenInsider = "openinsider"
	InsiderNone        = "none"
)

// Config holds all application configuration.
type Config struct {
	Tickers  []string `yaml:"tickers"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider       string `yaml:"provider"`
		BaseURL        string `yaml:"base_url"`
		APIKey         string `yaml:"api_key"`
		BarsDir        string `yaml:"bars_dir"`
		Days           int    `yaml:"days"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"data_source"`
	Insider struct {
		Provider string `yaml:"provider"`
		Dir      string `yaml:"dir"`
		BaseURL  string `yaml:"base_url"`
	} `yaml:"insider"`
	HistoryPath string `yaml:"history_path"`
	Simulation  struct {
		Workers int `yaml:"workers"`
	} `yaml:"simulation"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	Redis struct {
		Addr       string `yaml:"addr"`
		Password   string `yaml:"password"`
		DB         int    `yaml:"db"`
		TTLMinutes int    `yaml:"ttl_minutes"`
	} `yaml:"redis"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Report struct {
		Dir string `yaml:"dir"`
	} `yaml:"report"`
	StateFile string `yaml:"state_file"`
	Proxy     string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides. A missing file or .env is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TICKERS"); v != "" {
		c.Tickers = splitTickers(v)
	}
	setString(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&c.Telegram.ChatID, "TELEGRAM_CHAT_ID")
	setString(&c.DataSource.Provider, "DATA_PROVIDER")
	setString(&c.DataSource.BaseURL, "DATA_BASE_URL")
	setString(&c.DataSource.APIKey, "DATA_API_KEY")
	setString(&c.DataSource.BarsDir, "BARS_DIR")
	setInt(&c.DataSource.Days, "DATA_DAYS")
	setString(&c.Insider.Provider, "INSIDER_PROVIDER")
	setString(&c.Insider.Dir, "INSIDER_DIR")
	setString(&c.HistoryPath, "HISTORY_PATH")
	setInt(&c.Simulation.Workers, "WORKERS")
	setString(&c.Schedule.DailyCron, "CRON_DAILY")
	setString(&c.Database.SQLitePath, "SQLITE_PATH")
	setString(&c.Database.PostgresDSN, "POSTGRES_DSN")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Metrics.Addr, "METRICS_ADDR")
	setString(&c.Report.Dir, "REPORT_DIR")
	setString(&c.StateFile, "STATE_FILE")
	setString(&c.Proxy, "HTTPS_PROXY")
}

func (c *Config) applyDefaults() {
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = ProviderYahoo
	}
	if c.DataSource.Days == 0 {
		c.DataSource.Days = 730
	}
	if c.DataSource.TimeoutSeconds == 0 {
		c.DataSource.TimeoutSeconds = 30
	}
	if c.Insider.Provider == "" {
		c.Insider.Provider = InsiderCSV
	}
	if c.Insider.Provider == InsiderCSV && c.Insider.Dir == "" {
		c.Insider.Dir = "data/insiders"
	}
	if c.Insider.Provider == InsiderOpenInsider && c.Insider.BaseURL == "" {
		c.Insider.BaseURL = "http://openinsider.com"
	}
	if c.Simulation.Workers == 0 {
		c.Simulation.Workers = 4
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 30 22 * * 1-5"
	}
	if c.Redis.TTLMinutes == 0 {
		c.Redis.TTLMinutes = 360
	}
	if c.Database.SQLitePath == "" && c.Database.PostgresDSN == "" {
		c.Database.SQLitePath = "data/insider_sentinel.db"
	}
	if c.Report.Dir == "" {
		c.Report.Dir = "data/reports"
	}
	if c.StateFile == "" {
		c.StateFile = "data/run_state.json"
	}
}

// FetchTimeout is the per-ticker fetch budget.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.DataSource.TimeoutSeconds) * time.Second
}

// CacheTTL is how long cached bars stay valid.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.TTLMinutes) * time.Minute
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if len(c.Tickers) == 0 {
		return fmt.Errorf("tickers must not be empty")
	}
	switch c.DataSource.Provider {
	case ProviderYahoo:
	case ProviderREST:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for provider %q", ProviderREST)
		}
	case ProviderCSV:
		if c.DataSource.BarsDir == "" {
			return fmt.Errorf("data_source.bars_dir is required for provider %q", ProviderCSV)
		}
	default:
		return fmt.Errorf("unknown data_source.provider %q", c.DataSource.Provider)
	}
	switch c.Insider.Provider {
	case InsiderCSV:
		if c.Insider.Dir == "" {
			return fmt.Errorf("insider.dir is required for provider %q", InsiderCSV)
		}
	case InsiderOpenInsider, InsiderNone:
	default:
		return fmt.Errorf("unknown insider.provider %q", c.Insider.Provider)
	}
	if c.DataSource.Days < 30 {
		return fmt.Errorf("data_source.days must be at least 30")
	}
	if c.Simulation.Workers < 1 {
		return fmt.Errorf("simulation.workers must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

func splitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
		*dst = n
	}
}
