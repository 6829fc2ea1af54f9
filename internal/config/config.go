package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Telegram TelegramConfig `envPrefix:"TELEGRAM_"`
	HTTP     HTTPConfig     `envPrefix:"HTTP_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Database DatabaseConfig `envPrefix:"DB_"`
	Admin    AdminConfig    `envPrefix:"ADMIN_"`
	ViaCEP   ViaCEPConfig   `envPrefix:"VIACEP_"`
	Estimate EstimateConfig `envPrefix:"ESTIMATE_"`
	Business BusinessConfig `envPrefix:"BUSINESS_"`
}

type TelegramConfig struct {
	// Token is optional; the chat intake is disabled without it.
	Token string `env:"TOKEN"`
	Debug bool   `env:"DEBUG" envDefault:"false"`
}

type HTTPConfig struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

type RedisConfig struct {
	Addr     string        `env:"ADDR,required,notEmpty"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	TTL      time.Duration `env:"TTL" envDefault:"24h"`
}

type DatabaseConfig struct {
	Host            string        `env:"HOST,required,notEmpty"`
	Port            int           `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER,required,notEmpty"`
	Password        string        `env:"PASSWORD,required,notEmpty"`
	Name            string        `env:"NAME,required,notEmpty"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"2m"`
	ConnectTimeout  time.Duration `env:"CONNECT_TIMEOUT" envDefault:"2m"`
	MigrateOnStart  bool          `env:"MIGRATE_ON_START" envDefault:"true"`
}

type AdminConfig struct {
	IDs       []int64 `env:"IDS" envSeparator:","`
	ChannelID int64   `env:"CHANNEL_ID"`
}

type ViaCEPConfig struct {
	BaseURL        string        `env:"BASE_URL" envDefault:"https://viacep.com.br/ws"`
	Timeout        time.Duration `env:"TIMEOUT" envDefault:"5s"`
	MaxElapsedTime time.Duration `env:"MAX_ELAPSED_TIME" envDefault:"10s"`
}

type EstimateConfig struct {
	DebounceDelay  time.Duration `env:"DEBOUNCE_DELAY" envDefault:"1s"`
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	// MaxSessions caps the live web form sessions held in memory.
	MaxSessions int `env:"MAX_SESSIONS" envDefault:"10000"`
}

type BusinessConfig struct {
	WhatsAppNumber string        `env:"WHATSAPP_NUMBER" envDefault:"5511999999999"`
	ReportsDir     string        `env:"REPORTS_DIR" envDefault:"reports"`
	LeadRateLimit  int64         `env:"LEAD_RATE_LIMIT" envDefault:"5"`
	LeadRateWindow time.Duration `env:"LEAD_RATE_WINDOW" envDefault:"1h"`
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) BotEnabled() bool {
	return c.Telegram.Token != ""
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.BotEnabled() && len(c.Admin.IDs) == 0 && c.Admin.ChannelID == 0 {
		return fmt.Errorf("at least one admin ID or an admin channel is required when the bot is enabled")
	}
	if c.Estimate.DebounceDelay < 0 {
		return fmt.Errorf("debounce delay must not be negative: %s", c.Estimate.DebounceDelay)
	}
	if c.Estimate.MaxSessions <= 0 {
		return fmt.Errorf("max sessions must be positive: %d", c.Estimate.MaxSessions)
	}
	if c.Business.LeadRateLimit <= 0 {
		return fmt.Errorf("lead rate limit must be positive: %d", c.Business.LeadRateLimit)
	}
	return nil
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}
