// Package config loads the site's settings from the environment. A .env file
// in the working directory is read first when present.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Port         string `env:"PORT" envDefault:"8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"portfolio.db"`
	// ContentPath overrides the embedded portfolio content when set.
	ContentPath string `env:"CONTENT_PATH"`
	StaticDir   string `env:"STATIC_DIR" envDefault:"./static"`
	// ContactEmail receives contact form messages; the content file's
	// address is used when empty.
	ContactEmail string `env:"TO_EMAIL"`

	Log     LogConfig     `envPrefix:"LOG_"`
	Stats   StatsConfig   `envPrefix:"STATS_"`
	Redis   RedisConfig   `envPrefix:"REDIS_"`
	EmailJS EmailJSConfig `envPrefix:"EMAILJS_"`
	SMTP    SMTPConfig    `envPrefix:"SMTP_"`
	Admin   AdminConfig   `envPrefix:"ADMIN_"`
	OTel    OTelConfig    `envPrefix:"OTEL_"`
}

type LogConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
	JSON  bool   `env:"JSON" envDefault:"false"`
}

type StatsConfig struct {
	RefreshPeriod time.Duration `env:"REFRESH_PERIOD" envDefault:"30m"`
	FetchTimeout  time.Duration `env:"FETCH_TIMEOUT" envDefault:"8s"`
	Concurrency   int           `env:"CONCURRENCY" envDefault:"4"`
	GitHubToken   string        `env:"GITHUB_TOKEN"`
	GitHubURL     string        `env:"GITHUB_URL" envDefault:"https://api.github.com"`
	LeetCodeURL   string        `env:"LEETCODE_URL" envDefault:"https://leetcode-stats-api.herokuapp.com"`
	CodeforcesURL string        `env:"CODEFORCES_URL" envDefault:"https://codeforces.com"`
}

// RedisConfig enables the shared snapshot cache when URL is set.
type RedisConfig struct {
	URL         string        `env:"URL"`
	SnapshotTTL time.Duration `env:"SNAPSHOT_TTL" envDefault:"24h"`
}

type EmailJSConfig struct {
	ServiceID  string `env:"SERVICE_ID"`
	TemplateID string `env:"TEMPLATE_ID"`
	PublicKey  string `env:"PUBLIC_KEY"`
}

func (c EmailJSConfig) Enabled() bool {
	return c.ServiceID != "" && c.TemplateID != "" && c.PublicKey != ""
}

type SMTPConfig struct {
	Host string `env:"HOST" envDefault:"smtp.gmail.com"`
	Port string `env:"PORT" envDefault:"587"`
	User string `env:"USER"`
	Pass string `env:"PASS"`
}

func (c SMTPConfig) Enabled() bool {
	return c.User != "" && c.Pass != ""
}

type AdminConfig struct {
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	// Secret signs admin session tokens. A random one is generated when empty.
	Secret string `env:"SECRET"`
}

type OTelConfig struct {
	Endpoint string `env:"ENDPOINT"`
	Enabled  bool   `env:"ENABLED" envDefault:"true"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Stats.Concurrency < 0 {
		return Config{}, fmt.Errorf("STATS_CONCURRENCY must not be negative, got %d", cfg.Stats.Concurrency)
	}
	return cfg, nil
}
