// Package config loads process settings from the environment.
//
// A .env file in the working directory is read first (development only;
// missing files are ignored), then variables are parsed into Config.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting. Zero-config startup uses SQLite at
// ./data/app.db and the public dictionary.
type Config struct {
	Port      string `env:"PORT" envDefault:"5175"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json | console

	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`

	DBDriver     string `env:"DB_DRIVER" envDefault:"sqlite3"` // sqlite3 | sqlite | none
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/app.db"`

	DailySalt       string `env:"DAILY_SALT" envDefault:"wordmaster-daily"`
	JWTSecret       string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	PlayerCookie    string `env:"PLAYER_COOKIE" envDefault:"wm_player"`
	PlayerTokenDays int    `env:"PLAYER_TOKEN_DAYS" envDefault:"365"`

	DictionaryURL     string        `env:"DICTIONARY_URL" envDefault:"https://api.dictionaryapi.dev/api/v2/entries/en"`
	DictionaryTimeout time.Duration `env:"DICTIONARY_TIMEOUT" envDefault:"4s"`
	DictionaryEnabled bool          `env:"DICTIONARY_ENABLED" envDefault:"true"`

	// Optional overrides for the embedded word lists, one word per line.
	AnswersFile string `env:"WORDS_ANSWERS_FILE"`
	AllowedFile string `env:"WORDS_ALLOWED_FILE"`

	HintBudget int `env:"HINT_BUDGET" envDefault:"3"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load reads .env files (if any) and parses the environment.
func Load(files ...string) (Config, error) {
	_ = godotenv.Load(files...)
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DBDriver {
	case "sqlite3", "sqlite", "none":
	default:
		return fmt.Errorf("DB_DRIVER %q: want sqlite3, sqlite or none", c.DBDriver)
	}
	if c.PlayerTokenDays <= 0 {
		return fmt.Errorf("PLAYER_TOKEN_DAYS must be positive")
	}
	if c.HintBudget < 0 {
		return fmt.Errorf("HINT_BUDGET must not be negative")
	}
	return nil
}

// TokenTTL is the lifetime of a player identity token.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.PlayerTokenDays) * 24 * time.Hour
}
