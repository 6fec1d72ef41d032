package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string        `env:"ADDR" envDefault:":8080"`
	DatabaseDSN     string        `env:"DATABASE_DSN" envDefault:"bracketiq.db?_journal_mode=WAL"`
	MigrationsDir   string        `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	SessionLifetime time.Duration `env:"SESSION_LIFETIME" envDefault:"24h"`
}

// Load reads .env if present, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalln("Failed to parse config:", err)
	}
	return cfg
}
