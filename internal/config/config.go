package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/georgesmithishere/prepo-monorepo-fork/internal/models"
)

// Config is the service configuration, read from the environment.
type Config struct {
	HTTPAddr     string   `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL  string   `env:"DATABASE_URL"`                   // empty keeps state in memory
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","` // empty logs events instead
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"strategy_events"`
	LogLevel     string   `env:"LOG_LEVEL" envDefault:"info"`

	StrategyID        string `env:"STRATEGY_ID" envDefault:"mock-strategy"`
	StrategyAddress   string `env:"STRATEGY_ADDRESS" envDefault:"0x00000000000000000000000000000000000000a1"`
	OwnerAddress      string `env:"OWNER_ADDRESS,required"`
	ControllerAddress string `env:"CONTROLLER_ADDRESS,required"`
	BaseTokenAddress  string `env:"BASE_TOKEN_ADDRESS" envDefault:"0x00000000000000000000000000000000000000b1"`
	VaultTokenAddress string `env:"VAULT_TOKEN_ADDRESS" envDefault:"0x00000000000000000000000000000000000000c1"`
}

// Addresses are the parsed account addresses from Config.
type Addresses struct {
	Strategy   models.Address
	Owner      models.Address
	Controller models.Address
	BaseToken  models.Address
	VaultToken models.Address
}

// Load reads an optional .env file (or the given files) and then the process
// environment. Variables already set in the environment win over file values.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) Addresses() (Addresses, error) {
	var a Addresses
	fields := []struct {
		name string
		raw  string
		dst  *models.Address
	}{
		{"STRATEGY_ADDRESS", c.StrategyAddress, &a.Strategy},
		{"OWNER_ADDRESS", c.OwnerAddress, &a.Owner},
		{"CONTROLLER_ADDRESS", c.ControllerAddress, &a.Controller},
		{"BASE_TOKEN_ADDRESS", c.BaseTokenAddress, &a.BaseToken},
		{"VAULT_TOKEN_ADDRESS", c.VaultTokenAddress, &a.VaultToken},
	}
	for _, f := range fields {
		addr, err := models.ParseAddress(f.raw)
		if err != nil {
			return Addresses{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = addr
	}
	return a, nil
}
