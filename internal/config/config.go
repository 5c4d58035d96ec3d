// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds everything read from the environment at process start.
type Config struct {
	Region    string `env:"REGION"                  envDefault:"eu-west-1"      validate:"required"`
	TableName string `env:"STORAGE_TDDPROJECT_NAME" envDefault:"tddproject-dev" validate:"required"`

	// Endpoint overrides the DynamoDB endpoint, e.g. DynamoDB Local.
	Endpoint string `env:"DYNAMODB_ENDPOINT" validate:"omitempty,url"`

	LogLevel    string `env:"LOG_LEVEL"   envDefault:"info"       validate:"oneof=debug info warn error"`
	Environment string `env:"ENVIRONMENT" envDefault:"production" validate:"oneof=development production"`

	// HTTPAddr is the listen address of the local dev server.
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080" validate:"required"`
}

// IsDevelopment reports whether the process runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load parses and validates the configuration.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
