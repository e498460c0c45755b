// Package config loads stablecoin-pay's runtime configuration from the
// environment (and an optional .env file for local development).
//
// Version: v0.1.0
package config

import (
	"fmt"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// DefaultUSDCMint is the mainnet USDC mint address used when USDC_MINT is
// not set.
const DefaultUSDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

const defaultWebhookSecret = "default-webhook-secret-change-in-production"

// Environment distinguishes production from everything else; only
// production disables the dev-only /apy/refresh endpoint.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// Config is the unified runtime configuration for the service.
type Config struct {
	DatabaseURL   string
	SolanaRPCURL  string
	USDCMint      string
	Port          string
	WebhookSecret string
	Environment   Environment
}

// IsProduction reports whether dev-only surfaces should be disabled.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Load reads configuration from the process environment, optionally
// merging a local .env file first. Missing DATABASE_URL is a hard error;
// everything else has a documented default.
func Load() (*Config, error) {
	// Best effort: a missing .env file is normal outside local dev.
	_ = godotenv.Load()

	viper.AutomaticEnv()

	databaseURL := viper.GetString("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	rpcURL := viper.GetString("SOLANA_RPC_URL")
	if key := viper.GetString("HELIUS_API_KEY"); key != "" {
		rpcURL = fmt.Sprintf("https://mainnet.helius-rpc.com/?api-key=%s", key)
	}
	if rpcURL == "" {
		rpcURL = "https://api.mainnet-beta.solana.com"
	}

	usdcMint := viper.GetString("USDC_MINT")
	if usdcMint == "" {
		usdcMint = DefaultUSDCMint
	}

	port := viper.GetString("PORT")
	if port == "" {
		port = "3000"
	} else if _, err := strconv.Atoi(port); err != nil {
		return nil, fmt.Errorf("PORT must be a valid number: %w", err)
	}

	webhookSecret := viper.GetString("WEBHOOK_SECRET")
	if webhookSecret == "" {
		webhookSecret = defaultWebhookSecret
	}

	env := EnvDevelopment
	switch viper.GetString("ENVIRONMENT") {
	case "production", "prod":
		env = EnvProduction
	}

	return &Config{
		DatabaseURL:   databaseURL,
		SolanaRPCURL:  rpcURL,
		USDCMint:      usdcMint,
		Port:          port,
		WebhookSecret: webhookSecret,
		Environment:   env,
	}, nil
}
