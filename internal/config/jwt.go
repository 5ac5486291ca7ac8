package config

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultTokenExpirationHours is how long a verification token stays valid: one year.
const DefaultTokenExpirationHours = 24 * 365

// MinSecretLength is the minimum length of the HS256 signing secret.
const MinSecretLength = 32

// JWTConfig holds configuration for signing and verifying achievement verification tokens.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// NewJWTConfig creates a JWT configuration from environment variables.
// It reads JWT_SECRET (required) and JWT_EXPIRATION_HOURS (default: one year).
func NewJWTConfig() (*JWTConfig, error) {
	return jwtConfigFrom(os.Getenv)
}

func jwtConfigFrom(getenv func(string) string) (*JWTConfig, error) {
	secret := getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but not set")
	}

	expirationHours := DefaultTokenExpirationHours
	if raw := getenv("JWT_EXPIRATION_HOURS"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRATION_HOURS: %v", err)
		}
		expirationHours = hours
	}

	cfg := &JWTConfig{
		Secret:          secret,
		ExpirationHours: expirationHours,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the secret length and expiration.
func (c *JWTConfig) Validate() error {
	if len(c.Secret) < MinSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters, got %d", MinSecretLength, len(c.Secret))
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
