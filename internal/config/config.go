package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/milepost/milepost/internal/domain"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

type Config struct {
	cloudSQLUnixSocketPath string
	dBPassword             string
	dBUsername             string
	sentryDSN              string
	gameServicesURL        string
	gameServicesAPIKey     string
	port                   string
	thresholds             domain.Thresholds
	env                    environment
}

func (c *Config) CloudSQLUnixSocketPath() string {
	return c.cloudSQLUnixSocketPath
}

func (c *Config) DBPassword() string {
	return c.dBPassword
}

func (c *Config) DBUsername() string {
	return c.dBUsername
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) GameServicesURL() string {
	return c.gameServicesURL
}

func (c *Config) GameServicesAPIKey() string {
	return c.gameServicesAPIKey
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) Thresholds() domain.Thresholds {
	return c.thresholds
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf("Config{env: %s, thresholds: %d, ...}", string(c.env), c.thresholds.Len())
}

// DefaultThresholds is the achievement table used when MILEPOST_THRESHOLDS
// is not set.
func DefaultThresholds() domain.Thresholds {
	thresholds, err := domain.NewThresholds(
		domain.Threshold{ID: "first_tap", MinScore: 1},
		domain.Threshold{ID: "ten_taps", MinScore: 10},
		domain.Threshold{ID: "hundred_taps", MinScore: 100},
	)
	if err != nil {
		panic(fmt.Errorf("logic error: invalid default thresholds: %w", err))
	}
	return thresholds
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("MILEPOST_ENVIRONMENT")
	if !ok {
		return missingKey("MILEPOST_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: MILEPOST_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}
	if string(env) == "" {
		panic("logic error: env is empty")
	}

	cloudSQLUnixSocketPath := os.Getenv("CLOUDSQL_UNIX_SOCKET")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbUsername := os.Getenv("DB_USERNAME")
	sentryDSN := os.Getenv("SENTRY_DSN")
	gameServicesURL := os.Getenv("GAMESERVICES_URL")
	gameServicesAPIKey := os.Getenv("GAMESERVICES_API_KEY")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	thresholds := DefaultThresholds()
	if rawThresholds, ok := os.LookupEnv("MILEPOST_THRESHOLDS"); ok {
		parsed, err := domain.ParseThresholds(rawThresholds)
		if err != nil {
			return Config{}, fmt.Errorf("%w: MILEPOST_THRESHOLDS: %s", ErrInvalidValue, err.Error())
		}
		thresholds = parsed
	}

	if env == production || env == staging {
		if cloudSQLUnixSocketPath == "" {
			return missingKey("CLOUDSQL_UNIX_SOCKET")
		}
		if dbUsername == "" {
			return missingKey("DB_USERNAME")
		}
		if dbPassword == "" {
			return missingKey("DB_PASSWORD")
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
		if gameServicesURL == "" {
			return missingKey("GAMESERVICES_URL")
		}
		if gameServicesAPIKey == "" {
			return missingKey("GAMESERVICES_API_KEY")
		}
	}

	return Config{
		cloudSQLUnixSocketPath: cloudSQLUnixSocketPath,
		dBPassword:             dbPassword,
		dBUsername:             dbUsername,
		sentryDSN:              sentryDSN,
		gameServicesURL:        gameServicesURL,
		gameServicesAPIKey:     gameServicesAPIKey,
		port:                   port,
		thresholds:             thresholds,
		env:                    env,
	}, nil
}
