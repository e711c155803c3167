// Package options provides configuration parsing and environment variable handling
// for the DB Pool Manager application.
package options

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Opts holds all configuration options for the DB Pool Manager application.
// It includes database connection settings, pool sizing and liveness
// configuration, the HTTP listen address, and logging configuration.
type Opts struct {
	LogLevel zerolog.Level

	DBDriver   string
	DBURL      string
	DBUsername string
	DBPassword string

	// Connection pool settings
	PoolMaxActive            int
	PoolMaxIdle              int
	PoolMaxCheckoutTime      time.Duration
	PoolWaitTime             time.Duration
	PoolMaxLocalBadTolerance int
	PoolPingEnabled          bool
	PoolPingQuery            string
	PoolPingNotUsedFor       time.Duration

	ListenAddr string
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}

// validateRequired checks if a required value is provided.
func validateRequired(name string, value *string) error {
	if *value == "" {
		return ValidationError{Field: name, Message: "this option is required"}
	}

	return nil
}

func envStringOrDefault(name, d string) string {
	if v, exists := os.LookupEnv(name); exists && v != "" {
		return v
	}

	return d
}

func envDurationOrDefault(name string, d time.Duration) (time.Duration, error) {
	raw := envStringOrDefault(name, d.String())

	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, ValidationError{
			Field:   name,
			Message: fmt.Sprintf("could not parse %q as duration: %v", raw, err),
		}
	}

	return v, nil
}

func envLogLevelOrDefault(name string, d zerolog.Level) (string, error) {
	raw := envStringOrDefault(name, d.String())

	if _, err := zerolog.ParseLevel(raw); err != nil {
		return "", ValidationError{
			Field:   name,
			Message: fmt.Sprintf("could not parse %q as log level: %v", raw, err),
		}
	}

	return raw, nil
}

func envBoolOrDefault(name string, d bool) (bool, error) {
	raw := envStringOrDefault(name, strconv.FormatBool(d))

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, ValidationError{
			Field:   name,
			Message: fmt.Sprintf("could not parse %q as bool: %v", raw, err),
		}
	}

	return v, nil
}

func envIntOrDefault(name string, d int) (int, error) {
	raw := envStringOrDefault(name, strconv.Itoa(d))

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, ValidationError{
			Field:   name,
			Message: fmt.Sprintf("could not parse %q as int: %v", raw, err),
		}
	}

	return v, nil
}

// Parse parses command line flags and environment variables to build application configuration.
// It loads from .env files, parses flags, and validates required settings.
// Returns an error if any configuration is invalid or missing required values.
func Parse() (*Opts, error) {
	if err := godotenv.Load(".env.local", ".env"); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Parse environment variables with error handling
	logLevelStr, err := envLogLevelOrDefault("LOG_LEVEL", zerolog.InfoLevel)
	if err != nil {
		return nil, err
	}

	poolMaxActive, err := envIntOrDefault("POOL_MAX_ACTIVE", 10)
	if err != nil {
		return nil, err
	}

	poolMaxIdle, err := envIntOrDefault("POOL_MAX_IDLE", 5)
	if err != nil {
		return nil, err
	}

	poolMaxCheckoutTime, err := envDurationOrDefault("POOL_MAX_CHECKOUT_TIME", 20*time.Second)
	if err != nil {
		return nil, err
	}

	poolWaitTime, err := envDurationOrDefault("POOL_WAIT_TIME", 20*time.Second)
	if err != nil {
		return nil, err
	}

	poolMaxLocalBadTolerance, err := envIntOrDefault("POOL_MAX_LOCAL_BAD_TOLERANCE", 3)
	if err != nil {
		return nil, err
	}

	poolPingEnabled, err := envBoolOrDefault("POOL_PING_ENABLED", false)
	if err != nil {
		return nil, err
	}

	poolPingNotUsedFor, err := envDurationOrDefault("POOL_PING_NOT_USED_FOR", 0)
	if err != nil {
		return nil, err
	}

	var (
		fLogLevel = flag.String("log-level", logLevelStr,
			"Log level. Valid values are: trace, debug, info, warn, error, fatal, panic.")

		fDBDriver = flag.String("db-driver", envStringOrDefault("DB_DRIVER", "sqlite3"),
			"Database driver to dial with. Currently wired: sqlite3.")
		fDBURL = flag.String("db-url", envStringOrDefault("DB_URL", ""),
			"Database URL or DSN. May contain the placeholders {username} and {password}, "+
				"expanded at dial time.")
		fDBUsername = flag.String("db-username", envStringOrDefault("DB_USERNAME", ""),
			"User the pool connects as.")
		fDBPassword = flag.String("db-password", envStringOrDefault("DB_PASSWORD", ""),
			"Password for the connect user.")

		// Connection pool configuration
		fPoolMaxActive = flag.Int("pool-max-active", poolMaxActive,
			"Maximum number of leased connections outstanding; above this, callers wait.")
		fPoolMaxIdle = flag.Int("pool-max-idle", poolMaxIdle,
			"Maximum number of parked connections; surplus connections are closed on return.")
		fPoolMaxCheckoutTime = flag.Duration("pool-max-checkout-time", poolMaxCheckoutTime,
			"Lease age past which an active lease may be forcibly reclaimed.")
		fPoolWaitTime = flag.Duration("pool-wait-time", poolWaitTime,
			"Bounded wait interval between retry sweeps when the pool is saturated.")
		fPoolMaxLocalBadTolerance = flag.Int("pool-max-local-bad-tolerance", poolMaxLocalBadTolerance,
			"Consecutive bad connections one checkout attempt tolerates before failing.")
		fPoolPingEnabled = flag.Bool("pool-ping-enabled", poolPingEnabled,
			"Probe idle connections with a ping query before serving them.")
		fPoolPingQuery = flag.String("pool-ping-query", envStringOrDefault("POOL_PING_QUERY", "SELECT 1"),
			"The liveness probe statement.")
		fPoolPingNotUsedFor = flag.Duration("pool-ping-not-used-for", poolPingNotUsedFor,
			"Minimum idle age before a probe is issued; below this the probe is skipped.")

		fListenAddr = flag.String("listen-addr", envStringOrDefault("LISTEN_ADDR", ":3000"),
			"Address the HTTP surface listens on.")
	)

	if !flag.Parsed() {
		flag.Parse()
	}

	logLevel, err := zerolog.ParseLevel(*fLogLevel)
	if err != nil {
		return nil, ValidationError{Field: "log-level", Message: err.Error()}
	}

	// Validate required fields
	if err := validateRequired("db-url", fDBURL); err != nil {
		return nil, err
	}
	if err := validateRequired("db-driver", fDBDriver); err != nil {
		return nil, err
	}

	return &Opts{
		LogLevel: logLevel,

		DBDriver:   *fDBDriver,
		DBURL:      *fDBURL,
		DBUsername: *fDBUsername,
		DBPassword: *fDBPassword,

		PoolMaxActive:            *fPoolMaxActive,
		PoolMaxIdle:              *fPoolMaxIdle,
		PoolMaxCheckoutTime:      *fPoolMaxCheckoutTime,
		PoolWaitTime:             *fPoolWaitTime,
		PoolMaxLocalBadTolerance: *fPoolMaxLocalBadTolerance,
		PoolPingEnabled:          *fPoolPingEnabled,
		PoolPingQuery:            *fPoolPingQuery,
		PoolPingNotUsedFor:       *fPoolPingNotUsedFor,

		ListenAddr: *fListenAddr,
	}, nil
}
