// Package options provides configuration management for the DB Pool Manager
// application, supporting multiple configuration sources with priority-based
// resolution.
//
// # Overview
//
// This package handles all application configuration parsing from environment
// variables, command-line flags, and .env files. It provides type-safe
// configuration with validation, default values, and clear error messages for
// missing or invalid settings.
//
// Configuration sources are processed in priority order:
//
//  1. Command-line flags (highest priority)
//  2. Environment variables
//  3. .env files (.env.local, .env)
//  4. Default values (lowest priority)
//
// # Required Settings
//
// The following settings MUST be provided (via flags, env vars, or .env):
//
//	DB_URL        Database URL or DSN; may contain {username} and {password}
//	              placeholders expanded at dial time
//
// # Optional Settings
//
//	DB_DRIVER=sqlite3                     # Database driver (default: sqlite3)
//	DB_USERNAME=                          # Connect user
//	DB_PASSWORD=                          # Connect password
//	LOG_LEVEL=info                        # trace, debug, info, warn, error, fatal, panic
//	LISTEN_ADDR=:3000                     # HTTP listen address
//
// # Connection Pool Settings
//
//	POOL_MAX_ACTIVE=10                    # Cap on leased connections (default: 10)
//	POOL_MAX_IDLE=5                       # Cap on parked connections (default: 5)
//	POOL_MAX_CHECKOUT_TIME=20s            # Overdue-lease threshold (default: 20s)
//	POOL_WAIT_TIME=20s                    # Bounded wait interval (default: 20s)
//	POOL_MAX_LOCAL_BAD_TOLERANCE=3        # Per-caller bad-connection budget (default: 3)
//	POOL_PING_ENABLED=false               # Probe idle connections (default: false)
//	POOL_PING_QUERY=SELECT 1              # The probe statement
//	POOL_PING_NOT_USED_FOR=0s             # Probe cool-down (default: 0)
//
// # Environment File Format
//
// The .env file uses KEY=VALUE format (loaded via github.com/joho/godotenv).
// Two files are supported: .env.local (local overrides, not committed) and
// .env (defaults).
//
// # Validation
//
// Required fields cause Parse to return a ValidationError when missing;
// duration, boolean, and integer values are validated at parse time with
// descriptive messages.
package options
