// Package version provides build-time information and version management for
// the DB Pool Manager application.
//
// # Overview
//
// This package manages application version metadata that is injected at build
// time using Go's -ldflags. It provides three pieces of information: semantic
// version, git commit hash, and build timestamp.
//
// # Build-Time Injection
//
// Version information is injected during the build process:
//
//	go build -ldflags="\
//	  -X 'github.com/netresearch/dbpool-manager/internal/version.Version=v1.0.0' \
//	  -X 'github.com/netresearch/dbpool-manager/internal/version.CommitHash=$(git rev-parse --short HEAD)' \
//	  -X 'github.com/netresearch/dbpool-manager/internal/version.BuildTimestamp=$(date -u +%Y-%m-%dT%H:%M:%SZ)' \
//	" ./cmd/dbpool-manager
//
// Default values ("dev", "n/a", "n/a") are used for development builds when
// -ldflags are not provided.
//
// # Usage
//
// Display version information in the application:
//
//	log.Info().Msgf("DB Pool Manager %s starting...", version.FormatVersion())
//
// The /version HTTP endpoint exposes the same three variables for monitoring
// systems.
package version
