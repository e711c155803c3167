// Package main provides the entry point for the DB Pool Manager service.
// It initializes logging, parses configuration options, and starts the web server.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/netresearch/dbpool-manager/internal"
	"github.com/netresearch/dbpool-manager/internal/dbpool"
	"github.com/netresearch/dbpool-manager/internal/options"
	"github.com/netresearch/dbpool-manager/internal/sqldriver"
	"github.com/netresearch/dbpool-manager/internal/web"

	sqlite3 "github.com/mattn/go-sqlite3"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	log.Info().Msgf("DB Pool Manager %s starting...", internal.FormatVersion())

	opts, err := options.Parse()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse configuration")
	}
	log.Logger = log.Logger.Level(opts.LogLevel)

	if opts.DBDriver != "sqlite3" {
		log.Fatal().Str("driver", opts.DBDriver).Msg("unsupported database driver")
	}

	factory := sqldriver.NewFactory(&sqlite3.SQLiteDriver{}, opts.DBURL, opts.DBUsername, opts.DBPassword)
	manager := dbpool.NewManager(factory, &dbpool.Config{
		MaxActive:            opts.PoolMaxActive,
		MaxIdle:              opts.PoolMaxIdle,
		MaxCheckoutTime:      opts.PoolMaxCheckoutTime,
		WaitTime:             opts.PoolWaitTime,
		MaxLocalBadTolerance: opts.PoolMaxLocalBadTolerance,
		PingEnabled:          opts.PoolPingEnabled,
		PingQuery:            opts.PoolPingQuery,
		PingNotUsedFor:       opts.PoolPingNotUsedFor,
	})

	app, err := web.NewApp(opts, manager)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize web app")
	}

	if err := app.Listen(context.Background(), opts.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("could not start web server")
	}
}
