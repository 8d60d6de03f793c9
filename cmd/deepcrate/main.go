/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/deepcrate/internal/cache"
	"github.com/friendsincode/deepcrate/internal/config"
	"github.com/friendsincode/deepcrate/internal/db"
	"github.com/friendsincode/deepcrate/internal/eventbus"
	"github.com/friendsincode/deepcrate/internal/intent"
	"github.com/friendsincode/deepcrate/internal/library"
	"github.com/friendsincode/deepcrate/internal/logging"
	"github.com/friendsincode/deepcrate/internal/planner"
)

var (
	logger zerolog.Logger
	cfg    *config.Config

	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:          "deepcrate",
	Short:        "deepcrate - DJ set sequencing and transition analysis",
	Long:         "deepcrate plans DJ sets from a described vibe, scores transitions between tracks and finds weak spots in existing sets.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	for _, warn := range cfg.LegacyEnvWarnings {
		logger.Warn().Msg(warn)
	}
	return nil
}

// openPlanner connects the database and wires a planner the same way the
// server does, so CLI writes invalidate server caches over NATS. The
// returned func releases everything.
func openPlanner() (*planner.Service, func(), error) {
	if err := loadConfig(); err != nil {
		return nil, nil, err
	}

	catalog, err := intent.LoadCatalogFile(cfg.CatalogPath)
	if err != nil {
		return nil, nil, err
	}

	database, err := db.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		_ = db.Close(database)
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}

	var resultCache *cache.Cache
	if cfg.CacheEnabled {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.RedisAddr = cfg.RedisAddr
		cacheCfg.RedisPassword = cfg.RedisPassword
		cacheCfg.RedisDB = cfg.RedisDB
		if resultCache, err = cache.New(cacheCfg, logger); err != nil {
			logger.Warn().Err(err).Msg("cache unavailable")
			resultCache = nil
		}
	}

	natsCfg := eventbus.DefaultNATSConfig()
	natsCfg.URL = cfg.NATSURL
	natsCfg.Name = "deepcrate-cli"
	bus := eventbus.NewNATSBus(natsCfg, logger)

	svc := planner.NewService(
		library.NewRepository(database),
		planner.Config{
			RiskMode:               cfg.RiskMode,
			DefaultDurationMinutes: cfg.DefaultDurationMinutes,
			MaxConcurrentAnalyses:  cfg.MaxConcurrentAnalyses,
		},
		planner.Options{Catalog: catalog, Cache: resultCache, Events: bus},
		logger,
	)

	cleanup := func() {
		if err := bus.Close(); err != nil {
			logger.Debug().Err(err).Msg("close event bus")
		}
		_ = resultCache.Close()
		if err := db.Close(database); err != nil {
			logger.Debug().Err(err).Msg("close database")
		}
	}
	return svc, cleanup, nil
}

// printJSON writes v indented. Commands use it when --json is set.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
