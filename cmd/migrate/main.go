// Command migrate applies the embedded schema migrations.
//
//	migrate [-config path] [up|down|status|version|redo|reset]
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/ignite/user-ingest/internal/app"
	"github.com/ignite/user-ingest/internal/config"
	"github.com/ignite/user-ingest/internal/pkg/logger"
	"github.com/ignite/user-ingest/internal/repository/postgres"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	command, extra := "up", []string(nil)
	if flag.NArg() > 0 {
		command, extra = flag.Arg(0), flag.Args()[1:]
	}

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dbCfg := app.DatabaseConfig(cfg.Database)
	dbCfg.MaxOpenConns = 1
	pool := postgres.NewPool(dbCfg)
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database", "host", cfg.Database.Host, "database", cfg.Database.Name)

	db, err := pool.DB(ctx)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	if err := postgres.Migrate(ctx, db, command, extra...); err != nil {
		logger.Error("migration failed", "command", command, "error", err)
		os.Exit(1)
	}
	logger.Info("migration complete", "command", command)
}
