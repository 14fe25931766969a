package main

import (
	"context"

	"candyshop/internal/config"
	"candyshop/internal/db"
	"candyshop/internal/logging"
	"candyshop/internal/migrate"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.New(cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	logger.Info().Msg("migrations applied")
}
