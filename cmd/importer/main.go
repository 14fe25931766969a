package main

import (
	"context"
	"flag"
	"os"
	"time"

	"candyshop/internal/config"
	"candyshop/internal/db"
	"candyshop/internal/importer"
	"candyshop/internal/logging"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to JSON catalog export")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := logging.New(cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open file")
	}
	defer f.Close()

	imp := importer.NewJSONImporter(f, importer.NewPostgresWriter(pool))

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("import failed")
	}

	logger.Info().Int("products", count).Dur("took", time.Since(start)).Msg("import complete")
}
