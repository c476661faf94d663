package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/pipeline-graph/engine/internal/repository"
	"github.com/pipeline-graph/engine/pkg/config"
	"github.com/pipeline-graph/engine/pkg/database"
	"github.com/pipeline-graph/engine/pkg/logger"
)

func main() {
	cfg := config.MustLoad()
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.Open(ctx, cfg.DatabaseURL, database.Options{Logger: log, Verbose: true})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	if err := repository.Migrate(ctx, db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	if missing := missingTables(db); len(missing) > 0 {
		log.Fatal("migration incomplete", zap.Strings("missing", missing))
	}

	fmt.Fprintln(os.Stdout, "migrations completed")
}
