package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"school-route-service/internal/adapters/repositories"
	"school-route-service/internal/config"
	"school-route-service/internal/platform/db"
	"school-route-service/internal/platform/logger"

	"go.uber.org/zap"
)

// dbtool prepares a database for the server: schema (or migrations on
// Postgres) followed by an optional roster seed.
func main() {
	seedPath := flag.String("seed", "", "rider roster JSON (defaults to SEED_PATH)")
	noSeed := flag.Bool("no-seed", false, "apply the schema only")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.AppEnv, "dbtool")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if *seedPath == "" {
		*seedPath = cfg.SeedPath
	}

	ctx := context.Background()
	dialect, _ := repositories.ParseDialect(cfg.DBDriver)

	sqlDB, err := prepare(ctx, cfg, dialect, log)
	if err != nil {
		log.Fatal("schema initialization failed", zap.Error(err))
	}
	defer sqlDB.Close()

	if *noSeed || *seedPath == "" {
		return
	}

	log.Info("seeding database...", zap.String("path", *seedPath))
	n, err := repositories.SeedFromJSON(ctx, repositories.NewSQLRiderRepository(sqlDB, dialect), *seedPath)
	if err != nil {
		log.Fatal("seeding failed", zap.Error(err))
	}
	log.Info("seeding complete", zap.Int("riders", n))
}

func prepare(ctx context.Context, cfg *config.Config, dialect repositories.Dialect, log *zap.Logger) (*sql.DB, error) {
	if dialect == repositories.Postgres {
		log.Info("applying migrations...")
		if err := repositories.Migrate(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		log.Info("migrations applied")
		return db.OpenPostgres(ctx, cfg.DatabaseURL)
	}

	sqlDB, err := db.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	log.Info("initializing database schema...", zap.String("path", cfg.DBPath))
	if err := repositories.InitSchema(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	log.Info("schema ready")

	return sqlDB, nil
}
