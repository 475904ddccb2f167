package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"ms-gallery/internal/config"
	"ms-gallery/internal/database"
	"ms-gallery/internal/database/migrations"
	"ms-gallery/internal/logger"
)

func main() {
	down := flag.Bool("down", false, "roll back every migration")
	seed := flag.Bool("seed", false, "apply the seed migrations after the schema")
	reset := flag.Bool("reset", false, "drop the gallery tables before migrating")
	dir := flag.String("dir", "", "read migrations from this directory instead of the embedded set")
	flag.Parse()

	log := logger.NewLogger()
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()
	if cfg.Database.DSN == "" {
		log.Fatal("CONFIG", "POSTGRES_DSN not set")
	}

	ctx := context.Background()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN)))
	defer sqldb.Close()

	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to database: %v", err))
	}
	db := bun.NewDB(sqldb, pgdialect.New())

	if *reset {
		log.Info("MIGRATION", "Dropping tables...")
		if err := database.DropSchema(ctx, db); err != nil {
			log.Fatal("MIGRATION", fmt.Sprintf("Failed to drop tables: %v", err))
		}
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS schema_migrations"); err != nil {
			log.Fatal("MIGRATION", fmt.Sprintf("Failed to drop migration history: %v", err))
		}
	}

	migrationsDir := *dir
	if migrationsDir == "" {
		migrationsDir = cfg.Database.MigrationsDir
	}
	runner := migrations.NewRunner(db, migrations.MigrateOptions{MigrationsDir: migrationsDir, SeedData: *seed}, log)
	defer runner.Close()

	if err := runner.Initialize(); err != nil {
		log.Fatal("MIGRATION", fmt.Sprintf("Failed to initialize migrations: %v", err))
	}

	if *down {
		log.Info("MIGRATION", "Rolling back migrations...")
		if err := runner.MigrateDown(); err != nil {
			log.Fatal("MIGRATION", err.Error())
		}
		log.Info("MIGRATION", "✅ Rolled back.")
		return
	}

	if err := runner.RunMigrations(); err != nil {
		log.Fatal("MIGRATION", err.Error())
	}
	log.Info("MIGRATION", "✅ Done.")
}
