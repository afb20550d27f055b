package main

import (
	"context"
	"log"

	"github.com/UnknownOlympus/employees-api/internal/config"
	"github.com/UnknownOlympus/employees-api/internal/repository"
)

func main() {
	cfg := config.MustLoad()

	dbpool, dbErr := repository.NewDatabase(context.Background(), cfg.Postgres.DSN())
	if dbErr != nil {
		log.Fatalf("Failed to connect to DB: %v", dbErr)
	}
	defer dbpool.Close()

	if migrationErr := repository.Migrate(dbpool, cfg.MigrationsDir); migrationErr != nil {
		log.Fatal(migrationErr) //nolint:gocritic // pool is closed by process exit
	}

	log.Println("✅ Migrations applied successfully")
}
