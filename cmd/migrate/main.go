package main

// Run database migrations:
//   go run ./cmd/migrate            # up
//   go run ./cmd/migrate -status
//   go run ./cmd/migrate -down

import (
	"context"
	"flag"
	"log"
	"os"

	"intake-backend/internal/shared/config"
	"intake-backend/internal/shared/storage/db"
)

func main() {
	status := flag.Bool("status", false, "print migration status and exit")
	down := flag.Bool("down", false, "roll back the most recent migration")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, db.ProfileMigrate)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	switch {
	case *status:
		err = db.MigrationStatus(ctx, sqlDB)
	case *down:
		err = db.RollbackLast(ctx, sqlDB)
	default:
		err = db.RunMigrations(ctx, sqlDB)
	}
	if err != nil {
		log.Printf("migrate: %v", err)
		os.Exit(1)
	}
}
