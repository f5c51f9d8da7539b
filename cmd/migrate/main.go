package main

import (
	"log"

	"healthtrack/backend/internal/config"
	"healthtrack/backend/internal/db"
)

func main() {
	cfg := config.Load()
	database, err := db.Open(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	log.Printf("migrations applied to %s (%s)", cfg.DBPath, cfg.DBDriver)
}
