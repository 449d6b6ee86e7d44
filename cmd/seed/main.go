// Command seed loads the test profiles and department contacts into the
// MySQL store. Official profiles can only be created this way.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/iliyamo/agrirelief/internal/config"
	"github.com/iliyamo/agrirelief/internal/database"
	"github.com/iliyamo/agrirelief/internal/repository"
	"github.com/iliyamo/agrirelief/internal/seed"
)

func main() {
	withReport := flag.Bool("sample-report", false, "also create a sample Pending report for the test farmer")
	flag.Parse()

	cfg := config.Load()
	if cfg.StoreDriver != config.StoreMySQL {
		log.Fatalf("seed: STORE_DRIVER=%s; the memory store is seeded at server startup", cfg.StoreDriver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	defer db.Close()

	var reports seed.ReportStore
	if *withReport {
		reports = repository.NewReportRepo(db)
	}
	if err := seed.Run(ctx, repository.NewUserRepo(db), repository.NewContactRepo(db), reports); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seed: %d profiles and %d contacts written", len(seed.Users()), len(seed.Contacts()))
}
