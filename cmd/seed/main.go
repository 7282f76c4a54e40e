// Command main runs the demo data seeder for Chenil.
package main

import (
	"flag"
	"log"

	"chenil/internal/bootstrap"
	"chenil/internal/config"
	"chenil/internal/seed"
)

func main() {
	// Parse command line flags
	owners := flag.Int("owners", 8, "Number of owner families to create")
	maxDogs := flag.Int("max-dogs", 3, "Maximum dogs per family")
	shouldClean := flag.Bool("clean", true, "Clean directory data before seeding")
	flag.Parse()

	log.Printf("Target: %d families, up to %d dogs each, clean=%v", *owners, *maxDogs, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, _, err := bootstrap.InitRuntime(cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		Owners:          *owners,
		MaxDogsPerOwner: *maxDogs,
		ShouldClean:     *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("Seeding complete")
}
