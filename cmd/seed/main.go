// Command main runs the database seeder for FreshPlate.
package main

import (
	"flag"
	"log"

	"freshplate/internal/config"
	"freshplate/internal/database"
	"freshplate/internal/seed"
)

func main() {
	// Parse command line flags
	numUsers := flag.Int("users", 20, "Number of users to create")
	scans := flag.Int("scans", 5, "Number of scan sessions per user")
	meals := flag.Int("meals", 30, "Number of meals per user")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d scans/user, %d meals/user, clean=%v\n",
		*numUsers, *scans, *meals, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if _, err = database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run seeder
	if err := seed.Seed(database.DB, seed.Options{
		NumUsers:     *numUsers,
		ScansPerUser: *scans,
		MealsPerUser: *meals,
		ShouldClean:  *shouldClean,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
}
