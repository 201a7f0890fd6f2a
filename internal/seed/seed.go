package seed

import (
	"fmt"
	"log"
	"time"

	"freshplate/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers     int
	ScansPerUser int
	MealsPerUser int
	ShouldClean  bool
}

// Seed populates the database with test data: users with health profiles,
// scan sessions with history, meals spread over the last two weeks, the
// matching daily aggregate rows, and a nutrition goal per user.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users (%d scans, %d meals each)...",
		opts.NumUsers, opts.ScansPerUser, opts.MealsPerUser)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	factory := NewFactory(db)

	users, err := createUsers(db, factory, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d test users created", len(users))

	for i := range users {
		user := &users[i]

		if _, err := factory.CreateHealthProfile(user); err != nil {
			return fmt.Errorf("failed to create profile for user %d: %w", user.ID, err)
		}

		for j := 0; j < opts.ScansPerUser; j++ {
			if _, err := factory.CreateScanSession(user); err != nil {
				return fmt.Errorf("failed to create scan for user %d: %w", user.ID, err)
			}
		}

		meals := make([]*models.Meal, 0, opts.MealsPerUser)
		for j := 0; j < opts.MealsPerUser; j++ {
			meal, err := factory.CreateMeal(user)
			if err != nil {
				return fmt.Errorf("failed to create meal for user %d: %w", user.ID, err)
			}
			meals = append(meals, meal)
		}

		if err := buildAggregates(db, user.ID, meals); err != nil {
			return fmt.Errorf("failed to build aggregates for user %d: %w", user.ID, err)
		}

		if _, err := factory.CreateGoal(user, 30); err != nil {
			return fmt.Errorf("failed to create goal for user %d: %w", user.ID, err)
		}
	}
	log.Printf("✓ profiles, scans, meals, aggregates, and goals created")

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

// buildAggregates rolls the seeded meals up into daily aggregate rows, the
// same sums the write path maintains transactionally at runtime.
func buildAggregates(db *gorm.DB, userID uint, meals []*models.Meal) error {
	type bucket struct {
		totals models.Nutrients
		count  int
	}
	days := make(map[time.Time]*bucket)
	for _, meal := range meals {
		day := meal.LoggedAt.UTC().Truncate(24 * time.Hour)
		b, ok := days[day]
		if !ok {
			b = &bucket{}
			days[day] = b
		}
		b.totals = b.totals.Add(meal.NutrientTotals())
		b.count++
	}

	for day, b := range days {
		row := models.DailyAggregate{
			UserID:     userID,
			DayDate:    day,
			Totals:     datatypes.NewJSONType(b.totals.Round()),
			MealsCount: b.count,
		}
		if err := db.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	sql := `TRUNCATE TABLE ai_insights, saved_items, nutrition_goals, daily_aggregates, meal_items, meals, scan_history_entries, scan_sessions, health_profiles, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func createUsers(db *gorm.DB, factory *Factory, count int) ([]models.User, error) {
	users := make([]models.User, 0, count)

	// Always include some specific users for consistency if cleaning
	if count >= 2 {
		for _, email := range []string{"test@example.com", "demo@example.com"} {
			e := email
			user, err := factory.CreateUser(func(u *models.User) {
				u.Email = e
			})
			if err != nil {
				// already present from a prior run, fetch instead
				var existing models.User
				if ferr := db.Where("email = ?", e).First(&existing).Error; ferr != nil {
					return nil, err
				}
				user = &existing
			}
			users = append(users, *user)
		}
	}

	for len(users) < count {
		user, err := factory.CreateUser()
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, nil
}
