package repository

import (
	"fmt"
	"strings"
	"testing"

	"freshplate/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an isolated in-memory SQLite database named after the
// test, so parallel tests never share state. cache=shared keeps the database
// alive across pooled connections within one test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.HealthProfile{},
		&models.ScanSession{},
		&models.ScanHistoryEntry{},
		&models.Meal{},
		&models.MealItem{},
		&models.DailyAggregate{},
		&models.NutritionGoal{},
		&models.SavedItem{},
		&models.AIInsight{},
	))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// createTestUser inserts a user to satisfy foreign keys.
func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Password: "hashed"}
	require.NoError(t, db.Create(user).Error)
	return user
}
