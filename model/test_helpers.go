package model

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens a private in-memory sqlite database named after prefix
// and migrates models into it. Passing no models migrates everything in
// Models().
func setupTestDB(t *testing.T, prefix string, models ...interface{}) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:tbcare_%s_%d?mode=memory&cache=shared", prefix, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite %s: %v", prefix, err)
	}
	if len(models) == 0 {
		models = Models()
	}
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("migrate %s: %v", prefix, err)
	}
	return db
}
