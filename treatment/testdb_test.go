package treatment

import (
	"fmt"
	"testing"
	"time"

	"github.com/ariebrainware/tbcare/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func gormModel(id uint) gorm.Model {
	return gorm.Model{ID: id}
}

// setupTestDB opens a uniquely named in-memory sqlite database with every
// model migrated.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb_treatment_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(model.Models()...); err != nil {
		t.Fatalf("failed to auto-migrate models: %v", err)
	}
	return db
}
