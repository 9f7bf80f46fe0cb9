package model

import (
	"fmt"

	"gorm.io/gorm"
)

// Role is a named access role; tokens carry the role name.
type Role struct {
	gorm.Model
	Name string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
}

// RoleNames are the roles recognised by the treatment services, in seeding order.
var RoleNames = []string{"admin", "doctor", "nurse", "patient"}

// SeedRoles inserts any missing role. Existing rows are left untouched.
func SeedRoles(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, name := range RoleNames {
			role := Role{Name: name}
			if err := tx.Where(Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
				return fmt.Errorf("seed role %s: %w", name, err)
			}
		}
		return nil
	})
}
