package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"gorm.io/gorm"
)

type SchemaMigration struct {
	ID        uint   `gorm:"primaryKey"`
	Version   string `gorm:"uniqueIndex;size:255"`
	AppliedAt string
}

// RunMigrations applies the hand-written SQL files in dir that target the
// current dialect (NNN_name.<dialect>.sql), once each.
func RunMigrations(db *gorm.DB, dir string) error {
	if err := db.AutoMigrate(&SchemaMigration{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	pattern := fmt.Sprintf("*.%s.sql", db.Dialector.Name())
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		filename := filepath.Base(file)

		var existing SchemaMigration
		if err := db.Where("version = ?", filename).First(&existing).Error; err == nil {
			log.Printf("⏭️  Skipping migration: %s (already applied)", filename)
			continue
		}

		sqlContent, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", filename, err)
		}

		log.Printf("▶️  Applying migration: %s", filename)
		if err := db.Exec(string(sqlContent)).Error; err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}

		migration := SchemaMigration{
			Version:   filename,
			AppliedAt: fmt.Sprintf("%v", db.NowFunc()),
		}
		if err := db.Create(&migration).Error; err != nil {
			return fmt.Errorf("failed to record migration %s: %w", filename, err)
		}

		log.Printf("✅ Applied migration: %s", filename)
	}

	return nil
}

func AppliedMigrations(db *gorm.DB) ([]SchemaMigration, error) {
	var migrations []SchemaMigration
	if err := db.Order("version ASC").Find(&migrations).Error; err != nil {
		return nil, err
	}
	return migrations, nil
}
