package reminder

import (
	"fmt"

	"gorm.io/gorm"
)

var reminderIndexes = map[string]string{
	"idx_reminders_status_scheduled": "CREATE INDEX IF NOT EXISTS idx_reminders_status_scheduled ON reminders(status, scheduled_time)",
	"idx_reminders_closed_at":        "CREATE INDEX IF NOT EXISTS idx_reminders_closed_at ON reminders(closed_at)",
}

// RunMigrations performs auto-migration for the reminders table.
// Re-running against an existing store is a no-op.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&Reminder{}); err != nil {
		return fmt.Errorf("failed to auto-migrate reminder tables: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func createIndexes(db *gorm.DB) error {
	for name, stmt := range reminderIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", name, err)
		}
	}
	return nil
}

// DropTables drops the reminders table (for testing cleanup)
func DropTables(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&Reminder{}); err != nil {
		return fmt.Errorf("failed to drop table reminders: %w", err)
	}
	return nil
}

// ValidateMigrations checks if the reminders table and its indexes exist
func ValidateMigrations(db *gorm.DB) error {
	migrator := db.Migrator()

	if !migrator.HasTable(&Reminder{}) {
		return fmt.Errorf("required table reminders does not exist")
	}

	for name := range reminderIndexes {
		if !migrator.HasIndex(&Reminder{}, name) {
			return fmt.Errorf("required index %s does not exist", name)
		}
	}

	return nil
}

// MigrateWithValidation runs migrations and validates the result
func MigrateWithValidation(db *gorm.DB) error {
	if err := RunMigrations(db); err != nil {
		return err
	}

	if err := ValidateMigrations(db); err != nil {
		return fmt.Errorf("migration validation failed: %w", err)
	}

	return nil
}

// GetTableStats returns reminder counts per status plus a total
func GetTableStats(db *gorm.DB) (map[string]int64, error) {
	counts, err := CountByStatus(db)
	if err != nil {
		return nil, fmt.Errorf("failed to count reminders: %w", err)
	}

	stats := map[string]int64{"reminders": 0}
	for status, n := range counts {
		stats[string(status)] = n
		stats["reminders"] += n
	}
	return stats, nil
}
