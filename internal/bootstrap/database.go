package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	"saldobot/internal/models"
)

// Migrate ensures the reconciliation tables and their uniqueness indexes
// exist. The pending_amount and reference_id unique indexes are load-bearing
// correctness guards, not just lookup accelerators.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.DepositIntent{},
		&models.LedgerEntry{},
	); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}
