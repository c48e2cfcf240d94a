package models

import "time"

// Ledger entry types.
const (
	LedgerTypeDeposit = "deposit"
)

// LedgerEntry maps to the `ledger_entries` table. Append-only; the unique
// index on ReferenceID is the double-credit guard: one real payment event
// yields exactly one row no matter how many times its evidence is delivered.
type LedgerEntry struct {
	ID          string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	UserID      int64     `gorm:"column:user_id;index" json:"user_id"`
	Amount      int64     `gorm:"column:amount" json:"amount"`
	Type        string    `gorm:"column:type;size:50" json:"type"`
	ReferenceID string    `gorm:"column:reference_id;size:200;uniqueIndex" json:"reference_id"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
