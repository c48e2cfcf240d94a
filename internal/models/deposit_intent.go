package models

import "time"

// DepositStatus is the lifecycle state of a deposit intent.
// Transitions are monotonic: pending -> completed or pending -> expired.
type DepositStatus string

const (
	DepositPending   DepositStatus = "pending"
	DepositCompleted DepositStatus = "completed"
	DepositExpired   DepositStatus = "expired"
)

// DepositIntent maps to the `deposit_intents` table.
// PendingAmount mirrors SettlementAmount while the intent is pending and is
// set to NULL on a terminal transition. The unique index on it is what keeps
// settlement amounts unambiguous among outstanding intents (MySQL permits
// any number of NULLs in a unique index), and frees the amount for reuse
// once the intent completes or expires.
type DepositIntent struct {
	ID               string        `gorm:"column:id;primaryKey;size:100" json:"id"`
	UserID           int64         `gorm:"column:user_id;index" json:"user_id"`
	RequestedAmount  int64         `gorm:"column:requested_amount" json:"requested_amount"`
	SettlementAmount int64         `gorm:"column:settlement_amount" json:"settlement_amount"`
	PendingAmount    *int64        `gorm:"column:pending_amount;uniqueIndex" json:"-"`
	Status           DepositStatus `gorm:"column:status;size:20;index" json:"status"`
	ArtifactRef      string        `gorm:"column:artifact_ref;size:200" json:"artifact_ref"`
	CreatedAt        time.Time     `gorm:"column:created_at" json:"created_at"`
	ExpiresAt        time.Time     `gorm:"column:expires_at;index" json:"expires_at"`
}

func (DepositIntent) TableName() string {
	return "deposit_intents"
}

// Fee is the disambiguation offset the payer covers on top of the nominal.
func (d *DepositIntent) Fee() int64 {
	return d.SettlementAmount - d.RequestedAmount
}
