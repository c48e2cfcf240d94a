package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"saldobot/internal/models"
)

var (
	// ErrIntentNotPending means the intent was completed or expired before
	// the credit transaction could claim it. The settlement is an orphan.
	ErrIntentNotPending = errors.New("intent is no longer pending")

	// ErrDuplicateReference means a ledger entry for this payment event
	// already exists. Crediting again would double-pay.
	ErrDuplicateReference = errors.New("ledger entry with this reference already exists")
)

// CreditResult reports a successful credit for notification purposes.
type CreditResult struct {
	Intent     models.DepositIntent
	Entry      models.LedgerEntry
	NewBalance int64
}

// LedgerRepository owns the append-only ledger and the credit transaction
// that is the only writer of user balances.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// ReferenceExists reports whether a ledger entry carries the reference.
func (r *LedgerRepository) ReferenceExists(referenceID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.LedgerEntry{}).
		Where("reference_id = ?", referenceID).
		Count(&count).Error
	return count > 0, err
}

// Credit atomically converts a matched settlement into a wallet credit:
// re-check the intent is still pending under a row lock, append the ledger
// entry, bump the balance, and complete the intent. Any failure rolls the
// whole thing back so a later poll tick can retry the settlement.
func (r *LedgerRepository) Credit(intentID, referenceID string) (*CreditResult, error) {
	var result CreditResult

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var intent models.DepositIntent
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", intentID).
			First(&intent).Error; err != nil {
			return err
		}
		if intent.Status != models.DepositPending {
			return ErrIntentNotPending
		}

		entry := models.LedgerEntry{
			ID:          uuid.NewString(),
			UserID:      intent.UserID,
			Amount:      intent.RequestedAmount,
			Type:        models.LedgerTypeDeposit,
			ReferenceID: referenceID,
			CreatedAt:   time.Now(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateReference
			}
			return err
		}

		res := tx.Model(&models.User{}).
			Where("id = ?", intent.UserID).
			Update("balance", gorm.Expr("balance + ?", intent.RequestedAmount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			user := models.User{ID: intent.UserID, Balance: intent.RequestedAmount}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.DepositIntent{}).
			Where("id = ?", intent.ID).
			Updates(map[string]interface{}{
				"status":         models.DepositCompleted,
				"pending_amount": nil,
			}).Error; err != nil {
			return err
		}

		var user models.User
		if err := tx.Where("id = ?", intent.UserID).First(&user).Error; err != nil {
			return err
		}

		intent.Status = models.DepositCompleted
		intent.PendingAmount = nil
		result = CreditResult{Intent: intent, Entry: entry, NewBalance: user.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SumByUser returns the total credited amount for a user.
func (r *LedgerRepository) SumByUser(userID int64) (int64, error) {
	var sum int64
	err := r.db.Model(&models.LedgerEntry{}).
		Where("user_id = ? AND type = ?", userID, models.LedgerTypeDeposit).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error
	return sum, err
}

// SumSince returns the number and total amount of credits since a point in
// time. Feeds the daily top-up report.
func (r *LedgerRepository) SumSince(since time.Time) (count int64, total int64, err error) {
	row := struct {
		Count int64
		Total int64
	}{}
	err = r.db.Model(&models.LedgerEntry{}).
		Where("type = ? AND created_at >= ?", models.LedgerTypeDeposit, since).
		Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error
	return row.Count, row.Total, err
}

// Recent returns the newest ledger entries, most recent first.
func (r *LedgerRepository) Recent(limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []models.LedgerEntry
	err := r.db.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
