package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"saldobot/internal/models"
)

// ErrAmountTaken is returned when another pending intent already holds the
// settlement amount. Callers retry with a fresh disambiguation offset.
var ErrAmountTaken = errors.New("settlement amount already held by a pending intent")

// DepositRepository handles deposit intent database operations.
type DepositRepository struct {
	db *gorm.DB
}

func NewDepositRepository(db *gorm.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

// Create persists a new pending intent. The unique index on pending_amount
// is the last line of defense against two concurrent creates picking the
// same settlement amount; the collision surfaces as ErrAmountTaken.
func (r *DepositRepository) Create(intent *models.DepositIntent) error {
	err := r.db.Create(intent).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAmountTaken
	}
	return err
}

// FindPendingBySettlementAmount returns the pending intent holding the given
// settlement amount, or nil when no pending intent matches.
func (r *DepositRepository) FindPendingBySettlementAmount(amount int64) (*models.DepositIntent, error) {
	var intent models.DepositIntent
	err := r.db.Where("pending_amount = ?", amount).First(&intent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

// FindByID returns an intent regardless of status.
func (r *DepositRepository) FindByID(id string) (*models.DepositIntent, error) {
	var intent models.DepositIntent
	if err := r.db.Where("id = ?", id).First(&intent).Error; err != nil {
		return nil, err
	}
	return &intent, nil
}

// PendingAmountExists reports whether any pending intent holds the amount.
func (r *DepositRepository) PendingAmountExists(amount int64) (bool, error) {
	var count int64
	err := r.db.Model(&models.DepositIntent{}).
		Where("pending_amount = ?", amount).
		Count(&count).Error
	return count > 0, err
}

// CountPendingByUser counts outstanding intents for a user.
func (r *DepositRepository) CountPendingByUser(userID int64) (int64, error) {
	var count int64
	err := r.db.Model(&models.DepositIntent{}).
		Where("user_id = ? AND status = ?", userID, models.DepositPending).
		Count(&count).Error
	return count, err
}

// CountPending counts all outstanding intents. Logged at startup so a
// restart reports how many deposits survived the crash window.
func (r *DepositRepository) CountPending() (int64, error) {
	var count int64
	err := r.db.Model(&models.DepositIntent{}).
		Where("status = ?", models.DepositPending).
		Count(&count).Error
	return count, err
}

// LastCreatedAt returns the creation time of the user's most recent intent.
// Zero time when the user has never created one.
func (r *DepositRepository) LastCreatedAt(userID int64) (time.Time, error) {
	var intent models.DepositIntent
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&intent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return intent.CreatedAt, nil
}

// SetArtifactRef records the UI artifact handle once the QR message is sent.
func (r *DepositRepository) SetArtifactRef(id, ref string) error {
	return r.db.Model(&models.DepositIntent{}).
		Where("id = ?", id).
		Update("artifact_ref", ref).Error
}

// Delete removes an intent outright. Only used to unwind a create whose
// gateway call failed before the user ever saw an artifact.
func (r *DepositRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&models.DepositIntent{}).Error
}

// ListExpirable returns pending intents whose payment window lapsed.
func (r *DepositRepository) ListExpirable(now time.Time) ([]models.DepositIntent, error) {
	var intents []models.DepositIntent
	err := r.db.Where("status = ? AND expires_at <= ?", models.DepositPending, now).
		Find(&intents).Error
	return intents, err
}

// MarkExpired transitions a pending intent to expired and releases its
// settlement amount. Idempotent: a second call, or a call racing a completed
// credit, matches zero rows and reports false.
func (r *DepositRepository) MarkExpired(id string) (bool, error) {
	res := r.db.Model(&models.DepositIntent{}).
		Where("id = ? AND status = ?", id, models.DepositPending).
		Updates(map[string]interface{}{
			"status":         models.DepositExpired,
			"pending_amount": nil,
		})
	return res.RowsAffected > 0, res.Error
}
