package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"saldobot/internal/models"
)

// UserRepository handles user/wallet database operations.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure upserts the user row so deposits never dangle on a missing wallet.
func (r *UserRepository) Ensure(id int64, username string) error {
	user := models.User{ID: id, Username: username}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username"}),
	}).Create(&user).Error
}

// FindByID returns a user, or nil when unknown.
func (r *UserRepository) FindByID(id int64) (*models.User, error) {
	var user models.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetBalance returns the wallet balance, zero for unknown users.
func (r *UserRepository) GetBalance(id int64) (int64, error) {
	user, err := r.FindByID(id)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, nil
	}
	return user.Balance, nil
}
