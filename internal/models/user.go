package models

import "time"

// User maps to the `users` table.
// Primary key is the Telegram chat ID. Balance is the wallet balance in
// rupiah and is only ever mutated inside the credit transaction that also
// appends the matching ledger entry.
type User struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Username  string    `gorm:"column:username;size:300" json:"username"`
	Balance   int64     `gorm:"column:balance;default:0" json:"balance"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
