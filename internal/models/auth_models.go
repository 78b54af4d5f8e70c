package models

import "time"

// Admin is a back-office user allowed to mutate inventory.
type Admin struct {
	ID           int64     `json:"id" db:"id"`
	StoreID      int64     `json:"store_id" db:"store_id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"` // e.g. Admin, Manager
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
