package models

import "time"

// User represents a storefront account. Email and username are unique; the storage layer
// enforces it with unique indexes in addition to the signup checks.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Fullname  string    `json:"fullname" gorm:"type:varchar(255)"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash, never serialized
	Role      string    `json:"role" gorm:"type:varchar(32);not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
