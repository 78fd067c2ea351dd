package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a marketplace account (customer, vendor or staff).
type User struct {
	BaseModel
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Role         Role       `gorm:"type:varchar(16);not null;default:USER" json:"role"`
	Status       UserStatus `gorm:"type:varchar(16);not null;default:PENDING;index" json:"status"`
}

// FullName joins the first and last names.
func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Verification is a one-time email verification record.
type Verification struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Email     string    `gorm:"index" json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthSession binds an issued token pair to a user. A presented token is only
// honoured while a matching row exists.
type AuthSession struct {
	BaseModel
	AccessToken  string    `gorm:"index;not null" json:"-"`
	RefreshToken string    `gorm:"index;not null" json:"-"`
	UserID       uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
}
