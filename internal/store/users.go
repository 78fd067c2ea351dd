package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/models"
)

// FindUserByEmail expects email already normalized.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, "User not found.")
	}
	return &user, nil
}

func (s *Store) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.conn(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "User not found.")
	}
	return &user, nil
}

// CreateUser inserts the user and its first verification record together.
func (s *Store) CreateUser(ctx context.Context, user *models.User, verification *models.Verification) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return notDuplicate(err, "An account with this email already exists.")
		}
		verification.UserID = user.ID
		verification.Email = user.Email
		return tx.Create(verification).Error
	})
}

func (s *Store) CreateVerification(ctx context.Context, verification *models.Verification) error {
	return s.conn(ctx).Create(verification).Error
}

// ConsumeVerification deletes the matching unexpired verification and
// activates its user. A record can be consumed once.
func (s *Store) ConsumeVerification(ctx context.Context, id uuid.UUID, email string) (*models.User, error) {
	var user models.User
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var verification models.Verification
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND email = ? AND expires_at > ?", id, email, time.Now()).
			First(&verification).Error; err != nil {
			return notFound(err, "Verification link is invalid or has expired.")
		}

		if err := tx.Delete(&verification).Error; err != nil {
			return err
		}

		if err := tx.First(&user, "id = ?", verification.UserID).Error; err != nil {
			return notFound(err, "User not found.")
		}

		return tx.Model(&user).Update("status", models.UserStatusActive).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) UpdateUserStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) error {
	res := s.conn(ctx).Model(&models.User{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("User not found.")
	}
	return nil
}

// DeleteExpiredVerifications removes verification records past their expiry.
func (s *Store) DeleteExpiredVerifications(ctx context.Context, now time.Time) (int64, error) {
	res := s.conn(ctx).Where("expires_at <= ?", now).Delete(&models.Verification{})
	return res.RowsAffected, res.Error
}
