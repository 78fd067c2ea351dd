package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/models"
)

func (s *Store) CreateSession(ctx context.Context, session *models.AuthSession) error {
	return s.conn(ctx).Create(session).Error
}

// FindSession returns the live session for an access token issued to userID.
func (s *Store) FindSession(ctx context.Context, accessToken string, userID uuid.UUID) (*models.AuthSession, error) {
	var session models.AuthSession
	if err := s.conn(ctx).
		Where("access_token = ? AND user_id = ?", accessToken, userID).
		First(&session).Error; err != nil {
		return nil, notFound(err, "session not found")
	}
	return &session, nil
}

func (s *Store) FindSessionByRefresh(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	var session models.AuthSession
	if err := s.conn(ctx).Where("refresh_token = ?", refreshToken).First(&session).Error; err != nil {
		return nil, notFound(err, "session not found")
	}
	return &session, nil
}

// RotateSession swaps the token pair only while the row still holds
// oldRefresh, so a refresh token can be exchanged once.
func (s *Store) RotateSession(ctx context.Context, id uuid.UUID, oldRefresh, access, refresh string) error {
	res := s.conn(ctx).Model(&models.AuthSession{}).
		Where("id = ? AND refresh_token = ?", id, oldRefresh).
		Updates(map[string]any{"access_token": access, "refresh_token": refresh})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("session not found")
	}
	return nil
}

func (s *Store) DeleteSession(ctx context.Context, accessToken string) error {
	return s.conn(ctx).Where("access_token = ?", accessToken).Delete(&models.AuthSession{}).Error
}

// DeleteStaleSessions drops sessions not rotated since before; their refresh
// tokens have expired.
func (s *Store) DeleteStaleSessions(ctx context.Context, before time.Time) (int64, error) {
	res := s.conn(ctx).Where("updated_at < ?", before).Delete(&models.AuthSession{})
	return res.RowsAffected, res.Error
}

// DeleteUserSessions revokes every session of a user.
func (s *Store) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	return s.conn(ctx).Where("user_id = ?", userID).Delete(&models.AuthSession{}).Error
}
