package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/marketplace/internal/models"
)

func (s *Store) CreateCardPayment(ctx context.Context, payment *models.CardPayment) error {
	return s.conn(ctx).Create(payment).Error
}

// SetCardPaymentReference stores the gateway's flw_ref on the staging row.
func (s *Store) SetCardPaymentReference(ctx context.Context, id uuid.UUID, reference string) error {
	return s.conn(ctx).Model(&models.CardPayment{}).
		Where("id = ?", id).
		Update("reference", reference).Error
}

func (s *Store) DeleteCardPayment(ctx context.Context, id uuid.UUID) error {
	return s.conn(ctx).Delete(&models.CardPayment{}, "id = ?", id).Error
}

// DeleteStaleCardPayments drops staging rows whose OTP was never validated.
func (s *Store) DeleteStaleCardPayments(ctx context.Context, before time.Time) (int64, error) {
	res := s.conn(ctx).Where("created_at < ?", before).Delete(&models.CardPayment{})
	return res.RowsAffected, res.Error
}
