package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/marketplace/internal/apperr"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)

	return New(db), mock
}

func TestDecrementStockFloorsAtZero(t *testing.T) {
	s, mock := newMockStore(t)
	productID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET "stock"=GREATEST\(stock - \$1, 0\)`).
		WithArgs(3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Transaction(context.Background(), func(tx Tx) error {
		return tx.DecrementStock(productID, 3)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecrementStockMissingProductRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET "stock"=GREATEST`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.Transaction(context.Background(), func(tx Tx) error {
		return tx.DecrementStock(uuid.New(), 1)
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateSessionRequiresCurrentRefreshToken(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "auth_sessions" SET .* WHERE id = \$\d+ AND refresh_token = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := s.RotateSession(context.Background(), uuid.New(), "old", "access", "refresh")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCartQuantityRejectsZero(t *testing.T) {
	s, mock := newMockStore(t)

	err := s.UpdateCartQuantity(context.Background(), uuid.New(), uuid.New(), 0)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0, ClampPercent(-5))
	assert.Equal(t, 10, ClampPercent(10))
	assert.Equal(t, 100, ClampPercent(250))
}
