//go:build integration

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/database"
	"github.com/example/marketplace/internal/logging"
	"github.com/example/marketplace/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "marketplace",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/marketplace?sslmode=disable", host, port.Port())
	conn, err := database.Open(dsn, logging.Discard())
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := database.Close(conn); err != nil {
			t.Logf("close database: %v", err)
		}
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	return New(conn)
}

func seedProduct(t *testing.T, s *Store, stock int) (*models.User, *models.Product) {
	t.Helper()
	ctx := context.Background()

	vendor := &models.User{
		Email:        uuid.NewString() + "@vendor.test",
		PasswordHash: "x",
		FirstName:    "Vee",
		Role:         models.RoleVendor,
		Status:       models.UserStatusActive,
	}
	require.NoError(t, s.CreateUser(ctx, vendor, &models.Verification{ExpiresAt: time.Now().Add(time.Hour)}))

	product := &models.Product{
		UserID: vendor.ID,
		Title:  "Lamp",
		Price:  decimal.NewFromInt(10),
		Stock:  stock,
	}
	require.NoError(t, s.CreateProduct(ctx, product, nil))
	return vendor, product
}

func TestIntegrationStockFloorsAtZero(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	_, product := seedProduct(t, s, 1)

	err := s.Transaction(ctx, func(tx Tx) error {
		return tx.DecrementStock(product.ID, 3)
	})
	require.NoError(t, err)

	reloaded, err := s.FindProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Stock)
}

func TestIntegrationDiscountRedeemedOnce(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	user, _ := seedProduct(t, s, 5)

	discount := &models.Discount{Code: "SAVE10", Name: "Ten off", Percent: 10, EndsAt: time.Now().Add(24 * time.Hour)}
	require.NoError(t, s.CreateDiscount(ctx, discount))

	var first, second bool
	require.NoError(t, s.Transaction(ctx, func(tx Tx) error {
		var err error
		first, err = tx.RedeemDiscount(user.ID, discount.ID)
		return err
	}))
	require.NoError(t, s.Transaction(ctx, func(tx Tx) error {
		var err error
		second, err = tx.RedeemDiscount(user.ID, discount.ID)
		return err
	}))

	assert.True(t, first)
	assert.False(t, second)
}

func TestIntegrationCardPaymentTakenOnce(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	user, product := seedProduct(t, s, 5)

	payment := &models.CardPayment{UserID: user.ID, Total: decimal.NewFromInt(20)}
	require.NoError(t, payment.SetSnapshot(models.CartSnapshot{
		Lines: []models.SnapshotLine{{ProductID: product.ID, Quantity: 2, UnitPrice: product.Price}},
	}))
	require.NoError(t, s.CreateCardPayment(ctx, payment))

	require.NoError(t, s.Transaction(ctx, func(tx Tx) error {
		taken, err := tx.TakeCardPayment(payment.ID)
		if err != nil {
			return err
		}
		snapshot, err := taken.DecodeSnapshot()
		if err != nil {
			return err
		}
		assert.Len(t, snapshot.Lines, 1)
		return nil
	}))

	err := s.Transaction(ctx, func(tx Tx) error {
		_, err := tx.TakeCardPayment(payment.ID)
		return err
	})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestIntegrationRatingUpsert(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	user, product := seedProduct(t, s, 1)

	require.NoError(t, s.UpsertRating(ctx, &models.Rating{UserID: user.ID, ProductID: product.ID, Value: 2}))
	require.NoError(t, s.UpsertRating(ctx, &models.Rating{UserID: user.ID, ProductID: product.ID, Value: 5}))

	reloaded, err := s.FindProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Ratings, 1)
	assert.Equal(t, 5, reloaded.Ratings[0].Value)
}
