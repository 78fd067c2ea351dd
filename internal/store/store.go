// Package store is the gorm-backed data access layer. Operations that must
// commit together run through Transaction and the Tx interface.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/marketplace/internal/apperr"
)

// Store wraps an injected gorm handle. It holds no package-level state.
type Store struct {
	db *gorm.DB
}

// New builds a Store over an open connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Ping checks database connectivity for the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Transaction runs fn inside a database transaction. Returning an error rolls
// every write back.
func (s *Store) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&txStore{db: db})
	})
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// notFound replaces gorm's generic miss with a caller-facing message.
func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(msg)
	}
	return err
}

func likePattern(search string) string {
	return "%" + search + "%"
}

// notDuplicate maps a unique-constraint violation to a conflict.
func notDuplicate(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict(msg)
	}
	return err
}
