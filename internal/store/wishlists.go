package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/models"
)

func (s *Store) ListAllWishlists(ctx context.Context) ([]models.Wishlist, error) {
	var wishlists []models.Wishlist
	err := s.conn(ctx).Preload("Product").Order("created_at desc").Find(&wishlists).Error
	return wishlists, err
}

// ListWishlistsByName returns one entry per distinct list name the user has
// created, ordered by name.
func (s *Store) ListWishlistsByName(ctx context.Context, userID uuid.UUID) ([]models.Wishlist, error) {
	var wishlists []models.Wishlist
	err := s.conn(ctx).
		Select("DISTINCT ON (wishlist_name) *").
		Preload("Product").
		Where("user_id = ?", userID).
		Order("wishlist_name asc, created_at asc").
		Find(&wishlists).Error
	return wishlists, err
}

func (s *Store) FindWishlist(ctx context.Context, id uuid.UUID) (*models.Wishlist, error) {
	var wishlist models.Wishlist
	if err := s.conn(ctx).Preload("Product").First(&wishlist, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Wishlist not found.")
	}
	return &wishlist, nil
}

func (s *Store) AddToWishlist(ctx context.Context, wishlist *models.Wishlist) error {
	var product models.Product
	if err := s.conn(ctx).Select("id").First(&product, "id = ?", wishlist.ProductID).Error; err != nil {
		return notFound(err, "Product not found.")
	}
	return s.conn(ctx).Create(wishlist).Error
}

// RemoveWishlistEntry deletes one entry owned by userID.
func (s *Store) RemoveWishlistEntry(ctx context.Context, userID, id uuid.UUID) error {
	res := s.conn(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Wishlist{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Wishlist not found.")
	}
	return nil
}

// DeleteWishlist drops every entry of the named list.
func (s *Store) DeleteWishlist(ctx context.Context, userID uuid.UUID, name string) (int64, error) {
	res := s.conn(ctx).Where("user_id = ? AND wishlist_name = ?", userID, name).Delete(&models.Wishlist{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, apperr.NotFound("Wishlist not found.")
	}
	return res.RowsAffected, nil
}
