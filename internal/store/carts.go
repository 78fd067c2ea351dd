package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/models"
)

func (s *Store) CartLines(ctx context.Context, userID uuid.UUID) ([]models.Cart, error) {
	return cartLines(s.conn(ctx), userID)
}

// AddToCart increments the existing line for the product or creates one.
func (s *Store) AddToCart(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	var line models.Cart
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Select("id").First(&product, "id = ?", productID).Error; err != nil {
			return notFound(err, "Product not found.")
		}

		err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&line).Error
		switch {
		case err == nil:
			line.Quantity += quantity
			return tx.Model(&line).Update("quantity", line.Quantity).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			line = models.Cart{
				UserID:    userID,
				ProductID: productID,
				Quantity:  quantity,
				Type:      models.DefaultCartType,
			}
			return tx.Create(&line).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// UpdateCartQuantity sets the quantity of an existing line. Zero is refused;
// callers remove the line instead.
func (s *Store) UpdateCartQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity == 0 {
		return apperr.Conflict("Quantity can't be zero. Remove the product from your cart instead.")
	}
	res := s.conn(ctx).Model(&models.Cart{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Product is not in your cart.")
	}
	return nil
}

func (s *Store) RemoveFromCart(ctx context.Context, userID, productID uuid.UUID) error {
	res := s.conn(ctx).Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.Cart{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Product is not in your cart.")
	}
	return nil
}

func (s *Store) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return s.conn(ctx).Where("user_id = ?", userID).Delete(&models.Cart{}).Error
}
