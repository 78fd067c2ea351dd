package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/models"
	"github.com/example/marketplace/internal/utils"
)

func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	return notDuplicate(s.conn(ctx).Create(category).Error, "A category with this name already exists.")
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.conn(ctx).Order("name asc").Find(&categories).Error
	return categories, err
}

func (s *Store) ListItemsByUser(ctx context.Context, userID uuid.UUID) ([]models.Item, error) {
	var items []models.Item
	err := s.conn(ctx).Preload("ItemGroups").
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at desc").
		Find(&items).Error
	return items, err
}

func (s *Store) ListItems(ctx context.Context, pg utils.Pagination) ([]models.Item, int64, error) {
	query := s.conn(ctx).Model(&models.Item{}).Where("is_deleted = ?", false)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Item
	err := query.Preload("ItemGroups").Scopes(pg.Scope).Order("created_at desc").Find(&items).Error
	return items, total, err
}

func (s *Store) SearchItems(ctx context.Context, search string) ([]models.Item, error) {
	var items []models.Item
	pattern := likePattern(search)
	err := s.conn(ctx).
		Where("is_deleted = ? AND (title ILIKE ? OR description ILIKE ?)", false, pattern, pattern).
		Order("created_at desc").
		Find(&items).Error
	return items, err
}

func (s *Store) FindItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := s.conn(ctx).
		Preload("ItemGroups.Product").
		Preload("User").
		Where("is_deleted = ?", false).
		First(&item, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Item not found.")
	}
	return &item, nil
}

func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	return s.conn(ctx).Create(item).Error
}

func (s *Store) UpdateItem(ctx context.Context, item *models.Item) error {
	return s.conn(ctx).Model(item).
		Select("title", "description", "price").
		Updates(item).Error
}

// SoftDeleteItem flags an item deleted. Items still linked to a product are
// refused.
func (s *Store) SoftDeleteItem(ctx context.Context, id uuid.UUID) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var links int64
		if err := tx.Model(&models.ItemGroup{}).Where("item_id = ?", id).Count(&links).Error; err != nil {
			return err
		}
		if links > 0 {
			return apperr.Conflict("Can't delete items that have active linking to a product.")
		}
		return tx.Model(&models.Item{}).Where("id = ?", id).Update("is_deleted", true).Error
	})
}

func productDetail(db *gorm.DB) *gorm.DB {
	return db.Preload("ItemGroups.Item").
		Preload("User").
		Preload("Category").
		Preload("Ratings").
		Preload("Comments")
}

func (s *Store) ListProductsByUser(ctx context.Context, userID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	err := productDetail(s.conn(ctx)).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&products).Error
	return products, err
}

func (s *Store) ListProducts(ctx context.Context, pg utils.Pagination) ([]models.Product, int64, error) {
	query := s.conn(ctx).Model(&models.Product{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	err := query.Preload("ItemGroups").Preload("User").Preload("Ratings").
		Scopes(pg.Scope).
		Order("created_at desc").
		Find(&products).Error
	return products, total, err
}

// SearchProducts matches title, excerpt, description or an exact tag.
func (s *Store) SearchProducts(ctx context.Context, search string) ([]models.Product, error) {
	var products []models.Product
	pattern := likePattern(search)
	err := s.conn(ctx).Preload("User").Preload("Ratings").
		Where("title ILIKE ? OR excerpt ILIKE ? OR description ILIKE ? OR ? = ANY(tags)", pattern, pattern, pattern, search).
		Order("created_at desc").
		Find(&products).Error
	return products, err
}

func (s *Store) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := productDetail(s.conn(ctx)).First(&product, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Product not found.")
	}
	return &product, nil
}

// CreateProduct inserts the product and links itemIDs to it.
func (s *Store) CreateProduct(ctx context.Context, product *models.Product, itemIDs []uuid.UUID) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return err
		}
		if len(itemIDs) == 0 {
			return nil
		}

		var owned int64
		if err := tx.Model(&models.Item{}).
			Where("id IN ? AND user_id = ? AND is_deleted = ?", itemIDs, product.UserID, false).
			Count(&owned).Error; err != nil {
			return err
		}
		if int(owned) != len(itemIDs) {
			return apperr.Validation("Every item must exist and belong to you.")
		}

		groups := make([]models.ItemGroup, 0, len(itemIDs))
		for _, itemID := range itemIDs {
			groups = append(groups, models.ItemGroup{ProductID: product.ID, ItemID: itemID})
		}
		return tx.Create(&groups).Error
	})
}

func (s *Store) UpdateProduct(ctx context.Context, product *models.Product) error {
	return s.conn(ctx).Model(product).
		Select("category_id", "title", "excerpt", "description", "price", "stock", "tags").
		Updates(product).Error
}

func (s *Store) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ItemGroup{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Cart{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Wishlist{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("Product not found.")
		}
		return nil
	})
}

// UpsertRating keeps one rating per (user, product); a second call replaces
// the value.
func (s *Store) UpsertRating(ctx context.Context, rating *models.Rating) error {
	return s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(rating).Error
}

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	return s.conn(ctx).Create(comment).Error
}

// FindProductsByIDs loads the given products without associations.
func (s *Store) FindProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	err := s.conn(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}
