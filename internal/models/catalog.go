package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Category struct {
	BaseModel
	Name        string    `gorm:"uniqueIndex" json:"name"`
	Description string    `json:"description"`
	Products    []Product `json:"products,omitempty"`
}

// Item is a vendor-owned component that can be grouped into products.
type Item struct {
	BaseModel
	UserID      uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	User        *User           `json:"user,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	IsDeleted   bool            `gorm:"index" json:"is_deleted"`
	ItemGroups  []ItemGroup     `json:"item_group,omitempty"`
}

// Product is the sellable unit. Stock never goes below zero.
type Product struct {
	BaseModel
	UserID      uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	User        *User           `json:"user,omitempty"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	Category    *Category       `json:"category,omitempty"`
	Title       string          `json:"title"`
	Excerpt     string          `json:"excerpt"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2)" json:"price"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Tags        pq.StringArray  `gorm:"type:text[]" json:"tags"`
	ItemGroups  []ItemGroup     `json:"item_group,omitempty"`
	Ratings     []Rating        `json:"ratings,omitempty"`
	Comments    []Comment       `json:"comments,omitempty"`
}

// ItemGroup links an item to a product.
type ItemGroup struct {
	BaseModel
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
	ItemID    uuid.UUID `gorm:"type:uuid;index" json:"item_id"`
	Item      *Item     `json:"item,omitempty"`
}

type Rating struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_rating_user_product" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_rating_user_product" json:"product_id"`
	Value     int       `json:"value"`
}

type Comment struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Body      string    `json:"body"`
}

type Wishlist struct {
	BaseModel
	UserID       uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	ProductID    uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Product      *Product  `json:"product,omitempty"`
	WishlistName string    `gorm:"index" json:"wishlist_name"`
}
