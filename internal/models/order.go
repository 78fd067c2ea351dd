package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCartType labels ordinary cart lines.
const DefaultCartType = "CART"

// Cart is one (product, quantity) line awaiting checkout.
type Cart struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Product   *Product  `json:"product,omitempty"`
	Quantity  int       `json:"quantity"`
	Type      string    `json:"type"`
}

// OrderGroup is the shipping envelope of one checkout.
type OrderGroup struct {
	BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Address     string    `json:"address"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	Orders      []Order   `json:"orders,omitempty"`
}

type Order struct {
	BaseModel
	OrderGroupID uuid.UUID   `gorm:"type:uuid;index" json:"order_group_id"`
	OrderGroup   *OrderGroup `json:"order_group,omitempty"`
	ProductID    uuid.UUID   `gorm:"type:uuid;index" json:"product_id"`
	Product      *Product    `json:"product,omitempty"`
	Quantity     int         `json:"quantity"`
	Status       OrderStatus `gorm:"type:varchar(16);index" json:"status"`
	Invoice      *Invoice    `json:"invoice,omitempty"`
}

// Invoice is the billing record of a single order.
type Invoice struct {
	BaseModel
	OrderID             uuid.UUID       `gorm:"type:uuid;uniqueIndex" json:"order_id"`
	Order               *Order          `json:"order,omitempty"`
	Amount              decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	PaymentMethod       PaymentMethod   `gorm:"type:varchar(8)" json:"payment_method"`
	PaymentStatus       PaymentStatus   `gorm:"type:varchar(16)" json:"payment_status"`
	VendorPaymentStatus PaymentStatus   `gorm:"type:varchar(16);default:NOT_PAID" json:"vendor_payment_status"`
}

type Discount struct {
	BaseModel
	Code    string    `gorm:"uniqueIndex" json:"discount_code"`
	Name    string    `json:"discount_name"`
	Percent int       `json:"percent"`
	EndsAt  time.Time `json:"ends"`
}

// Active reports whether the discount can still be redeemed at now.
func (d Discount) Active(now time.Time) bool {
	return d.EndsAt.After(now)
}

// Redeem records that a user has used a discount. At most one per pair.
type Redeem struct {
	BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_redeem_user_discount" json:"user_id"`
	DiscountID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_redeem_user_discount" json:"discount_id"`
}
