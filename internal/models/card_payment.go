package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingDetails is the envelope copied onto an OrderGroup.
type ShippingDetails struct {
	Address     string `json:"address"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

// SnapshotLine is a cart line frozen at charge initiation.
type SnapshotLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CartSnapshot is what a CardPayment fulfils once the OTP is validated.
type CartSnapshot struct {
	Shipping ShippingDetails `json:"shipping"`
	Lines    []SnapshotLine  `json:"lines"`
}

// CardPayment stages a card checkout between charge initiation and OTP
// validation. Rows are single use.
type CardPayment struct {
	BaseModel
	UserID    uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	Snapshot  []byte          `gorm:"type:jsonb" json:"-"`
	Total     decimal.Decimal `gorm:"type:numeric(12,2)" json:"total"`
	Reference string          `gorm:"index" json:"reference"`
}

// SetSnapshot serializes s into the row.
func (p *CardPayment) SetSnapshot(s CartSnapshot) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	p.Snapshot = raw
	return nil
}

// DecodeSnapshot returns the frozen cart.
func (p *CardPayment) DecodeSnapshot() (CartSnapshot, error) {
	var s CartSnapshot
	err := json.Unmarshal(p.Snapshot, &s)
	return s, err
}
