package models

import (
	"time"

	"github.com/angelmondragon/cafehop-backend/pkg/enums"
)

// Order is a placed pickup order. Money columns are integer cents and the tax
// rate is kept as its exact decimal string.
type Order struct {
	ID                  string            `gorm:"column:id;primaryKey"`
	CafeID              string            `gorm:"column:cafe_id;not null"`
	SessionID           string            `gorm:"column:session_id;not null;default:''"`
	Status              enums.OrderStatus `gorm:"column:status;type:text;not null"`
	SubtotalCents       int64             `gorm:"column:subtotal_cents;not null"`
	TaxCents            int64             `gorm:"column:tax_cents;not null"`
	TotalCents          int64             `gorm:"column:total_cents;not null"`
	TaxRate             string            `gorm:"column:tax_rate;not null"`
	PickupOffsetMinutes int               `gorm:"column:pickup_offset_minutes;not null"`
	Note                *string           `gorm:"column:note"`
	Lines               []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time         `gorm:"column:created_at"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

// OrderLine is the frozen snapshot of one cart line.
type OrderLine struct {
	OrderID        string   `gorm:"column:order_id;primaryKey;autoIncrement:false"`
	Position       int      `gorm:"column:position;primaryKey;autoIncrement:false"`
	ItemID         string   `gorm:"column:item_id;not null"`
	Name           string   `gorm:"column:name;not null"`
	UnitPriceCents int64    `gorm:"column:unit_price_cents;not null"`
	Quantity       int      `gorm:"column:quantity;not null"`
	Options        []string `gorm:"column:options;type:text;serializer:json"`
}

func (OrderLine) TableName() string { return "order_lines" }
