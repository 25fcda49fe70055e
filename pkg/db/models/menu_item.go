package models

import "time"

// MenuOption is stored inside MenuItem.Customizations.
type MenuOption struct {
	Name            string `json:"name"`
	PriceDeltaCents int64  `json:"price_delta_cents"`
}

// MenuCustomization is a single-select option group.
type MenuCustomization struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	MaxSelections int          `json:"max_selections"`
	Options       []MenuOption `json:"options"`
}

// MenuItem belongs to exactly one café.
type MenuItem struct {
	ID             string              `gorm:"column:id;primaryKey"`
	CafeID         string              `gorm:"column:cafe_id;not null"`
	Name           string              `gorm:"column:name;not null"`
	Category       string              `gorm:"column:category;not null"`
	BasePriceCents int64               `gorm:"column:base_price_cents;not null"`
	IsAvailable    bool                `gorm:"column:is_available;not null"`
	Customizations []MenuCustomization `gorm:"column:customizations;type:text;serializer:json"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (MenuItem) TableName() string { return "menu_items" }
