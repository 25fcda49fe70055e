package models

import "time"

// Cafe is a coffee shop listed for discovery. Coordinates are decimal-degree
// strings as supplied by the data source.
type Cafe struct {
	ID        string      `gorm:"column:id;primaryKey"`
	Name      string      `gorm:"column:name;not null"`
	Address   string      `gorm:"column:address;not null"`
	Latitude  string      `gorm:"column:latitude;not null"`
	Longitude string      `gorm:"column:longitude;not null"`
	Rating    float64     `gorm:"column:rating;not null"`
	IsActive  bool        `gorm:"column:is_active;not null"`
	Hours     []CafeHours `gorm:"foreignKey:CafeID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (Cafe) TableName() string { return "cafes" }

// CafeHours is one weekday row; weekday runs 1=Monday..7=Sunday.
type CafeHours struct {
	CafeID    string  `gorm:"column:cafe_id;primaryKey;autoIncrement:false"`
	Weekday   int     `gorm:"column:weekday;primaryKey;autoIncrement:false"`
	OpenTime  *string `gorm:"column:open_time"`
	CloseTime *string `gorm:"column:close_time"`
	IsClosed  bool    `gorm:"column:is_closed;not null"`
}

func (CafeHours) TableName() string { return "cafe_hours" }
