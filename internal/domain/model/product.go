package model

import "time"

// 価格は最小通貨単位（セント）のint64で持つ。
// floatで金額を扱わない。
type Product struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Price       int64  `gorm:"not null" json:"price"`
	ImageURL    string `gorm:"type:varchar(255)" json:"image_url"`
	InStock     bool   `gorm:"not null;default:false" json:"in_stock"`

	Categories []Category `gorm:"many2many:products_categories" json:"categories,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
