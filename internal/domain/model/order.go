package model

import "time"

type Order struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`

	OrderDate time.Time `gorm:"not null" json:"order_date"`
	Paid      bool      `gorm:"not null;default:false" json:"paid"`
	Notes     string    `gorm:"type:text" json:"notes"`

	ShippedAt *time.Time `json:"shipped_at"`
	ArrivedAt *time.Time `json:"arrived_at"`

	//最小通貨単位。明細のLineTotal合計と一致させる
	TotalCost int64 `gorm:"not null" json:"total_cost"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
