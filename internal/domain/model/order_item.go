package model

import "time"

// 注文の明細。
// LineTotalは注文時点の単価×数量のスナップショット。
// 商品価格が後で変わっても過去の注文金額は変わらない。
type OrderItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64     `gorm:"not null;index" json:"order_id"`
	ProductID int64     `gorm:"not null;index" json:"product_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	LineTotal int64     `gorm:"not null" json:"line_total"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (OrderItem) TableName() string { return "orders_products" }
