package model

import "time"

// 決済ゲートウェイからのwebhook受信記録。
// event_idのunique制約が二重配送の重複排除キーになる。
type WebhookEvent struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID    string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"event_id"`
	CartID     int64     `gorm:"not null;index" json:"cart_id"`
	OrderID    int64     `gorm:"index" json:"order_id"`
	ReceivedAt time.Time `gorm:"not null" json:"received_at"`
}
