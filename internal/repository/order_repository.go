package repository

import (
	"context"
	"time"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
)

// 注文の部分更新もポインタ項目の閉集合。
// "UPDATE orders SET $col = $val"のようなカラム名の受け渡しはしない。
type OrderUpdate struct {
	Paid      *bool
	Notes     *string
	ShippedAt *time.Time
	ArrivedAt *time.Time
}

type OrderRepository interface {
	Create(ctx context.Context, order model.Order) (int64, error)
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Order, error)
	Update(ctx context.Context, orderID int64, upd OrderUpdate) error
	Delete(ctx context.Context, orderID int64) error
}
