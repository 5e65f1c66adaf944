package repository

import (
	"context"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)

	// 同一商品は数量加算
	UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64) error

	// qty=0は行削除。quantity=0の行は永続化しない
	SetQuantity(ctx context.Context, cartID int64, productID int64, qty int64) error

	DeleteByCartAndProduct(ctx context.Context, cartID int64, productID int64) error

	//カートの明細を全削除（cartsの行は残す）
	Clear(ctx context.Context, cartID int64) error
}
