package repository

import (
	"context"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
)

type CartRepository interface {
	//ユーザーのカートを取得し、無ければ作成（1ユーザー1カート）
	GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error)
	FindByID(ctx context.Context, cartID int64) (model.Cart, error)
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
	Delete(ctx context.Context, cartID int64) error
}
