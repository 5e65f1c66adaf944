package repository

import (
	"context"
	"errors"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 部分更新はポインタ項目の閉集合
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *int64
	ImageURL    *string
	InStock     *bool
}

// 商品検索の条件
type ProductSearchQuery struct {
	//名前の部分一致
	Terms string
	//カテゴリ名での絞り込み（空なら無視）
	Category string
}

type ProductRepository interface {
	Create(ctx context.Context, p model.Product) (model.Product, error)
	FindByID(ctx context.Context, productID int64) (model.Product, error)
	FindByName(ctx context.Context, name string) (model.Product, error)
	FindAll(ctx context.Context) ([]model.Product, error)
	Update(ctx context.Context, productID int64, upd ProductUpdate) error
	Delete(ctx context.Context, productID int64) error

	Search(ctx context.Context, q ProductSearchQuery) ([]model.Product, error)
}
