package repository

import (
	"context"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
)

type CategoryRepository interface {
	Create(ctx context.Context, c model.Category) (model.Category, error)
	FindByID(ctx context.Context, categoryID int64) (model.Category, error)
	FindByName(ctx context.Context, name string) (model.Category, error)
	FindAll(ctx context.Context) ([]model.Category, error)
	Rename(ctx context.Context, categoryID int64, name string) error
	Delete(ctx context.Context, categoryID int64) error

	//products_categoriesの付け外し
	AssignProduct(ctx context.Context, categoryID int64, productID int64) error
	RemoveProduct(ctx context.Context, categoryID int64, productID int64) error
}
