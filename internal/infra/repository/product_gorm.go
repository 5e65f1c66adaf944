package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
	repo "github.com/alittlebroken/ecommerce/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) FindByID(ctx context.Context, productID int64) (model.Product, error) {
	var p model.Product

	err := r.db.WithContext(ctx).
		Preload("Categories").
		Where("id = ?", productID).
		First(&p).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) FindByName(ctx context.Context, name string) (model.Product, error) {
	var p model.Product

	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&p).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) FindAll(ctx context.Context) ([]model.Product, error) {
	var items []model.Product
	if err := r.db.WithContext(ctx).Order("id asc").Find(&items).Error; err != nil {
		return []model.Product{}, err
	}
	return items, nil
}

func (r *ProductGormRepository) Update(ctx context.Context, productID int64, upd repo.ProductUpdate) error {
	values := map[string]interface{}{}

	if upd.Name != nil {
		values["name"] = *upd.Name
	}
	if upd.Description != nil {
		values["description"] = *upd.Description
	}
	if upd.Price != nil {
		values["price"] = *upd.Price
	}
	if upd.ImageURL != nil {
		values["image_url"] = *upd.ImageURL
	}
	if upd.InStock != nil {
		values["in_stock"] = *upd.InStock
	}

	if len(values) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Updates(values)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ProductGormRepository) Delete(ctx context.Context, productID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, productID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 名前の部分一致＋カテゴリ名の絞り込み
func (r *ProductGormRepository) Search(ctx context.Context, q repo.ProductSearchQuery) ([]model.Product, error) {
	query := r.db.WithContext(ctx).Model(&model.Product{})

	if terms := strings.TrimSpace(q.Terms); terms != "" {
		query = query.Where("products.name ILIKE ?", "%"+terms+"%")
	}

	if q.Category != "" {
		query = query.
			Joins("join products_categories pc on pc.product_id = products.id").
			Joins("join categories c on c.id = pc.category_id").
			Where("c.name = ?", q.Category)
	}

	var items []model.Product
	if err := query.Order("products.id asc").Find(&items).Error; err != nil {
		return []model.Product{}, err
	}
	return items, nil
}
