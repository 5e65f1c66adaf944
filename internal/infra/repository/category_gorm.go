package repository

import (
	"context"
	"errors"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
	repo "github.com/alittlebroken/ecommerce/internal/repository"

	"gorm.io/gorm"
)

type CategoryGormRepository struct {
	db *gorm.DB
}

func NewCategoryGormRepository(db *gorm.DB) *CategoryGormRepository {
	return &CategoryGormRepository{db: db}
}

func (r *CategoryGormRepository) Create(ctx context.Context, c model.Category) (model.Category, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Category{}, err
	}
	return c, nil
}

func (r *CategoryGormRepository) FindByID(ctx context.Context, categoryID int64) (model.Category, error) {
	var c model.Category

	err := r.db.WithContext(ctx).Where("id = ?", categoryID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Category{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Category{}, err
	}
	return c, nil
}

func (r *CategoryGormRepository) FindByName(ctx context.Context, name string) (model.Category, error) {
	var c model.Category

	err := r.db.WithContext(ctx).Where("name = ?", name).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Category{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Category{}, err
	}
	return c, nil
}

func (r *CategoryGormRepository) FindAll(ctx context.Context) ([]model.Category, error) {
	var items []model.Category
	if err := r.db.WithContext(ctx).Order("id asc").Find(&items).Error; err != nil {
		return []model.Category{}, err
	}
	return items, nil
}

func (r *CategoryGormRepository) Rename(ctx context.Context, categoryID int64, name string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Where("id = ?", categoryID).
		Update("name", name)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CategoryGormRepository) Delete(ctx context.Context, categoryID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Category{}, categoryID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// products_categoriesへ追加（many2manyの中間テーブル）
func (r *CategoryGormRepository) AssignProduct(ctx context.Context, categoryID int64, productID int64) error {
	var p model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", productID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repo.ErrNotFound
		}
		return err
	}

	return r.db.WithContext(ctx).
		Model(&p).
		Association("Categories").
		Append(&model.Category{ID: categoryID})
}

func (r *CategoryGormRepository) RemoveProduct(ctx context.Context, categoryID int64, productID int64) error {
	var p model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", productID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repo.ErrNotFound
		}
		return err
	}

	return r.db.WithContext(ctx).
		Model(&p).
		Association("Categories").
		Delete(&model.Category{ID: categoryID})
}
