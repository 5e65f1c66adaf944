package repository

import (
	"context"
	"errors"
	"time"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
	domainrepo "github.com/alittlebroken/ecommerce/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてusecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// emailのunique制約違反はErrDuplicateEmailへ正規化。
// 事前の重複チェックと同時登録が競合した場合でも409で返せるようにする
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domainrepo.ErrDuplicateEmail
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainrepo.ErrDuplicateEmail
	}

	return err
}

func (r *userGormRepository) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&u).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainrepo.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&u).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainrepo.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// 外部IDログインのsubjectで1件取得
func (r *userGormRepository) FindByGoogleSubject(ctx context.Context, subject string) (*model.User, error) {
	var u model.User

	err := r.db.WithContext(ctx).
		Where("google_subject = ?", subject).
		First(&u).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainrepo.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userGormRepository) FindAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("id asc").Find(&users).Error; err != nil {
		return []model.User{}, err
	}
	return users, nil
}

// ポインタが非nilの項目だけ更新
func (r *userGormRepository) Update(ctx context.Context, userID int64, upd domainrepo.UserUpdate) error {
	values := map[string]interface{}{}

	if upd.Forename != nil {
		values["forename"] = *upd.Forename
	}
	if upd.Surname != nil {
		values["surname"] = *upd.Surname
	}
	if upd.ContactNumber != nil {
		values["contact_number"] = *upd.ContactNumber
	}
	if upd.Role != nil {
		values["role"] = *upd.Role
	}
	if upd.IsEnabled != nil {
		values["is_enabled"] = *upd.IsEnabled
	}

	if len(values) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(values)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}

func (r *userGormRepository) TouchLastLogin(ctx context.Context, userID int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_login_at", time.Now())

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}

func (r *userGormRepository) Delete(ctx context.Context, userID int64) error {
	res := r.db.WithContext(ctx).Delete(&model.User{}, userID)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainrepo.ErrUserNotFound
	}
	return nil
}
