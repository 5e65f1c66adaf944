package repository

import (
	"context"
	"errors"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// emailのunique制約違反（事前チェックをすり抜けた同時登録）
var ErrDuplicateEmail = errors.New("duplicate email")

// 更新できる項目を閉じた型で渡す。
// カラム名を外から受け取らない。
type UserUpdate struct {
	Forename      *string
	Surname       *string
	ContactNumber *string
	Role          *model.Role
	IsEnabled     *bool
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByGoogleSubject(ctx context.Context, subject string) (*model.User, error)
	FindAll(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, userID int64, upd UserUpdate) error

	//ログイン成功時に呼ぶ
	TouchLastLogin(ctx context.Context, userID int64) error

	Delete(ctx context.Context, userID int64) error
}
