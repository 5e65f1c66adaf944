package auth

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
	"github.com/alittlebroken/ecommerce/internal/repository"
)

var (
	// 入力が不正
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password too short")

	// 競合
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// 現在の時間
type Clock interface {
	Now() time.Time
}

// 会員登録の入力
type RegisterUserInput struct {
	Email    string
	Password string
	Forename string
	Surname  string
}

// 会員登録の出力
type RegisterUserOutput struct {
	User model.User
}

// RegisterUserUsecaseは会員登録の処理。
// カートは登録時には作らない（初回のカートアクセス時に作成する方針）。
type RegisterUserUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	clock    Clock
}

// DI
func NewRegisterUserUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	clock Clock,
) *RegisterUserUsecase {
	return &RegisterUserUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		clock:    clock,
	}
}

// 会員登録実行
func (u *RegisterUserUsecase) Execute(ctx context.Context, in RegisterUserInput) (RegisterUserOutput, error) {
	var out RegisterUserOutput

	// emailの形式チェック
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return out, ErrInvalidEmailFormat
	}

	// passwordの長さチェック（最小8文字）
	if len(in.Password) < 8 {
		return out, ErrPasswordTooShort
	}

	// email重複チェック
	existing, err := u.userRepo.FindByEmail(ctx, in.Email)
	if err == nil && existing != nil {
		return out, ErrEmailAlreadyExists
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return out, err
	}

	// パスワードをハッシュ化（平文は保存しない）
	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return out, err
	}

	user := &model.User{
		Email:        in.Email,
		PasswordHash: hashed,
		Forename:     in.Forename,
		Surname:      in.Surname,
		Role:         model.RoleCustomer,
		IsEnabled:    true,
		CreatedAt:    u.clock.Now(),
		UpdatedAt:    u.clock.Now(),
	}

	if err := u.userRepo.Create(ctx, user); err != nil {
		//事前チェックと同時登録が競合した場合
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return out, ErrEmailAlreadyExists
		}
		return out, err
	}

	out.User = *user
	return out, nil
}
