package auth

import (
	"context"
	"errors"
	"time"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
	"github.com/alittlebroken/ecommerce/internal/repository"
)

var (
	//401 認証失敗（emailが無い場合もパスワード違いも同じ応答にする）
	ErrUnauthorized = errors.New("unauthorized")

	//無効化されたアカウント
	ErrAccountDisabled = errors.New("account disabled")
)

// アクセストークンを発行する約束。
// 中身（署名方式等）はusecaseからは見えない。
type TokenIssuer interface {
	Issue(userID int64, role model.Role, now time.Time) (token string, expiresAt time.Time, err error)
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginOutput struct {
	User        model.User
	AccessToken string
	ExpiresAt   time.Time
}

type LoginUsecase struct {
	userRepo repository.UserRepository
	verifier PasswordVerifier
	issuer   TokenIssuer
	clock    Clock
}

// DI
func NewLoginUsecase(
	userRepo repository.UserRepository,
	verifier PasswordVerifier,
	issuer TokenIssuer,
	clock Clock,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
		clock:    clock,
	}
}

func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, error) {
	var out LoginOutput

	if in.Email == "" || in.Password == "" {
		return out, ErrUnauthorized
	}

	user, err := u.userRepo.FindByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return out, ErrUnauthorized
	}
	if err != nil {
		return out, err
	}

	if !u.verifier.Verify(user.PasswordHash, in.Password) {
		return out, ErrUnauthorized
	}

	if !user.IsEnabled {
		return out, ErrAccountDisabled
	}

	now := u.clock.Now()

	token, expiresAt, err := u.issuer.Issue(user.ID, user.Role, now)
	if err != nil {
		return out, err
	}

	//ログイン成功時刻を記録
	if err := u.userRepo.TouchLastLogin(ctx, user.ID); err != nil {
		return out, err
	}

	out.User = *user
	out.AccessToken = token
	out.ExpiresAt = expiresAt
	return out, nil
}
