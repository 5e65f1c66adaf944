package auth

import (
	"context"
	"errors"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
	"github.com/alittlebroken/ecommerce/internal/repository"
)

var ErrInvalidExternalToken = errors.New("invalid external token")

// 外部IDプロバイダのトークン検証の約束。
// 検証の中身は不透明な外部サービスとして扱う。
type ExternalTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (ExternalIdentity, error)
}

type ExternalIdentity struct {
	Subject  string
	Email    string
	Forename string
	Surname  string
}

// GoogleLoginUsecase は外部IDトークンでのログイン。
// subjectが未登録ならその場でアカウントを作る。
type GoogleLoginUsecase struct {
	userRepo repository.UserRepository
	verifier ExternalTokenVerifier
	issuer   TokenIssuer
	clock    Clock
}

func NewGoogleLoginUsecase(
	userRepo repository.UserRepository,
	verifier ExternalTokenVerifier,
	issuer TokenIssuer,
	clock Clock,
) *GoogleLoginUsecase {
	return &GoogleLoginUsecase{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
		clock:    clock,
	}
}

func (u *GoogleLoginUsecase) Execute(ctx context.Context, idToken string) (LoginOutput, error) {
	var out LoginOutput

	if idToken == "" {
		return out, ErrInvalidExternalToken
	}

	identity, err := u.verifier.Verify(ctx, idToken)
	if err != nil {
		return out, ErrInvalidExternalToken
	}

	user, err := u.userRepo.FindByGoogleSubject(ctx, identity.Subject)
	if errors.Is(err, repository.ErrUserNotFound) {
		//未登録なら作成（パスワードは無し）
		subject := identity.Subject
		user = &model.User{
			Email:         identity.Email,
			Forename:      identity.Forename,
			Surname:       identity.Surname,
			Role:          model.RoleCustomer,
			IsEnabled:     true,
			GoogleSubject: &subject,
			CreatedAt:     u.clock.Now(),
			UpdatedAt:     u.clock.Now(),
		}
		if err := u.userRepo.Create(ctx, user); err != nil {
			return out, err
		}
	} else if err != nil {
		return out, err
	}

	if !user.IsEnabled {
		return out, ErrAccountDisabled
	}

	now := u.clock.Now()
	token, expiresAt, err := u.issuer.Issue(user.ID, user.Role, now)
	if err != nil {
		return out, err
	}

	if err := u.userRepo.TouchLastLogin(ctx, user.ID); err != nil {
		return out, err
	}

	out.User = *user
	out.AccessToken = token
	out.ExpiresAt = expiresAt
	return out, nil
}
