package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
	repo "github.com/alittlebroken/ecommerce/internal/repository"
)

// UserUsecase はプロフィールと管理者向けのアカウント操作。
type UserUsecase struct {
	userRepo repo.UserRepository
}

func NewUserUsecase(userRepo repo.UserRepository) *UserUsecase {
	return &UserUsecase{userRepo: userRepo}
}

type UserOutput struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	Forename      string     `json:"forename"`
	Surname       string     `json:"surname"`
	ContactNumber string     `json:"contact_number"`
	Role          string     `json:"role"`
	IsEnabled     bool       `json:"is_enabled"`
	LastLoginAt   *time.Time `json:"last_login_at"`
}

type UpdateProfileInput struct {
	Forename      *string
	Surname       *string
	ContactNumber *string
}

// 管理者だけが触れる項目
type AdminUpdateUserInput struct {
	Role      *model.Role
	IsEnabled *bool
}

func (u *UserUsecase) GetProfile(ctx context.Context, userID int64) (UserOutput, error) {
	if userID <= 0 {
		return UserOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrUserNotFound) {
		return UserOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return UserOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toUserOutput(user), nil
}

func (u *UserUsecase) UpdateProfile(ctx context.Context, userID int64, in UpdateProfileInput) (UserOutput, error) {
	if userID <= 0 {
		return UserOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	err := u.userRepo.Update(ctx, userID, repo.UserUpdate{
		Forename:      in.Forename,
		Surname:       in.Surname,
		ContactNumber: in.ContactNumber,
	})
	if errors.Is(err, repo.ErrUserNotFound) {
		return UserOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return UserOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.GetProfile(ctx, userID)
}

func (u *UserUsecase) ListUsers(ctx context.Context) ([]UserOutput, error) {
	users, err := u.userRepo.FindAll(ctx)
	if err != nil {
		return []UserOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]UserOutput, 0, len(users))
	for i := range users {
		outs = append(outs, toUserOutput(&users[i]))
	}
	return outs, nil
}

func (u *UserUsecase) AdminUpdateUser(ctx context.Context, targetUserID int64, in AdminUpdateUserInput) (UserOutput, error) {
	if targetUserID <= 0 {
		return UserOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Role != nil && *in.Role != model.RoleCustomer && *in.Role != model.RoleAdmin {
		return UserOutput{}, NewHTTPError(http.StatusBadRequest, "invalid role")
	}

	err := u.userRepo.Update(ctx, targetUserID, repo.UserUpdate{
		Role:      in.Role,
		IsEnabled: in.IsEnabled,
	})
	if errors.Is(err, repo.ErrUserNotFound) {
		return UserOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return UserOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return u.GetProfile(ctx, targetUserID)
}

func (u *UserUsecase) DeleteUser(ctx context.Context, targetUserID int64) error {
	if targetUserID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.userRepo.Delete(ctx, targetUserID)
	if errors.Is(err, repo.ErrUserNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func toUserOutput(user *model.User) UserOutput {
	return UserOutput{
		ID:            user.ID,
		Email:         user.Email,
		Forename:      user.Forename,
		Surname:       user.Surname,
		ContactNumber: user.ContactNumber,
		Role:          string(user.Role),
		IsEnabled:     user.IsEnabled,
		LastLoginAt:   user.LastLoginAt,
	}
}
