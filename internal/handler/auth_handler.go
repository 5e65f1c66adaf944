package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/alittlebroken/ecommerce/internal/usecase"
	auth "github.com/alittlebroken/ecommerce/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	registerUC *auth.RegisterUserUsecase
	loginUC    *auth.LoginUsecase
	googleUC   *auth.GoogleLoginUsecase
}

// DI
func NewAuthHandler(
	registerUC *auth.RegisterUserUsecase,
	loginUC *auth.LoginUsecase,
	googleUC *auth.GoogleLoginUsecase,
) *AuthHandler {
	return &AuthHandler{
		registerUC: registerUC,
		loginUC:    loginUC,
		googleUC:   googleUC,
	}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Forename string `json:"forename"`
	Surname  string `json:"surname"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token"`
}

type LoginResponse struct {
	User        usecase.UserOutput `json:"user"`
	AccessToken string             `json:"access_token"`
	ExpiresAt   time.Time          `json:"expires_at"`
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/auth/register", h.register)
	e.POST("/auth/login", h.login)
	e.POST("/auth/google", h.googleLogin)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.registerUC.Execute(c.Request().Context(), auth.RegisterUserInput{
		Email:    req.Email,
		Password: req.Password,
		Forename: req.Forename,
		Surname:  req.Surname,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidEmailFormat), errors.Is(err, auth.ErrPasswordTooShort):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, auth.ErrEmailAlreadyExists):
			return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":    out.User.ID,
		"email": out.User.Email,
	})
}

func (h *AuthHandler) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return writeLoginError(c, err)
	}

	return c.JSON(http.StatusOK, toLoginResponse(out))
}

func (h *AuthHandler) googleLogin(c echo.Context) error {
	var req GoogleLoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.googleUC.Execute(c.Request().Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidExternalToken) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		}
		return writeLoginError(c, err)
	}

	return c.JSON(http.StatusOK, toLoginResponse(out))
}

func writeLoginError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	case errors.Is(err, auth.ErrAccountDisabled):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "account disabled"})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func toLoginResponse(out auth.LoginOutput) LoginResponse {
	return LoginResponse{
		User: usecase.UserOutput{
			ID:          out.User.ID,
			Email:       out.User.Email,
			Forename:    out.User.Forename,
			Surname:     out.User.Surname,
			Role:        string(out.User.Role),
			IsEnabled:   out.User.IsEnabled,
			LastLoginAt: out.User.LastLoginAt,
		},
		AccessToken: out.AccessToken,
		ExpiresAt:   out.ExpiresAt,
	}
}
