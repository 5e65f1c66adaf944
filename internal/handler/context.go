package handler

import (
	"github.com/alittlebroken/ecommerce/internal/domain/model"
	"github.com/alittlebroken/ecommerce/internal/middleware"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// AuthJWTが入れたuser_idを取り出す
func getUserIDFromContext(c echo.Context) (int64, bool) {
	raw := c.Get(middleware.CtxUserIDKey)
	userID, ok := raw.(int64)
	if !ok || userID <= 0 {
		return 0, false
	}
	return userID, true
}

func getRoleFromContext(c echo.Context) (model.Role, bool) {
	raw := c.Get(middleware.CtxUserRoleKey)
	role, ok := raw.(string)
	if !ok || role == "" {
		return "", false
	}
	return model.Role(role), true
}
