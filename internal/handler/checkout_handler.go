package handler

import (
	"net/http"
	"strconv"

	"github.com/alittlebroken/ecommerce/internal/config"
	"github.com/alittlebroken/ecommerce/internal/middleware"
	"github.com/alittlebroken/ecommerce/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /checkout/:cartid
// カートの中身を決済ゲートウェイへ送り、決済ページのURLを返す。
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/checkout")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("/:cartid", h.initiate)
}

func (h *CheckoutHandler) initiate(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	role, ok := getRoleFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	cartID, err := strconv.ParseInt(c.Param("cartid"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid cart id"})
	}

	out, err := h.uc.InitiateCheckout(c.Request().Context(), userID, role, cartID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
