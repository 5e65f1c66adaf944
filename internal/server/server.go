package server

import (
	"github.com/alittlebroken/ecommerce/internal/config"
	"github.com/alittlebroken/ecommerce/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Handlers struct {
	Auth        *handler.AuthHandler
	User        *handler.UserHandler
	Product     *handler.ProductHandler
	Category    *handler.CategoryHandler
	Cart        *handler.CartHandler
	Order       *handler.OrderHandler
	Checkout    *handler.CheckoutHandler
	Fulfillment *handler.FulfillmentHandler
}

// New はechoを組み立ててルートを登録する。
func New(cfg config.Config, logger *zap.Logger, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())

	//アクセスログ
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
			)
			return nil
		},
	}))

	h.Auth.RegisterRoutes(e)
	h.User.RegisterRoutes(e, cfg)
	h.Product.RegisterRoutes(e, cfg)
	h.Category.RegisterRoutes(e, cfg)
	h.Cart.RegisterRoutes(e, cfg)
	h.Order.RegisterRoutes(e, cfg)
	h.Checkout.RegisterRoutes(e, cfg)

	//webhookルートはJSONバインドも認証も通さない（生ボディ＋署名検証のみ）
	h.Fulfillment.RegisterRoutes(e, cfg)

	return e
}
