package server

import (
	"laptophub/internal/config"
	"laptophub/internal/handler"
	"laptophub/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Product *handler.ProductHandler
	Cart    *handler.CartHandler
	Order   *handler.OrderHandler
	Payment *handler.PaymentHandler
}

// Newはルーティング済みのechoインスタンスを返す。
func New(cfg config.Config, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	//公開（認証不要）
	h.Auth.RegisterRoutes(e)
	h.Product.RegisterPublicRoutes(e)

	//認証必須
	authed := e.Group("", middleware.AuthJWT(cfg))
	h.Cart.RegisterRoutes(authed)
	h.Order.RegisterRoutes(authed)
	h.Payment.RegisterRoutes(authed)

	//管理者のみ
	admin := e.Group("/admin", middleware.AuthJWT(cfg), middleware.AdminRoleGuard())
	h.Product.RegisterAdminRoutes(admin)
	h.Order.RegisterAdminRoutes(admin)
	h.Payment.RegisterAdminRoutes(admin)

	return e
}
