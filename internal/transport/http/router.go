package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	authhttp "github.com/Skotchmaster/ethnic_shop/internal/auth/httpserver"
	carthttp "github.com/Skotchmaster/ethnic_shop/internal/cart/httpserver"
	cataloghttp "github.com/Skotchmaster/ethnic_shop/internal/catalog/httpserver"
	authmw "github.com/Skotchmaster/ethnic_shop/internal/middleware/auth"
	orderhttp "github.com/Skotchmaster/ethnic_shop/internal/order/httpserver"
	paymenthttp "github.com/Skotchmaster/ethnic_shop/internal/payment/httpserver"
	"github.com/Skotchmaster/ethnic_shop/pkg/db"
	"github.com/Skotchmaster/ethnic_shop/pkg/metrics"
	"github.com/Skotchmaster/ethnic_shop/pkg/validation"
)

type Deps struct {
	DB             *gorm.DB
	Auth           *authmw.AutoRefreshMiddleware
	AuthHandler    *authhttp.AuthHTTP
	CatalogHandler *cataloghttp.CatalogHTTP
	CartHandler    *carthttp.CartHTTP
	OrderHandler   *orderhttp.OrderHTTP
	PaymentHandler *paymenthttp.PaymentHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.Validator = validation.New()
	e.Binder = &validation.StrictBinder{}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable").SetInternal(err)
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", metrics.Handler())

	v1 := e.Group("/api/v1")
	requireAuth, requireAdmin := d.Auth.RequireAuth, d.Auth.RequireAdmin

	auth := v1.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.GET("/me", d.AuthHandler.Me, requireAuth)

	users := v1.Group("/users", requireAuth)
	users.PUT("/profile", d.AuthHandler.UpdateProfile)
	users.GET("/cart", d.CartHandler.GetCart)
	users.POST("/cart", d.CartHandler.AddToCart)
	users.PUT("/cart", d.CartHandler.UpdateQuantity)
	users.DELETE("/cart", d.CartHandler.RemoveFromCart)
	users.DELETE("/cart/all", d.CartHandler.ClearCart)
	users.GET("/wishlist", d.CartHandler.GetWishlist)
	users.POST("/wishlist", d.CartHandler.AddToWishlist)
	users.DELETE("/wishlist", d.CartHandler.RemoveFromWishlist)

	products := v1.Group("/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/export/csv", d.CatalogHandler.ExportCSV, requireAdmin)
	products.GET("/:id", d.CatalogHandler.GetProduct)
	products.POST("", d.CatalogHandler.CreateProduct, requireAdmin)
	products.PATCH("/:id", d.CatalogHandler.PatchProduct, requireAdmin)
	products.DELETE("/:id", d.CatalogHandler.DeleteProduct, requireAdmin)
	products.GET("/:id/reviews", d.CatalogHandler.ListReviews)
	products.POST("/:id/reviews", d.CatalogHandler.AddReview, requireAuth)
	products.PUT("/:id/reviews/:reviewId", d.CatalogHandler.UpdateReview, requireAuth)
	products.DELETE("/:id/reviews/:reviewId", d.CatalogHandler.DeleteReview, requireAuth)

	orders := v1.Group("/orders", requireAuth)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("/my", d.OrderHandler.MyOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PUT("/:id/cancel", d.OrderHandler.CancelOrder)

	orders.GET("", d.OrderHandler.ListOrders, requireAdmin)
	orders.PUT("/:id", d.OrderHandler.UpdateStatus, requireAdmin)
	orders.GET("/stats", d.OrderHandler.Stats, requireAdmin)
	orders.GET("/export/csv", d.OrderHandler.ExportCSV, requireAdmin)

	payments := v1.Group("/payments")
	payments.GET("/methods", d.PaymentHandler.Methods)
	payments.POST("/razorpay/create-order", d.PaymentHandler.CreateOrder, requireAuth)
	payments.POST("/razorpay/verify", d.PaymentHandler.Verify, requireAuth)
}
