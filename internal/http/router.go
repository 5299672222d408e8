// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pepemlv/partysavingrental/internal/ai"
	"github.com/pepemlv/partysavingrental/internal/http/handlers"
	"github.com/pepemlv/partysavingrental/internal/http/middleware"
	"github.com/pepemlv/partysavingrental/internal/infra"
	"github.com/pepemlv/partysavingrental/internal/security"
)

// CatalogAPI is the catalog service as both the storefront and the AI drafts see it.
type CatalogAPI interface {
	handlers.CatalogService
	handlers.ProductDescriber
}

// RouterDeps lists the services behind the API. Card, PayPal, Auth and Copywriter
// may be nil when the matching integration is not configured.
type RouterDeps struct {
	Catalog    CatalogAPI
	Booking    handlers.BookingService
	Orders     handlers.OrderService
	Card       handlers.CardPayments
	PayPal     handlers.PayPalPayments
	Mobile     handlers.MobilePayments
	Auth       handlers.Authenticator
	Verifier   infra.TokenVerifier
	Copywriter ai.Copywriter
	AIQuota    handlers.TokenQuota
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	catalogHandler := handlers.NewCatalogHandler(deps.Catalog)
	sessionHandler := handlers.NewSessionHandler(deps.Booking)
	orderHandler := handlers.NewOrderHandler(deps.Orders)
	paymentHandler := handlers.NewPaymentHandler(deps.Card, deps.PayPal)
	mobileHandler := handlers.NewMobileHandler(deps.Mobile)
	adminHandler := handlers.NewAdminHandler(deps.Auth, deps.Catalog, deps.Copywriter, deps.AIQuota)

	api := r.Group("/api")
	api.GET("/products", catalogHandler.ListProducts)
	api.GET("/products/:id", catalogHandler.GetProduct)
	api.GET("/cities", catalogHandler.ListCities)

	sessions := api.Group("/sessions")
	sessions.POST("", sessionHandler.Create)
	sessions.GET("/:id", sessionHandler.Get)
	sessions.PUT("/:id/items/:productId", sessionHandler.SetItem)
	sessions.PUT("/:id/rental-days", sessionHandler.SetRentalDays)
	sessions.PUT("/:id/city", sessionHandler.SetCity)
	sessions.PUT("/:id/delivery-method", sessionHandler.SetMethod)
	sessions.PUT("/:id/customer", sessionHandler.SetCustomer)
	sessions.PUT("/:id/address", sessionHandler.SetAddress)
	sessions.POST("/:id/validate-address", sessionHandler.ValidateAddress)
	sessions.POST("/:id/checkout", sessionHandler.Checkout)

	api.GET("/orders/:id", orderHandler.Get)
	api.GET("/orders/:id/receipt", orderHandler.Receipt)
	api.GET("/customers/:email/orders", orderHandler.ListByCustomer)

	payments := api.Group("/payments")
	payments.POST("/card/intent", paymentHandler.CreateIntent)
	payments.POST("/card/confirm", paymentHandler.ConfirmCard)
	payments.POST("/card/webhook", paymentHandler.Webhook)
	payments.POST("/paypal/orders", paymentHandler.CreatePayPalOrder)
	payments.POST("/paypal/orders/:id/capture", paymentHandler.CapturePayPalOrder)
	payments.POST("/mobile/pay", mobileHandler.Pay)
	payments.POST("/mobile/callback", mobileHandler.Callback)
	payments.GET("/mobile/status/:transactionId", mobileHandler.Status)

	api.POST("/admin/login", adminHandler.Login)
	admin := api.Group("/admin", middleware.Auth(deps.Verifier), middleware.RequireRole(security.RoleAdmin))
	admin.POST("/products", catalogHandler.CreateProduct)
	admin.PUT("/products/:id", catalogHandler.UpdateProduct)
	admin.DELETE("/products/:id", catalogHandler.DeleteProduct)
	admin.POST("/products/:id/describe", adminHandler.Describe)
	admin.POST("/cities", catalogHandler.CreateCity)
	admin.PUT("/cities/:id", catalogHandler.UpdateCity)
	admin.DELETE("/cities/:id", catalogHandler.DeleteCity)
	admin.GET("/queries", orderHandler.ListQueries)
	admin.GET("/sales", orderHandler.ListSales)
	admin.POST("/orders/:id/confirm", orderHandler.Confirm)
	admin.POST("/orders/:id/cancel", orderHandler.Cancel)

	return r
}
