// Package api exposes the marketplace REST surface: auth, catalog,
// orders, payment callbacks, reviews, stylist chat and admin routes.
package api

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/kinhtot/marketplace/internal/config"
	"github.com/kinhtot/marketplace/internal/vnpay"
)

type Server struct {
	db     *sql.DB
	cfg    *config.Config
	vnp    *vnpay.Client
	router *gin.Engine
}

func NewServer(db *sql.DB, cfg *config.Config) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger())

	s := &Server{
		db:     db,
		cfg:    cfg,
		vnp:    vnpay.NewClient(cfg.VNPay),
		router: router,
	}

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", s.handleRegister)
		authGroup.POST("/login", s.handleLogin)
		authGroup.GET("/me", s.Authenticated(), s.handleMe)
		authGroup.POST("/kyc", s.Authenticated(), s.handleSubmitKYC)
	}

	products := api.Group("/products")
	{
		products.GET("", s.handleListProducts)
		products.GET("/:slug", s.handleGetProduct)
		products.POST("", s.Authenticated(), s.handleCreateProduct)
		products.PUT("/:slug", s.Authenticated(), s.handleUpdateProduct)
		products.DELETE("/:slug", s.Authenticated(), s.handleDeleteProduct)
	}

	api.GET("/categories", s.handleListCategories)

	orders := api.Group("/orders", s.Authenticated())
	{
		orders.POST("", s.handleCreateOrder)
		orders.GET("", s.handleMyOrders)
		orders.GET("/manage", s.handleManageOrders)
		orders.GET("/:id", s.handleGetOrder)
		orders.PATCH("/:id/status", s.handleUpdateOrderStatus)
		orders.POST("/:id/vnpay-url", s.handleCreatePaymentURL)
	}

	payment := api.Group("/payment/vnpay")
	{
		payment.GET("/return", s.handleVNPayReturn)
		payment.GET("/ipn", s.handleVNPayIPN)
	}

	reviews := api.Group("/reviews")
	{
		reviews.GET("", s.handleListReviews)
		reviews.POST("", s.Authenticated(), s.handleCreateReview)
		reviews.DELETE("/:id", s.Authenticated(), s.handleDeleteReview)
	}

	api.POST("/ai/chat", s.OptionalAuth(), s.handleStylistChat)

	admin := api.Group("/admin", s.Authenticated(), s.RequireRole(roleStaffOrAdmin...))
	{
		admin.GET("/users", s.handleListUsers)
		admin.GET("/users/:id", s.handleGetUser)
		admin.PATCH("/users/:id", s.handleUpdateUser)
		admin.POST("/categories", s.handleCreateCategory)
		admin.GET("/stats", s.handleStats)
	}

	return s
}

// Router exposes the gin engine for http.Server and tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
