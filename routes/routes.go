package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lumme/lumme-api/config"
	"github.com/lumme/lumme-api/controllers"
	"github.com/lumme/lumme-api/middleware"
	"github.com/lumme/lumme-api/models"
	"github.com/lumme/lumme-api/utils"
)

// SetupRouter builds the engine with the global middleware and every /api route
func SetupRouter(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	// Room for the multipart envelope around the largest accepted image
	r.MaxMultipartMemory = utils.MaxFileSize + 1<<20

	api := r.Group("/api")
	SetupPublicRoutes(api)
	SetupAccountRoutes(api, cfg)
	SetupCatalogRoutes(api, cfg)
	SetupOrderRoutes(api, cfg)

	return r
}

// SetupPublicRoutes registers endpoints that need no token
func SetupPublicRoutes(api *gin.RouterGroup) {
	api.GET("/health", controllers.HealthCheck)
	api.GET("/database/status", controllers.DatabaseStatus)

	auth := api.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
	}
}

// SetupAccountRoutes registers profile, admin and cart endpoints
func SetupAccountRoutes(api *gin.RouterGroup, cfg *config.Config) {
	authenticated := middleware.EnsureValidToken(cfg)

	users := api.Group("/users", authenticated)
	{
		users.GET("/me", controllers.GetMyProfile)
		users.PUT("/me", controllers.UpdateMyProfile)
	}

	admin := api.Group("/admin", authenticated, middleware.RequireRole(models.RoleAdmin))
	{
		admin.PUT("/users/:id/status", controllers.SetUserStatus)
	}

	cart := api.Group("/cart", authenticated, middleware.RequireRole(models.RoleCustomer))
	{
		cart.GET("", controllers.GetCart)
		cart.POST("", controllers.AddToCart)
		cart.PUT("/:product_id", controllers.UpdateCartItem)
		cart.DELETE("/:product_id", controllers.RemoveCartItem)
	}
}

// SetupCatalogRoutes registers product and review endpoints
func SetupCatalogRoutes(api *gin.RouterGroup, cfg *config.Config) {
	authenticated := middleware.EnsureValidToken(cfg)
	sellerOnly := middleware.RequireRole(models.RoleSeller)

	products := api.Group("/products")
	{
		products.GET("", controllers.ListProducts)
		products.GET("/:id", controllers.GetProduct)
		products.GET("/:id/reviews", controllers.ListProductReviews)
		products.GET("/:id/image", controllers.GetProductImage)

		products.POST("", authenticated, sellerOnly, controllers.CreateProduct)
		products.PUT("/:id", authenticated, sellerOnly, controllers.UpdateProduct)
		products.DELETE("/:id", authenticated, sellerOnly, controllers.DeleteProduct)
		products.POST("/:id/image", authenticated, sellerOnly, controllers.UploadProductImage)
	}

	api.POST("/reviews", authenticated, middleware.RequireRole(models.RoleCustomer), controllers.SubmitReview)
}

// SetupOrderRoutes registers checkout and order tracking endpoints
func SetupOrderRoutes(api *gin.RouterGroup, cfg *config.Config) {
	participants := middleware.RequireRole(models.RoleCustomer, models.RoleSeller)

	orders := api.Group("/orders", middleware.EnsureValidToken(cfg))
	{
		orders.POST("", middleware.RequireRole(models.RoleCustomer), controllers.PlaceOrder)
		orders.GET("", participants, controllers.ListOrders)
		orders.GET("/export", participants, controllers.ExportOrders)
		orders.GET("/stream", participants, controllers.StreamOrders)
		orders.GET("/:id", participants, controllers.GetOrder)
		orders.PUT("/:id/status", middleware.RequireRole(models.RoleSeller), controllers.UpdateOrderStatus)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
