package router

import (
	"github.com/gin-gonic/gin"

	"github.com/avolkov/gardenshop-backend/config"
	"github.com/avolkov/gardenshop-backend/internal/app/controller"
	"github.com/avolkov/gardenshop-backend/internal/middleware"
)

type Router struct {
	authController     *controller.AuthController
	productController  *controller.ProductController
	categoryController *controller.CategoryController
	cartController     *controller.CartController
	orderController    *controller.OrderController
	importController   *controller.ImportController
	chatController     *controller.ChatController
	uploadController   *controller.UploadController
	authMiddleware     *middleware.AuthMiddleware
	config             *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	productController *controller.ProductController,
	categoryController *controller.CategoryController,
	cartController *controller.CartController,
	orderController *controller.OrderController,
	importController *controller.ImportController,
	chatController *controller.ChatController,
	uploadController *controller.UploadController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:     authController,
		productController:  productController,
		categoryController: categoryController,
		cartController:     cartController,
		orderController:    orderController,
		importController:   importController,
		chatController:     chatController,
		uploadController:   uploadController,
		authMiddleware:     authMiddleware,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "GardenShop API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/refresh", r.authController.Refresh)
			auth.POST("/logout", r.authMiddleware.Authenticate(), r.authController.Logout)
		}

		profile := v1.Group("/profile")
		profile.Use(r.authMiddleware.Authenticate())
		{
			profile.GET("", r.authController.GetProfile)
			profile.PUT("", r.authController.UpdateProfile)
		}

		categories := v1.Group("/categories")
		categories.Use(r.authMiddleware.OptionalAuthenticate())
		{
			categories.GET("", r.categoryController.ListCategories)
			categories.GET("/:slug", r.categoryController.GetCategory)
		}

		products := v1.Group("/products")
		products.Use(r.authMiddleware.OptionalAuthenticate())
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/:idOrSlug", r.productController.GetProduct)
		}

		// Carts work for guests through the session cookie.
		cart := v1.Group("/cart")
		cart.Use(r.authMiddleware.OptionalAuthenticate(), middleware.SessionMiddleware())
		{
			cart.GET("", r.cartController.GetCart)
			cart.POST("/items", r.cartController.AddToCart)
			cart.PUT("/items", r.cartController.UpdateCartItem)
			cart.DELETE("/items/:productID", r.cartController.RemoveCartItem)
			cart.DELETE("", r.cartController.ClearCart)
		}

		orders := v1.Group("/orders")
		orders.Use(r.authMiddleware.Authenticate(), middleware.SessionMiddleware())
		{
			orders.POST("", r.orderController.Checkout)
			orders.GET("", r.orderController.MyOrders)
			orders.GET("/:id", r.orderController.GetOrder)
		}

		chat := v1.Group("/chat")
		chat.Use(r.authMiddleware.Authenticate())
		{
			chat.POST("/messages", r.chatController.SendMessage)
			chat.GET("/messages", r.chatController.GetHistory)
			chat.GET("/ws", r.chatController.Connect)
		}

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole("admin"))
		{
			admin.POST("/products", r.productController.CreateProduct)
			admin.PUT("/products/:id", r.productController.UpdateProduct)
			admin.DELETE("/products/:id", r.productController.DeleteProduct)
			admin.PUT("/products/:id/images", r.productController.SetProductImages)
			admin.POST("/products/import", r.importController.ImportProducts)

			admin.POST("/categories", r.categoryController.CreateCategory)
			admin.PUT("/categories/:id", r.categoryController.UpdateCategory)
			admin.DELETE("/categories/:id", r.categoryController.DeleteCategory)

			admin.GET("/orders", r.orderController.ListOrders)
			admin.GET("/orders/:id", r.orderController.GetOrderAdmin)
			admin.PUT("/orders/:id/status", r.orderController.UpdateStatus)
			admin.POST("/orders/status", r.orderController.BulkUpdateStatus)

			admin.GET("/chat/conversations", r.chatController.AdminListConversations)
			admin.GET("/chat/:customerID/messages", r.chatController.AdminGetHistory)
			admin.POST("/chat/messages", r.chatController.AdminSendMessage)

			admin.POST("/uploads/presign", r.uploadController.Presign)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
