package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/coupons"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/notify"
	"storefront/internal/session"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("⚠️ product index warning: %v", err)
	}
	if err := database.EnsureCouponIndexes(db); err != nil {
		log.Printf("⚠️ coupon index warning: %v", err)
	}
	if err := database.EnsureCartIndexes(db); err != nil {
		log.Printf("⚠️ cart index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("⚠️ order index warning: %v", err)
	}
	if err := database.EnsureSessionIndexes(db); err != nil {
		log.Printf("⚠️ session index warning: %v", err)
	}

	catalogStore := catalog.NewStore(db)
	couponValidator := coupons.NewValidator(db)
	itemStore := cart.NewItemStore(db)
	sessionStore := session.NewStore(db, config.AppEnv.SessionTTL)

	var notifier checkout.Notifier = notify.LogNotifier{}
	if config.AppEnv.TelegramBotToken != "" {
		notifier = notify.NewTelegram(config.AppEnv.TelegramBotToken, config.AppEnv.TelegramChatID)
	}

	orchestrator := checkout.NewOrchestrator(checkout.NewInventory(db), notifier, config.AppEnv.DeliveryFee)

	r := gin.Default()

	r.GET("/health", handlers.Health(db))
	r.GET("/products", handlers.GetProducts(catalogStore))
	r.GET("/products/offers", handlers.GetOffers(catalogStore))
	r.GET("/products/featured", handlers.GetFeatured(catalogStore))
	r.GET("/products/:slug", handlers.GetProduct(catalogStore))
	r.GET("/categories", handlers.GetCategories(catalogStore))

	shop := r.Group("/")
	shop.Use(session.Middleware(sessionStore), middleware.OptionalUser(config.AppEnv.JWTSecret))
	{
		shop.GET("/cart", handlers.ViewCart(catalogStore, couponValidator, itemStore))
		shop.POST("/cart/items", handlers.AddToCart(catalogStore, couponValidator, itemStore))
		shop.DELETE("/cart/items/:productId", handlers.RemoveFromCart(catalogStore, couponValidator, itemStore))
		shop.POST("/cart/coupon", handlers.ApplyCoupon(catalogStore, couponValidator, itemStore))
		shop.DELETE("/cart/coupon", handlers.RemoveCoupon(catalogStore, couponValidator, itemStore))
		shop.POST("/checkout", handlers.Checkout(catalogStore, couponValidator, itemStore, orchestrator))
	}

	user := r.Group("/user")
	user.Use(middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		user.GET("/orders", handlers.GetUserOrders(db))
		user.GET("/orders/:id", handlers.GetUserOrder(db))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(config.AppEnv.JWTSecret))
	{
		admin.GET("/orders", handlers.ListOrders(db))
		admin.PUT("/orders/:id/status", handlers.UpdateOrderStatus(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
