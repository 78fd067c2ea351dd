package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/sirupsen/logrus"

	"github.com/example/marketplace/internal/auth"
	"github.com/example/marketplace/internal/checkout"
	"github.com/example/marketplace/internal/config"
	"github.com/example/marketplace/internal/handlers"
	"github.com/example/marketplace/internal/metrics"
	"github.com/example/marketplace/internal/middleware"
	"github.com/example/marketplace/internal/response"
	"github.com/example/marketplace/internal/store"
)

// Dependencies are the long-lived services the routes are built from.
type Dependencies struct {
	Config   *config.Config
	Store    *store.Store
	Auth     *auth.Manager
	Checkout *checkout.Orchestrator
	Limiter  *middleware.RateLimiter
	Log      *logrus.Logger
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Dependencies) {
	userHandler := handlers.NewUserHandler(deps.Auth, deps.Store, deps.Config, deps.Log)
	catalogHandler := handlers.NewCatalogHandler(deps.Store)
	productHandler := handlers.NewProductHandler(deps.Store)
	cartHandler := handlers.NewCartHandler(deps.Store)
	orderHandler := handlers.NewOrderHandler(deps.Checkout, deps.Store)
	paymentHandler := handlers.NewPaymentHandler(deps.Store)
	wishlistHandler := handlers.NewWishlistHandler(deps.Store)
	adminHandler := handlers.NewAdminHandler(deps.Store)

	mandatory := middleware.AuthMiddleware(deps.Auth)
	optional := middleware.OptionalAuthMiddleware(deps.Auth)
	strict := response.FailureStatus(fiber.StatusBadRequest)
	limited := deps.Limiter.Handler()

	app.Get("/health", handlers.Health(deps.Store))
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	// Users
	users := app.Group("/users")
	users.Post("/create", strict, limited, optional, userHandler.Create)
	users.Get("/validate", userHandler.Validate)
	users.Post("/signin", strict, limited, optional, userHandler.SignIn)
	users.Post("/refresh_token", strict, limited, userHandler.Refresh)
	users.Post("/signout", mandatory, userHandler.SignOut)
	users.Get("/me", mandatory, userHandler.Me)
	users.Delete("/user/:id", strict, mandatory, userHandler.Delete)
	users.Put("/user/:id/status", mandatory, middleware.Require(auth.CapManageUsers), userHandler.SetStatus)

	// Catalog
	categories := app.Group("/categories")
	categories.Get("/all", catalogHandler.ListCategories)
	categories.Post("/create", mandatory, middleware.Require(auth.CapManageCategories), catalogHandler.CreateCategory)

	items := app.Group("/items")
	items.Get("/vendor", mandatory, catalogHandler.ListVendorItems)
	items.Get("/all", catalogHandler.ListItems)
	items.Get("/search", catalogHandler.SearchItems)
	items.Post("/create", mandatory, catalogHandler.CreateItem)
	items.Put("/update", mandatory, catalogHandler.UpdateItem)
	items.Delete("/delete/:item_id", mandatory, catalogHandler.DeleteItem)
	items.Get("/:id", catalogHandler.GetItem)

	products := app.Group("/products")
	products.Get("/vendor", mandatory, productHandler.ListVendor)
	products.Get("/all", productHandler.List)
	products.Get("/search", productHandler.Search)
	products.Post("/create", mandatory, productHandler.Create)
	products.Put("/update", mandatory, productHandler.Update)
	products.Delete("/delete", mandatory, productHandler.Delete)
	products.Put("/rating", mandatory, productHandler.Rate)
	products.Put("/comment", mandatory, productHandler.Comment)
	products.Get("/:id", productHandler.Get)

	// Cart and checkout
	cart := app.Group("/cart", mandatory)
	cart.Get("/all", cartHandler.List)
	cart.Post("/add", cartHandler.Add)
	cart.Put("/update", cartHandler.Update)
	cart.Get("/remove", cartHandler.Remove)
	cart.Put("/clear", cartHandler.Clear)

	orders := app.Group("/orders", mandatory)
	orders.Post("/order", orderHandler.Place)
	orders.Post("/verify", orderHandler.Verify)
	orders.Put("/order", orderHandler.UpdateStatus)
	orders.Get("/all", orderHandler.List)
	orders.Get("/vendor", orderHandler.ListVendor)
	orders.Get("/orders", middleware.Require(auth.CapViewAllOrders), orderHandler.ListAll)

	payments := app.Group("/payments", mandatory)
	payments.Post("/discount", middleware.Require(auth.CapManageDiscounts), paymentHandler.CreateDiscount)
	payments.Get("/discount", middleware.Require(auth.CapViewDiscounts), paymentHandler.ListDiscounts)
	payments.Put("/discount", middleware.Require(auth.CapManageDiscounts), paymentHandler.UpdateDiscount)
	payments.Get("/user", paymentHandler.UserInvoices)
	payments.Get("/vendor", paymentHandler.VendorInvoices)
	payments.Get("/vendor/pending", paymentHandler.PendingVendorInvoices)
	payments.Put("/invoice", middleware.Require(auth.CapSettleInvoices), paymentHandler.SettleInvoice)

	wishlists := app.Group("/wishlists", mandatory)
	wishlists.Get("/all", wishlistHandler.List)
	wishlists.Post("/add", wishlistHandler.Add)
	wishlists.Delete("/remove/:id", wishlistHandler.Remove)
	wishlists.Delete("/delete", wishlistHandler.Delete)
	wishlists.Get("/:id", wishlistHandler.Get)

	// Staff
	admin := app.Group("/admin", mandatory)
	admin.Get("/stats", middleware.Require(auth.CapViewAllOrders), adminHandler.DashboardStats)
	admin.Get("/users", middleware.Require(auth.CapManageUsers), adminHandler.ListUsers)

	app.Static("/", deps.Config.StaticDir)
}
