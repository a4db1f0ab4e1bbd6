package main

import (
	"time"

	"procurement-service/internal/handler"
	"procurement-service/internal/middleware"
	"procurement-service/pkg/config"
	"procurement-service/pkg/database"
	"procurement-service/pkg/jwtutil"
	"procurement-service/pkg/logger"
	"procurement-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting procurement service...", zap.String("environment", cfg.Server.Env))

	// Initialize JWT utilities
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utilities initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	httpMetrics := prometheus.NewHTTPMetrics(cfg.ServiceName)
	log.Info("Prometheus metrics initialized")

	// Initialize database and run migrations
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed",
		zap.String("db_host", cfg.DB.Host),
		zap.String("db_name", cfg.DB.DBName))

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(httpMetrics.Middleware())

	// Request logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Process request
			err := next(c)

			// Log request details
			log := logger.FromContext(c)
			log.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Float64("duration_s", time.Since(start).Seconds()),
				zap.String("ip", c.RealIP()),
			)

			return err
		}
	})

	// Routes
	// Public routes that don't require authentication
	e.GET("/", handler.Hello)
	e.GET("/health", handler.Hello)

	// Prometheus metrics endpoint
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	// API routes that require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Supplier endpoints
	suppliers := api.Group("/suppliers")
	suppliers.POST("", handler.CreateSupplier)
	suppliers.GET("", handler.ListSuppliers)
	suppliers.GET("/suggest", handler.SuggestSuppliers)
	suppliers.GET("/:id", handler.GetSupplier)
	suppliers.GET("/:id/stats", handler.GetSupplierStats)
	suppliers.PUT("/:id", handler.UpdateSupplier)
	suppliers.DELETE("/:id", handler.DeleteSupplier)

	// Invoice endpoints
	invoices := api.Group("/invoices")
	invoices.POST("", handler.CreateInvoice)
	invoices.GET("", handler.ListInvoices)
	invoices.GET("/:id", handler.GetInvoice)
	invoices.PUT("/:id", handler.UpdateInvoice)
	invoices.DELETE("/:id", handler.DeleteInvoice)
	invoices.PUT("/:id/purchase-order", handler.LinkInvoicePurchaseOrder)
	invoices.DELETE("/:id/purchase-order", handler.UnlinkInvoicePurchaseOrder)

	// Payment endpoints
	payments := api.Group("/payments")
	payments.POST("", handler.CreatePayment)
	payments.GET("", handler.ListPayments)
	payments.PUT("/:id", handler.UpdatePayment)
	payments.DELETE("/:id", handler.DeletePayment)

	// Purchase order endpoints
	orders := api.Group("/purchase-orders")
	orders.POST("", handler.CreatePurchaseOrder)
	orders.GET("", handler.ListPurchaseOrders)
	orders.GET("/:id", handler.GetPurchaseOrder)
	orders.GET("/:id/summary", handler.GetPurchaseOrderSummary)
	orders.PUT("/:id", handler.UpdatePurchaseOrder)
	orders.DELETE("/:id", handler.DeletePurchaseOrder)

	// Dashboard
	api.GET("/dashboard", handler.GetDashboard)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
