package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"carpool/internal/handler"
	"carpool/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler         *handler.RideHandler
	BookingHandler      *handler.BookingHandler
	PaymentHandler      *handler.PaymentHandler
	NotificationHandler *handler.NotificationHandler
	RedisClient         *redis.Client
	NewRelicApp         *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.Idempotency(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes. Every command requires the actor headers set by the
	// upstream auth collaborator.
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthContext())
	{
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.CreateRide)
			rides.GET("", deps.RideHandler.ListAvailable)
			rides.GET("/mine", deps.RideHandler.MyRides)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/book", deps.BookingHandler.BookSeat)
			rides.POST("/:id/start", deps.BookingHandler.StartRide)
			rides.POST("/:id/complete", deps.BookingHandler.CompleteRide)
			rides.POST("/:id/cancel", deps.BookingHandler.CancelRide)
		}

		payments := v1.Group("/payments")
		{
			payments.POST("", deps.PaymentHandler.RecordPaymentIntent)
			payments.GET("/:id", deps.PaymentHandler.GetPayment)
			payments.GET("/:id/qr", deps.PaymentHandler.GetQRPayload)
			payments.POST("/:id/status", deps.PaymentHandler.MarkPaymentStatus)
		}

		v1.GET("/notifications", deps.NotificationHandler.GetNotifications)
	}

	return router
}
