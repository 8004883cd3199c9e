package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"charter/internal/handler"
	"charter/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	BookingHandler  *handler.BookingHandler
	PaymentHandler  *handler.PaymentHandler
	CallbackHandler *handler.CallbackHandler
	DispatchHandler *handler.DispatchHandler
	TripHandler     *handler.TripHandler
	DriverHandler   *handler.DriverHandler
	CustomerHandler *handler.CustomerHandler
	RedisClient     *redis.Client
	NewRelicApp     *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Customer routes.
		customers := v1.Group("/customers")
		{
			customers.POST("/register", deps.CustomerHandler.Register)
			customers.GET("/:id", deps.CustomerHandler.GetCustomer)
		}

		// Booking routes.
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.CreateBooking)
			bookings.GET("/:ref", deps.BookingHandler.GetBooking)
			bookings.GET("/:ref/status", deps.BookingHandler.GetBookingStatus)
			bookings.GET("/:ref/messages", deps.BookingHandler.ListMessages)
			bookings.POST("/:ref/cancel", deps.BookingHandler.CancelBooking)
			bookings.POST("/:ref/refund", deps.BookingHandler.RefundBooking)
			bookings.POST("/:ref/pay", deps.PaymentHandler.InitiatePayment)

			// Dispatch.
			bookings.POST("/:ref/assign", deps.DispatchHandler.AssignDriver)
			bookings.POST("/:ref/confirm", deps.DispatchHandler.ConfirmDriver)
			bookings.POST("/:ref/reject", deps.DispatchHandler.RejectDriver)

			// Driver trip events.
			bookings.POST("/:ref/depart", deps.TripHandler.Depart)
			bookings.POST("/:ref/arrive", deps.TripHandler.Arrive)
			bookings.POST("/:ref/start", deps.TripHandler.StartTrip)
			bookings.POST("/:ref/end", deps.TripHandler.EndTrip)
		}

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("/register", deps.DriverHandler.Register)
			drivers.GET("/available", deps.DriverHandler.ListAvailable)
			drivers.POST("/:id/status", deps.DriverHandler.SetStatus)
		}

		// Payment gateway callback. The gateway does not send an
		// Idempotency-Key; the settlement path carries its own gate.
		v1.POST("/payments/callback", deps.CallbackHandler.HandleGatewayCallback)
	}

	return router
}
