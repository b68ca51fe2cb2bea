package routes

import (
	"net/http"
	"time"

	"roomkeeper/handlers"
	"roomkeeper/middleware"
	"roomkeeper/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAvailabilityRoutes registers the public availability search endpoints.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/hotels/:hotelId/availability")
	{
		api.Use(middleware.JWTAuthMiddleware(true))
		api.GET("", hb.SearchAvailabilityHandler)
		api.GET("/calendar", hb.CalendarHandler)
	}
}

// RegisterReservationRoutes registers reservation lifecycle endpoints.
func RegisterReservationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Guests may book anonymously; staff tokens unlock walk-in statuses.
	hotel := r.Group("/api/hotels/:hotelId/reservations")
	{
		hotel.POST("", middleware.JWTAuthMiddleware(true), hb.CreateReservationHandler)
		hotel.GET("", middleware.StaffOnly(), hb.ListReservationsHandler)
	}

	api := r.Group("/api/reservations")
	{
		// Protected routes (Require Authentication)
		api.Use(middleware.JWTAuthMiddleware(false))
		api.GET("/:id", hb.GetReservationHandler)
		api.PATCH("/:id", hb.UpdateReservationHandler)

		staff := api.Group("")
		staff.Use(middleware.StaffOnly())
		staff.POST("/:id/status", hb.ChangeStatusHandler)

		admin := api.Group("")
		admin.Use(middleware.AdminOnly())
		admin.DELETE("/:id", hb.DeleteReservationHandler)
	}
}

// RegisterRoomRoutes registers catalog reads and housekeeping endpoints.
func RegisterRoomRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/hotels/:hotelId")
	{
		api.GET("/room-types", hb.ListRoomTypesHandler)
		api.GET("/units/:number", hb.GetUnitHandler)

		staff := api.Group("")
		staff.Use(middleware.StaffOnly())
		staff.POST("/room-types", hb.CreateRoomTypeHandler)
		staff.POST("/units/:number/events", hb.ApplyRoomEventHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint backed by the health monitor.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		state := "ok"
		if !status.Healthy() {
			code = http.StatusServiceUnavailable
			state = "degraded"
		}
		c.JSON(code, gin.H{"status": state, "checks": status})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	handlers.RegisterValidators()

	RegisterAvailabilityRoutes(r, hb)
	RegisterReservationRoutes(r, hb)
	RegisterRoomRoutes(r, hb)
	RegisterHealthRoute(r)
}
