package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"patient-portal/internal/booking"
	"patient-portal/internal/config"
	"patient-portal/internal/handlers"
	"patient-portal/internal/middleware"
	"patient-portal/internal/notify"
	"patient-portal/internal/session"
)

// Backend is what the portal needs from the hospital API.
type Backend interface {
	booking.DoctorDirectory
	booking.AppointmentPoster
	booking.MessagePoster
}

// Dependencies are the long-lived objects the routes are wired to.
type Dependencies struct {
	Config   *config.Config
	Session  *session.Context
	Backend  Backend
	Feed     *notify.Feed
	Booking  booking.Deps
	Gatherer prometheus.Gatherer
}

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	// Initialize handlers
	appointmentHandler := handlers.NewAppointmentHandler(deps.Session, deps.Backend, deps.Backend, deps.Config.Form, deps.Booking)
	messageHandler := handlers.NewMessageHandler(booking.NewMessageController(deps.Backend, deps.Booking))
	sessionHandler := handlers.NewSessionHandler(deps.Session)
	notificationHandler := handlers.NewNotificationHandler(deps.Feed)

	// Public routes (no login required)
	public := router.Group("/api/v1")
	public.Use(middleware.SessionMiddleware(deps.Session, false))
	{
		sessionRoutes := public.Group("/session")
		{
			sessionRoutes.GET("", sessionHandler.GetSession)
			sessionRoutes.PUT("", sessionHandler.SetSession)
			sessionRoutes.DELETE("", sessionHandler.DeleteSession)
		}

		public.GET("/departments", handlers.GetDepartments)
		public.GET("/notifications", notificationHandler.GetNotifications)

		// The contact form is open to everyone
		public.GET("/message", messageHandler.GetMessageForm)
		public.POST("/message", messageHandler.SendMessage)
	}

	// Booking routes, login-gated when REQUIRE_LOGIN is set
	bookingRoutes := router.Group("/api/v1")
	bookingRoutes.Use(middleware.SessionMiddleware(deps.Session, deps.Config.RequireLogin))
	{
		bookingRoutes.GET("/doctors", appointmentHandler.GetDoctors)

		formRoutes := bookingRoutes.Group("/appointment-form")
		{
			formRoutes.GET("", appointmentHandler.GetForm)
			formRoutes.PATCH("", appointmentHandler.UpdateForm)
			formRoutes.DELETE("", appointmentHandler.DeleteForm)
			formRoutes.PUT("/doctor", appointmentHandler.SelectDoctor)
			formRoutes.POST("/submit", appointmentHandler.SubmitForm)
			formRoutes.POST("/reset", appointmentHandler.ResetForm)
		}
	}

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
