package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/roundrobin/backend/internal/config"
	"github.com/roundrobin/backend/internal/db"
	"github.com/roundrobin/backend/internal/http/handlers"
	"github.com/roundrobin/backend/internal/http/middleware"
	"github.com/roundrobin/backend/internal/routing"
	"github.com/roundrobin/backend/internal/scheduling"

	_ "github.com/roundrobin/backend/docs"
)

func Router(cfg config.Config, store *db.Store, engine *routing.Engine, availability *scheduling.AvailabilityService, bookings *scheduling.BookingService, tokens *scheduling.TokenManager, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:           store,
		Engine:          engine,
		Availability:    availability,
		Bookings:        bookings,
		Tokens:          tokens,
		Validator:       validator.New(),
		Logger:          logger,
		AdminKey:        cfg.AdminKey,
		DefaultDuration: cfg.DefaultDuration,
		NoShowGrace:     cfg.NoShowGrace,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/records", h.RecordsList)
		api.GET("/records/:id", h.RecordDetails)
		api.GET("/rulesets", h.RulesetsList)
		api.GET("/groups", h.GroupsList)
		api.GET("/users/:id/availability", h.UserAvailability)
		api.GET("/users/:id/calendar/status", h.CalendarStatus)
		api.GET("/bookings", h.BookingsList)
		api.GET("/bookings/:id", h.BookingDetails)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/records", h.CreateRecord)
		admin.POST("/webhooks/records", h.WebhookRecord)
		admin.POST("/records/:id/route", h.RouteRecord)
		admin.POST("/records/:id/route-to-group", h.RouteToGroup)
		admin.POST("/bookings", h.CreateBooking)
		admin.PATCH("/bookings/:id", h.UpdateBooking)
		admin.POST("/bookings/:id/reschedule", h.RescheduleBooking)
		admin.POST("/bookings/detect-no-shows", h.DetectNoShows)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
