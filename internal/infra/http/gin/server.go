package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"locadz/internal/infra/config"
	"locadz/internal/infra/obs"
)

type Handlers struct {
	Booking        BookingHTTP
	Host           HostHTTP
	Admin          AdminHTTP
	Listing        ListingHTTP
	Me             MeHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the gin engine with every API route registered.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	registerDocs(router)

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Booking != nil {
		api.POST("/bookings", h.Booking.Create)
		api.POST("/bookings/:id/payment-proofs", h.Booking.SubmitProof)
		api.GET("/bookings/:id/payment-proofs", h.Booking.Proofs)
	}
	if h.Listing != nil {
		api.GET("/listings/:id", h.Listing.Get)
		api.GET("/listings/:id/availability", h.Listing.Availability)
		api.GET("/listings/:id/calendar", h.Listing.Calendar)
		api.GET("/listings/:id/quote", h.Listing.Quote)
	}
	if h.Host != nil {
		hostGroup := api.Group("/host")
		hostGroup.GET("/bookings", h.Host.Bookings)
		hostGroup.POST("/bookings/:id/approve", h.Host.Approve)
		hostGroup.POST("/bookings/:id/reject", h.Host.Reject)
		hostGroup.GET("/revenue", h.Host.Revenue)
		hostGroup.GET("/payouts", h.Host.Payouts)
		hostGroup.GET("/listings", h.Host.Listings)
	}
	if h.Admin != nil {
		adminGroup := api.Group("/admin")
		adminGroup.GET("/payment-proofs", h.Admin.ProofQueue)
		adminGroup.POST("/payment-proofs/:id/approve", h.Admin.ApproveProof)
		adminGroup.POST("/payment-proofs/:id/reject", h.Admin.RejectProof)
		adminGroup.POST("/bookings/:id/cancel", h.Admin.CancelBooking)
		adminGroup.GET("/stats", h.Admin.Stats)
	}
	if h.Me != nil {
		meGroup := api.Group("/me")
		meGroup.GET("/bookings", h.Me.ListBookings)
		meGroup.GET("/notifications", h.Me.Notifications)
		meGroup.POST("/notifications/read-all", h.Me.MarkAllRead)
		meGroup.POST("/notifications/:id/read", h.Me.MarkRead)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
