// Package server assembles the Gin engine: middleware chain and the
// role-gated route groups, wired to the handlers package.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"room-reservation-api/internal/auth"
	"room-reservation-api/internal/booking"
	"room-reservation-api/internal/clock"
	"room-reservation-api/internal/config"
	"room-reservation-api/internal/directory"
	"room-reservation-api/internal/events"
	"room-reservation-api/internal/handlers"
	"room-reservation-api/internal/middleware"
	"room-reservation-api/internal/models"
	"room-reservation-api/internal/realtime"
	"room-reservation-api/internal/reports"
	"room-reservation-api/internal/store"
)

// Deps is everything the route tree needs, assembled by cmd/app/main.go.
type Deps struct {
	Config      config.Config
	Store       store.Store
	Coordinator *booking.Coordinator
	Directory   *directory.Service
	Reports     *reports.Service
	Issuer      *auth.TokenIssuer
	Tokens      auth.TokenStore
	Calendar    *clock.Calendar
	Bus         *events.Bus
	Logger      *slog.Logger
}

// New builds the Gin engine with every route group and returns it ready
// for http.Server.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(d.Logger), middleware.RequestLogger(d.Logger), middleware.CORS(d.Config.CORSOrigins))

	authHandler := handlers.NewAuthHandler(d.Store, d.Issuer, d.Tokens, d.Directory, d.Config.ResetTokenTTL)
	reservationHandler := handlers.NewReservationHandler(d.Coordinator, d.Store)
	roomHandler := handlers.NewRoomHandler(d.Directory, d.Store)
	departmentHandler := handlers.NewDepartmentHandler(d.Directory)
	userHandler := handlers.NewUserHandler(d.Directory)
	reportHandler := handlers.NewReportHandler(d.Reports, d.Calendar)
	hub := realtime.NewHub(d.Bus, d.Logger)

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	public := r.Group("/api/v1")
	{
		public.POST("/auth/login", authHandler.Login)
		public.POST("/auth/register", authHandler.Register)
		public.POST("/auth/refresh", authHandler.Refresh)
		public.POST("/auth/forgot-password", authHandler.ForgotPassword)
		public.POST("/auth/reset-password", authHandler.ResetPassword)
		public.GET("/rooms", roomHandler.List)
		public.GET("/rooms/:id", roomHandler.Get)
		public.GET("/rooms/available", roomHandler.Available)
		public.GET("/rooms/:id/availability", roomHandler.Availability)
		public.GET("/departments", departmentHandler.List)
		public.GET("/departments/:id", departmentHandler.Get)
	}

	protected := r.Group("/api/v1")
	protected.Use(middleware.Auth(d.Issuer))
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.GET("/ws", func(c *gin.Context) { hub.Serve(c.Writer, c.Request) })

		protected.GET("/reservations", reservationHandler.List)
		protected.GET("/reservations/:id", reservationHandler.Get)
		protected.POST("/reservations", reservationHandler.Create)
		protected.PUT("/reservations/:id", reservationHandler.Update)
		protected.DELETE("/reservations/:id", reservationHandler.Cancel)

		protected.GET("/users/:id", userHandler.Get)
		protected.PUT("/users/me", userHandler.UpdateProfile)

		manager := protected.Group("")
		manager.Use(middleware.RequireRole(models.RoleAdmin, models.RoleManager))
		{
			manager.POST("/reservations/:id/approve", reservationHandler.Approve)
			manager.POST("/reservations/:id/reject", reservationHandler.Reject)
			manager.GET("/reports/usage", reportHandler.Usage)
			manager.GET("/reports/occupancy", reportHandler.Occupancy)
			manager.GET("/reports/department-usage", reportHandler.DepartmentUsage)
			manager.GET("/reports/user-activity", reportHandler.UserActivity)
			manager.GET("/reports/statistics", reportHandler.Statistics)
		}

		admin := protected.Group("")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.GET("/users", userHandler.List)
			admin.PUT("/users/:id/role", userHandler.UpdateRole)

			admin.POST("/rooms", roomHandler.Create)
			admin.PUT("/rooms/:id", roomHandler.Update)
			admin.DELETE("/rooms/:id", roomHandler.Delete)

			admin.POST("/departments", departmentHandler.Create)
			admin.PUT("/departments/:id", departmentHandler.Update)
			admin.DELETE("/departments/:id", departmentHandler.Delete)
		}
	}

	return r
}

// Run starts the HTTP server and blocks until ctx is cancelled, then
// drains in-flight requests within the given grace period.
func Run(ctx context.Context, addr string, engine *gin.Engine, shutdownGrace time.Duration, logger *slog.Logger) error {
	srv := &http.Server{Addr: addr, Handler: engine}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	logger.Info("shutting down http server")
	return srv.Shutdown(shutdownCtx)
}
