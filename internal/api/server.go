// Package api serves the ledger over HTTP with gin. Every JSON response uses
// the {success, data, error, errors, message} envelope.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tally-dev/tally/internal/auth"
	"github.com/tally-dev/tally/internal/backup"
	"github.com/tally-dev/tally/internal/ledger"
	"github.com/tally-dev/tally/internal/recurring"
	"github.com/tally-dev/tally/internal/savings"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the handlers call.
type Deps struct {
	Ledger    *ledger.Service
	Templates *recurring.Service
	Processor *recurring.Processor
	Savings   *savings.Service
	Auth      *auth.Service
	Backup    *backup.Service
	Store     Pinger

	// Location decides what "today" is for export file names.
	Location       *time.Location
	AllowedOrigins []string
	Log            zerolog.Logger
	Now            func() time.Time
}

// Server holds the router and its dependencies.
type Server struct {
	deps   Deps
	router *gin.Engine
}

// NewServer builds the router. Call gin.SetMode before this to pick the mode.
func NewServer(d Deps) *Server {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.Local
	}

	r := gin.New()
	r.Use(recovery(d.Log), requestLogger(d.Log))
	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "X-Request-ID"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           time.Hour,
		}))
	}

	s := &Server{deps: d, router: r}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.Group("/api")

	api.GET("/transactions", s.listTransactions)
	api.POST("/transactions", s.createTransaction)
	api.GET("/transactions/export", s.exportTransactions)
	api.GET("/transactions/:id", s.getTransaction)
	api.PUT("/transactions/:id", s.updateTransaction)
	api.DELETE("/transactions/:id", s.deleteTransaction)

	api.GET("/recurring-templates", s.listTemplates)
	api.POST("/recurring-templates", s.createTemplate)
	api.POST("/recurring-templates/process", s.processTemplates)
	api.GET("/recurring-templates/:id", s.getTemplate)
	api.PUT("/recurring-templates/:id", s.updateTemplate)
	api.DELETE("/recurring-templates/:id", s.deleteTemplate)
	api.GET("/recurring-templates/:id/exceptions", s.listExceptions)
	api.POST("/recurring-templates/:id/exceptions", s.setException)
	api.DELETE("/recurring-templates/:id/exceptions/:date", s.clearException)

	api.GET("/savings-accounts", s.listSavings)
	api.POST("/savings-accounts", s.createSavings)
	api.PUT("/savings-accounts/:id", s.updateSavings)
	api.DELETE("/savings-accounts/:id", s.deleteSavings)

	api.GET("/analytics", s.analytics)

	api.GET("/auth/setup", s.authStatus)
	api.POST("/auth/setup", s.authSetup)
	api.POST("/auth/verify", s.authVerify)
	api.GET("/auth/reset", s.authQuestion)
	api.POST("/auth/reset", s.authReset)

	api.GET("/backup", s.backup)
	api.POST("/restore", s.restore)
	api.DELETE("/cleanup", s.cleanup)
	api.GET("/health", s.health)
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenOptions configures the HTTP listener.
type ListenOptions struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, opts ListenOptions) error {
	srv := &http.Server{
		Addr:         opts.Address,
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Log.Info().Str("address", opts.Address).Msg("Server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	s.deps.Log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
