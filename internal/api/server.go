package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/glpibot/internal/flow"
)

// Messenger delivers outbound replies to the user.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
	SendMenu(ctx context.Context, to string) error
}

// Server is the webhook-facing HTTP server.
type Server struct {
	echo      *echo.Echo
	port      int
	engine    *flow.Engine
	messenger Messenger
}

// NewServer creates a new webhook server.
func NewServer(port int, engine *flow.Engine, messenger Messenger) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	server := &Server{
		echo:      e,
		port:      port,
		engine:    engine,
		messenger: messenger,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// setupRoutes configures all endpoints
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	// Inbound message webhook
	s.echo.POST("/webhook", s.WebhookHandler)
}

// Start begins the server and blocks until an interrupt signal arrives.
func (s *Server) Start() error {
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			s.echo.Logger.Fatal("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}
