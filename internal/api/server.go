package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sparedge/sparedge/internal/config"
	"github.com/sparedge/sparedge/internal/registration"
)

func StartAPIServer(e *echo.Echo, h *Handlers) {
	e.Use(middleware.Recover())

	// Routes
	e.POST("/invoke", h.InvokeFunction)
	e.GET("/instances", h.GetInstances)
	e.GET("/resources", h.GetResources)
	e.GET("/emergency", h.GetEmergency)
	e.GET("/status", h.GetStatus)

	// Start server
	portNumber := config.GetInt(config.API_PORT, 8085)
	e.HideBanner = true

	if err := e.Start(fmt.Sprintf(":%d", portNumber)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		e.Logger.Fatal("shutting down the server")
	}
}

// RegisterTerminationHandler cleans up on SIGINT: deregister from etcd, drain
// the broker connection and stop the API server.
func RegisterTerminationHandler(r *registration.Registry, mon *registration.Monitor, e *echo.Echo, stops ...func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		sig := <-c
		fmt.Printf("Got %s signal. Terminating...\n", sig)

		for _, stop := range stops {
			stop()
		}
		if mon != nil {
			mon.Close()
		}

		// deregister from etcd; server should be unreachable
		if err := r.Deregister(); err != nil {
			log.Printf("Deregistration failed: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(ctx); err != nil {
			e.Logger.Fatal(err)
		}

		os.Exit(0)
	}()
}
