package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nkraemer/slotgrab/api"
	"github.com/nkraemer/slotgrab/config"
	"github.com/nkraemer/slotgrab/internal/service/booking"
	"github.com/nkraemer/slotgrab/internal/service/venues"
)

// NewRouter wires the HTTP handlers onto a gin engine.
func NewRouter(bookingSvc booking.BookingUseCase, venueSvc venues.VenueUseCase) *gin.Engine {
	router := gin.Default()

	api.NewBookingHandler(bookingSvc).Register(router.Group("/bookings"))
	api.NewVenueHandler(venueSvc).Register(router.Group("/venues"))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}

// Run serves HTTP until the context is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
