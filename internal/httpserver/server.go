// Package httpserver exposes the booking services over a session-guarded
// JSON API.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tyemirov/tauth/pkg/sessionvalidator"
	"go.uber.org/zap"

	"github.com/openfestival/standbook/pkg/booking"
)

// Services bundles the domain services the API fronts.
type Services struct {
	Reservations *booking.ReservationService
	FloorPlan    *booking.FloorPlanService
	Workflows    *booking.WorkflowService
}

// Run boots the HTTP facade using the supplied configuration and blocks
// until ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg Config, services Services, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sessionValidator, err := sessionvalidator.New(sessionvalidator.Config{
		SigningKey: []byte(cfg.SessionSigningKey),
		Issuer:     cfg.SessionIssuer,
		CookieName: cfg.SessionCookieName,
	})
	if err != nil {
		return fmt.Errorf("session validator: %w", err)
	}

	handler := &httpHandler{
		logger:   logger,
		services: services,
	}

	router := setupRouter(cfg, handler, sessionValidator)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("booking api listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func setupRouter(cfg Config, handler *httpHandler, validator *sessionvalidator.Validator) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(validator.GinMiddleware("auth_claims"))

	api.POST("/reservations", handler.handleCreateReservation)
	api.PUT("/reservations/:id", handler.handleUpdateReservation)
	api.DELETE("/reservations/:id", handler.handleDeleteReservation)
	api.GET("/reservations/:id", handler.handleGetReservation)
	api.PUT("/reservations/:id/placements/:floorZoneId", handler.handlePlaceReservation)

	api.POST("/tariff-zones", handler.handleCreateTariffZone)
	api.GET("/festivals/:festivalId/stock", handler.handleStock)
	api.GET("/festivals/:festivalId/floor-zones", handler.handleListFloorZones)
	api.GET("/festivals/:festivalId/game-allocations/unallocated", handler.handleListUnallocated)

	api.POST("/floor-zones", handler.handleCreateFloorZone)
	api.PATCH("/floor-zones/:id", handler.handleResizeFloorZone)
	api.DELETE("/floor-zones/:id", handler.handleDeleteFloorZone)

	api.PATCH("/game-allocations/:id", handler.handleAssignGame)

	api.PATCH("/workflows/state", handler.handleWorkflowState)
	api.PATCH("/workflows/flags", handler.handleWorkflowFlags)

	return router
}

type httpHandler struct {
	logger   *zap.Logger
	services Services
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// respondError maps domain errors onto HTTP statuses, attaching the
// available/requested counts for stock and capacity failures.
func (handler *httpHandler) respondError(ctx *gin.Context, err error) {
	var stockErr booking.InsufficientStockError
	if errors.As(err, &stockErr) {
		ctx.JSON(http.StatusConflict, gin.H{
			"error": gin.H{
				"code":      "insufficient_stock",
				"message":   stockErr.Error(),
				"zone_id":   stockErr.ZoneID,
				"available": stockErr.Available,
				"requested": stockErr.Requested,
			},
		})
		return
	}
	var capacityErr booking.CapacityError
	if errors.As(err, &capacityErr) {
		ctx.JSON(http.StatusConflict, gin.H{
			"error": gin.H{
				"code":          "capacity_exceeded",
				"message":       capacityErr.Error(),
				"floor_zone_id": capacityErr.FloorZoneID,
				"available":     capacityErr.Available,
				"requested":     capacityErr.Requested,
			},
		})
		return
	}
	switch {
	case errors.Is(err, booking.ErrReservationExists):
		ctx.JSON(http.StatusConflict, errorResponse("reservation_exists", err.Error()))
	case errors.Is(err, booking.ErrFloorZoneInUse):
		ctx.JSON(http.StatusConflict, errorResponse("floor_zone_in_use", err.Error()))
	case errors.Is(err, booking.ErrZoneNotFound),
		errors.Is(err, booking.ErrFestivalNotFound),
		errors.Is(err, booking.ErrReservationNotFound),
		errors.Is(err, booking.ErrFloorZoneNotFound),
		errors.Is(err, booking.ErrAllocationNotFound),
		errors.Is(err, booking.ErrWorkflowNotFound):
		ctx.JSON(http.StatusNotFound, errorResponse("not_found", err.Error()))
	case errors.Is(err, booking.ErrFestivalMismatch),
		errors.Is(err, booking.ErrInvalidInput),
		errors.Is(err, booking.ErrInvalidFestivalID),
		errors.Is(err, booking.ErrInvalidExhibitorID),
		errors.Is(err, booking.ErrInvalidZoneID),
		errors.Is(err, booking.ErrInvalidFloorZoneID),
		errors.Is(err, booking.ErrInvalidReservationID),
		errors.Is(err, booking.ErrInvalidGameID),
		errors.Is(err, booking.ErrInvalidAllocationID),
		errors.Is(err, booking.ErrInvalidEmailAddress),
		errors.Is(err, booking.ErrInvalidZoneName),
		errors.Is(err, booking.ErrInvalidTableCount),
		errors.Is(err, booking.ErrInvalidAmountCents),
		errors.Is(err, booking.ErrInvalidPaymentStatus),
		errors.Is(err, booking.ErrInvalidWorkflowState):
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_request", err.Error()))
	default:
		handler.logger.Error("booking request failed", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, errorResponse("internal_error", "request failed"))
	}
}
