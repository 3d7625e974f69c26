// Package oplog adapts a zap logger to the booking.OperationLogger callback.
package oplog

import (
	"context"

	"go.uber.org/zap"

	"github.com/openfestival/standbook/pkg/booking"
)

// Logger forwards booking operation logs to zap.
type Logger struct {
	base *zap.Logger
}

// New returns a Logger writing through base.
func New(base *zap.Logger) *Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return &Logger{base: base}
}

// LogOperation records one state-changing booking operation.
func (logger *Logger) LogOperation(_ context.Context, entry booking.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
	}
	if entry.FestivalID != "" {
		fields = append(fields, zap.String("festival_id", entry.FestivalID))
	}
	if entry.ExhibitorID != "" {
		fields = append(fields, zap.String("exhibitor_id", entry.ExhibitorID))
	}
	if entry.ReservationID != "" {
		fields = append(fields, zap.String("reservation_id", entry.ReservationID))
	}
	if entry.ZoneID != "" {
		fields = append(fields, zap.String("zone_id", entry.ZoneID))
	}
	if entry.FloorZoneID != "" {
		fields = append(fields, zap.String("floor_zone_id", entry.FloorZoneID))
	}
	if entry.Tables != 0 {
		fields = append(fields, zap.Int64("tables", entry.Tables))
	}
	if entry.Detail != "" {
		fields = append(fields, zap.String("detail", entry.Detail))
	}
	if entry.Error != nil {
		fields = append(fields, zap.Error(entry.Error))
		logger.base.Warn("booking operation failed", fields...)
		return
	}
	logger.base.Info("booking operation", fields...)
}
