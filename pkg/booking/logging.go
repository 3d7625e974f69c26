package booking

import "context"

// Option configures a booking service instance.
type Option func(*settings)

type settings struct {
	logger OperationLogger
}

func applyOptions(options []Option) settings {
	var applied settings
	for _, option := range options {
		if option != nil {
			option(&applied)
		}
	}
	return applied
}

// OperationLogger records domain-level events emitted by service operations.
type OperationLogger interface {
	LogOperation(ctx context.Context, entry OperationLog)
}

// OperationLog describes a state-changing booking operation.
type OperationLog struct {
	Operation     string
	FestivalID    string
	ExhibitorID   string
	ReservationID string
	ZoneID        string
	FloorZoneID   string
	Tables        int64
	Detail        string
	Status        string
	Error         error
}

// WithOperationLogger wires a logger that receives callbacks for every operation.
func WithOperationLogger(logger OperationLogger) Option {
	return func(applied *settings) {
		applied.logger = logger
	}
}

func logOperation(ctx context.Context, logger OperationLogger, entry OperationLog) {
	if logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	logger.LogOperation(ctx, entry)
}
