package booking

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the booking services.
var (
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrFloorCapacityExceeded = errors.New("floor capacity exceeded")
	ErrReservationExists     = errors.New("reservation already exists")
	ErrFloorZoneInUse        = errors.New("floor zone in use")
	ErrTransitionNotAllowed  = errors.New("workflow transition not allowed")
	ErrFestivalMismatch      = errors.New("festival mismatch")
	ErrZoneNotFound          = errors.New("tariff zone not found")
	ErrFestivalNotFound      = errors.New("festival not found")
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrFloorZoneNotFound     = errors.New("floor zone not found")
	ErrAllocationNotFound    = errors.New("game allocation not found")
	ErrWorkflowNotFound      = errors.New("workflow not found")
	ErrInvalidFestivalID     = errors.New("invalid festival id")
	ErrInvalidExhibitorID    = errors.New("invalid exhibitor id")
	ErrInvalidZoneID         = errors.New("invalid tariff zone id")
	ErrInvalidFloorZoneID    = errors.New("invalid floor zone id")
	ErrInvalidReservationID  = errors.New("invalid reservation id")
	ErrInvalidGameID         = errors.New("invalid game id")
	ErrInvalidAllocationID   = errors.New("invalid game allocation id")
	ErrInvalidEmailAddress   = errors.New("invalid email address")
	ErrInvalidZoneName       = errors.New("invalid zone name")
	ErrInvalidTableCount     = errors.New("invalid table count")
	ErrInvalidAmountCents    = errors.New("invalid amount cents")
	ErrInvalidPaymentStatus  = errors.New("invalid payment status")
	ErrInvalidWorkflowState  = errors.New("invalid workflow state")
	ErrInvalidInput          = errors.New("invalid input")
	ErrInvalidServiceConfig  = errors.New("invalid service config")
)

// InsufficientStockError reports a failed tariff-zone reservation with the
// counts needed to render an actionable message.
type InsufficientStockError struct {
	ZoneID    string
	Available int64
	Requested int64
}

// Error returns the formatted error message.
func (stockError InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock in zone %s: %d available, %d requested", stockError.ZoneID, stockError.Available, stockError.Requested)
}

// Is matches the ErrInsufficientStock sentinel.
func (stockError InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// CapacityError reports a floor-zone placement that would exceed its bound.
type CapacityError struct {
	FloorZoneID string
	Available   int64
	Requested   int64
}

// Error returns the formatted error message.
func (capacityError CapacityError) Error() string {
	return fmt.Sprintf("capacity exceeded in floor zone %s: %d available, %d requested", capacityError.FloorZoneID, capacityError.Available, capacityError.Requested)
}

// Is matches the ErrFloorCapacityExceeded sentinel.
func (capacityError CapacityError) Is(target error) bool {
	return target == ErrFloorCapacityExceeded
}

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
