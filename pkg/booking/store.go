package booking

import "context"

// Store is the persistence contract shared by the booking services. Every
// multi-step mutation runs inside WithTx; an error from the closure rolls
// the whole transaction back.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error

	// Tariff zones. GetTariffZoneForUpdate locks the row for the lifetime
	// of the enclosing transaction.
	CreateTariffZone(ctx context.Context, zone TariffZone) (TariffZone, error)
	GetTariffZone(ctx context.Context, zoneID string) (TariffZone, error)
	GetTariffZoneForUpdate(ctx context.Context, zoneID string) (TariffZone, error)
	SetTariffZoneAvailable(ctx context.Context, zoneID string, availableTables int64) error
	ListTariffZones(ctx context.Context, festivalID string) ([]TariffZone, error)

	// External reference data.
	FestivalExists(ctx context.Context, festivalID string) (bool, error)
	GetOrCreateExhibitor(ctx context.Context, email string, name string) (Exhibitor, error)

	// Workflows.
	GetOrCreateWorkflow(ctx context.Context, exhibitorID string, festivalID string) (Workflow, error)
	UpdateWorkflowState(ctx context.Context, workflowID string, state WorkflowState) error
	UpdateWorkflowFlags(ctx context.Context, workflowID string, flags WorkflowFlags) error

	// Reservations.
	InsertReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	GetReservation(ctx context.Context, reservationID string) (Reservation, error)
	UpdateReservation(ctx context.Context, reservation Reservation) error
	DeleteReservation(ctx context.Context, reservationID string) error
	ReservationExists(ctx context.Context, exhibitorID string, festivalID string) (bool, error)
	GetReservationDetail(ctx context.Context, reservationID string) (ReservationDetail, error)

	// Tariff allocations.
	InsertTariffAllocation(ctx context.Context, allocation TariffAllocation) error
	ListTariffAllocations(ctx context.Context, reservationID string) ([]TariffAllocation, error)
	DeleteTariffAllocations(ctx context.Context, reservationID string) error

	// Game allocations.
	InsertGameAllocation(ctx context.Context, allocation GameAllocation) (GameAllocation, error)
	GetGameAllocation(ctx context.Context, allocationID string) (GameAllocation, error)
	UpdateGameAllocationPlacement(ctx context.Context, allocationID string, floorZoneID string, tablesOccupied int64) error
	DeleteGameAllocations(ctx context.Context, reservationID string) error
	ListUnallocatedGameAllocations(ctx context.Context, festivalID string) ([]GameAllocation, error)
	SumGameTablesInFloorZone(ctx context.Context, floorZoneID string, excludeAllocationID string) (int64, error)

	// Floor zones.
	InsertFloorZone(ctx context.Context, zone FloorZone) (FloorZone, error)
	GetFloorZone(ctx context.Context, floorZoneID string) (FloorZone, error)
	UpdateFloorZone(ctx context.Context, zone FloorZone) error
	DeleteFloorZone(ctx context.Context, floorZoneID string) error
	ListFloorZones(ctx context.Context, festivalID string) ([]FloorZone, error)
	SumFloorZoneTables(ctx context.Context, tariffZoneID string, excludeFloorZoneID string) (int64, error)
	CountFloorZoneReferences(ctx context.Context, floorZoneID string) (int64, error)

	// Reservation placements.
	GetReservationPlacement(ctx context.Context, reservationID string, floorZoneID string) (ReservationPlacement, bool, error)
	UpsertReservationPlacement(ctx context.Context, placement ReservationPlacement) error
	DeleteReservationPlacement(ctx context.Context, reservationID string, floorZoneID string) error
	DeleteReservationPlacements(ctx context.Context, reservationID string) error
	SumPlacementTablesInFloorZone(ctx context.Context, floorZoneID string, excludeReservationID string) (int64, error)
	SumPlacementTablesInTariffZone(ctx context.Context, reservationID string, tariffZoneID string, excludeFloorZoneID string) (int64, error)
}
