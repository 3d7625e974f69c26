package booking

import (
	"context"
	"fmt"
)

// FloorPlanService manages floor zones and both placement strategies:
// per-item game allocations and whole-reservation placements. The two
// strategies share the same floor-zone capacity primitives but keep
// independent usage sums. Concurrent writers to the same floor zone are
// last-write-wins outside the transactional bound checks.
type FloorPlanService struct {
	store  Store
	logger OperationLogger
}

// NewFloorPlanService wires a FloorPlanService.
func NewFloorPlanService(store Store, options ...Option) (*FloorPlanService, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	settings := applyOptions(options)
	return &FloorPlanService{store: store, logger: settings.logger}, nil
}

// CreateFloorZone creates a placement area under an existing tariff zone of
// the same festival. The sum of floor-zone tables under one tariff zone may
// not exceed that tariff zone's total capacity.
func (service *FloorPlanService) CreateFloorZone(ctx context.Context, input FloorZoneInput) (FloorZone, error) {
	var created FloorZone
	if input.FestivalID == (FestivalID{}) {
		return created, fmt.Errorf("%w: festival id is required", ErrInvalidInput)
	}
	if input.TariffZoneID == (TariffZoneID{}) {
		return created, fmt.Errorf("%w: tariff zone id is required", ErrInvalidInput)
	}
	if input.Name == (ZoneName{}) {
		return created, fmt.Errorf("%w: zone name is required", ErrInvalidInput)
	}
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		exists, err := transactionStore.FestivalExists(ctx, input.FestivalID.String())
		if err != nil {
			return err
		}
		if !exists {
			return ErrFestivalNotFound
		}
		tariffZone, err := transactionStore.GetTariffZone(ctx, input.TariffZoneID.String())
		if err != nil {
			return err
		}
		if tariffZone.FestivalID != input.FestivalID.String() {
			return fmt.Errorf("%w: tariff zone %s belongs to another festival", ErrFestivalMismatch, tariffZone.ZoneID)
		}
		if err := service.checkTariffCapacity(ctx, transactionStore, tariffZone, "", input.TableCount.Int64()); err != nil {
			return err
		}
		zone, err := transactionStore.InsertFloorZone(ctx, FloorZone{
			FestivalID:   input.FestivalID.String(),
			TariffZoneID: input.TariffZoneID.String(),
			Name:         input.Name.String(),
			TableCount:   input.TableCount.Int64(),
		})
		if err != nil {
			return err
		}
		created = zone
		return nil
	})
	logOperation(ctx, service.logger, OperationLog{
		Operation:   operationFloorZoneCreate,
		FestivalID:  input.FestivalID.String(),
		ZoneID:      input.TariffZoneID.String(),
		FloorZoneID: created.FloorZoneID,
		Tables:      input.TableCount.Int64(),
		Error:       operationError,
	})
	return created, operationError
}

// ResizeFloorZone renames a floor zone or changes its table count. A nil
// table count leaves the stored count unchanged. A new count must still
// fit under the tariff zone's total and cannot shrink below tables already
// placed in the zone by either strategy.
func (service *FloorPlanService) ResizeFloorZone(ctx context.Context, floorZoneID FloorZoneID, name ZoneName, tableCount *TableCount) (FloorZone, error) {
	var updated FloorZone
	var appliedTables int64
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		zone, err := transactionStore.GetFloorZone(ctx, floorZoneID.String())
		if err != nil {
			return err
		}
		newCount := zone.TableCount
		if tableCount != nil {
			newCount = tableCount.Int64()
		}
		appliedTables = newCount
		tariffZone, err := transactionStore.GetTariffZone(ctx, zone.TariffZoneID)
		if err != nil {
			return err
		}
		if err := service.checkTariffCapacity(ctx, transactionStore, tariffZone, zone.FloorZoneID, newCount); err != nil {
			return err
		}
		placed, err := service.maxPlacedTables(ctx, transactionStore, zone.FloorZoneID)
		if err != nil {
			return err
		}
		if newCount < placed {
			return CapacityError{FloorZoneID: zone.FloorZoneID, Available: placed, Requested: newCount}
		}
		if name != (ZoneName{}) {
			zone.Name = name.String()
		}
		zone.TableCount = newCount
		if err := transactionStore.UpdateFloorZone(ctx, zone); err != nil {
			return err
		}
		updated = zone
		return nil
	})
	logOperation(ctx, service.logger, OperationLog{
		Operation:   operationFloorZoneUpdate,
		FloorZoneID: floorZoneID.String(),
		Tables:      appliedTables,
		Error:       operationError,
	})
	return updated, operationError
}

// DeleteFloorZone removes a floor zone unless any game allocation or
// reservation placement still references it.
func (service *FloorPlanService) DeleteFloorZone(ctx context.Context, floorZoneID FloorZoneID) error {
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if _, err := transactionStore.GetFloorZone(ctx, floorZoneID.String()); err != nil {
			return err
		}
		references, err := transactionStore.CountFloorZoneReferences(ctx, floorZoneID.String())
		if err != nil {
			return err
		}
		if references > 0 {
			return fmt.Errorf("%w: %d allocations reference floor zone %s", ErrFloorZoneInUse, references, floorZoneID.String())
		}
		return transactionStore.DeleteFloorZone(ctx, floorZoneID.String())
	})
	logOperation(ctx, service.logger, OperationLog{
		Operation:   operationFloorZoneDelete,
		FloorZoneID: floorZoneID.String(),
		Error:       operationError,
	})
	return operationError
}

// ListFloorZones returns the floor zones of a festival.
func (service *FloorPlanService) ListFloorZones(ctx context.Context, festivalID FestivalID) ([]FloorZone, error) {
	return service.store.ListFloorZones(ctx, festivalID.String())
}

// ListUnallocated returns a festival's game allocations still in the
// unallocated pool.
func (service *FloorPlanService) ListUnallocated(ctx context.Context, festivalID FestivalID) ([]GameAllocation, error) {
	return service.store.ListUnallocatedGameAllocations(ctx, festivalID.String())
}

// AssignGame places a game allocation into a floor zone with an explicit
// table count, bounded by the zone's remaining per-item capacity. A zero
// tablesOccupied falls back to the item's required table size.
func (service *FloorPlanService) AssignGame(ctx context.Context, allocationID AllocationID, floorZoneID FloorZoneID, tablesOccupied TableCount) (GameAllocation, error) {
	var updated GameAllocation
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		allocation, err := transactionStore.GetGameAllocation(ctx, allocationID.String())
		if err != nil {
			return err
		}
		zone, err := transactionStore.GetFloorZone(ctx, floorZoneID.String())
		if err != nil {
			return err
		}
		tables := tablesOccupied.Int64()
		if tables == 0 {
			tables = allocation.RequiredTableSize
		}
		occupied, err := transactionStore.SumGameTablesInFloorZone(ctx, zone.FloorZoneID, allocation.AllocationID)
		if err != nil {
			return err
		}
		if occupied+tables > zone.TableCount {
			return CapacityError{
				FloorZoneID: zone.FloorZoneID,
				Available:   zone.TableCount - occupied,
				Requested:   tables,
			}
		}
		if err := transactionStore.UpdateGameAllocationPlacement(ctx, allocation.AllocationID, zone.FloorZoneID, tables); err != nil {
			return err
		}
		updated = allocation
		updated.FloorZoneID = zone.FloorZoneID
		updated.TablesOccupied = tables
		return nil
	})
	logOperation(ctx, service.logger, OperationLog{
		Operation:   operationGameAssign,
		FloorZoneID: floorZoneID.String(),
		Tables:      updated.TablesOccupied,
		Detail:      allocationID.String(),
		Error:       operationError,
	})
	return updated, operationError
}

// ClearGame returns a game allocation to the unallocated pool.
func (service *FloorPlanService) ClearGame(ctx context.Context, allocationID AllocationID) (GameAllocation, error) {
	var updated GameAllocation
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		allocation, err := transactionStore.GetGameAllocation(ctx, allocationID.String())
		if err != nil {
			return err
		}
		if err := transactionStore.UpdateGameAllocationPlacement(ctx, allocation.AllocationID, "", 0); err != nil {
			return err
		}
		updated = allocation
		updated.FloorZoneID = ""
		updated.TablesOccupied = 0
		return nil
	})
	logOperation(ctx, service.logger, OperationLog{
		Operation: operationGameClear,
		Detail:    allocationID.String(),
		Error:     operationError,
	})
	return updated, operationError
}

// PlaceReservation sets a whole reservation's table count in one floor
// zone. The count is bounded by the smaller of (a) the tables the
// reservation reserved in the zone's tariff zone minus what it already
// placed elsewhere in that tariff zone and (b) the floor zone's remaining
// capacity across all reservations. An existing placement is subtracted
// from both sums before the check, so growing within the same zone is not
// blocked by itself. A zero count clears the placement.
func (service *FloorPlanService) PlaceReservation(ctx context.Context, reservationID ReservationID, floorZoneID FloorZoneID, tables TableCount) error {
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		reservation, err := transactionStore.GetReservation(ctx, reservationID.String())
		if err != nil {
			return err
		}
		zone, err := transactionStore.GetFloorZone(ctx, floorZoneID.String())
		if err != nil {
			return err
		}
		if tables == 0 {
			return transactionStore.DeleteReservationPlacement(ctx, reservation.ReservationID, zone.FloorZoneID)
		}
		reservedInTariff, err := service.tablesReservedInTariffZone(ctx, transactionStore, reservation.ReservationID, zone.TariffZoneID)
		if err != nil {
			return err
		}
		placedElsewhere, err := transactionStore.SumPlacementTablesInTariffZone(ctx, reservation.ReservationID, zone.TariffZoneID, zone.FloorZoneID)
		if err != nil {
			return err
		}
		zoneUsed, err := transactionStore.SumPlacementTablesInFloorZone(ctx, zone.FloorZoneID, reservation.ReservationID)
		if err != nil {
			return err
		}
		bound := reservedInTariff - placedElsewhere
		if remaining := zone.TableCount - zoneUsed; remaining < bound {
			bound = remaining
		}
		if tables.Int64() > bound {
			if bound < 0 {
				bound = 0
			}
			return CapacityError{FloorZoneID: zone.FloorZoneID, Available: bound, Requested: tables.Int64()}
		}
		return transactionStore.UpsertReservationPlacement(ctx, ReservationPlacement{
			ReservationID: reservation.ReservationID,
			FloorZoneID:   zone.FloorZoneID,
			Tables:        tables.Int64(),
		})
	})
	logOperation(ctx, service.logger, OperationLog{
		Operation:     operationPlacementSet,
		ReservationID: reservationID.String(),
		FloorZoneID:   floorZoneID.String(),
		Tables:        tables.Int64(),
		Error:         operationError,
	})
	return operationError
}

func (service *FloorPlanService) checkTariffCapacity(ctx context.Context, transactionStore Store, tariffZone TariffZone, excludeFloorZoneID string, tableCount int64) error {
	assigned, err := transactionStore.SumFloorZoneTables(ctx, tariffZone.ZoneID, excludeFloorZoneID)
	if err != nil {
		return err
	}
	if assigned+tableCount > tariffZone.TotalTables {
		return CapacityError{
			FloorZoneID: excludeFloorZoneID,
			Available:   tariffZone.TotalTables - assigned,
			Requested:   tableCount,
		}
	}
	return nil
}

func (service *FloorPlanService) maxPlacedTables(ctx context.Context, transactionStore Store, floorZoneID string) (int64, error) {
	gameTables, err := transactionStore.SumGameTablesInFloorZone(ctx, floorZoneID, "")
	if err != nil {
		return 0, err
	}
	placementTables, err := transactionStore.SumPlacementTablesInFloorZone(ctx, floorZoneID, "")
	if err != nil {
		return 0, err
	}
	if placementTables > gameTables {
		return placementTables, nil
	}
	return gameTables, nil
}

func (service *FloorPlanService) tablesReservedInTariffZone(ctx context.Context, transactionStore Store, reservationID string, tariffZoneID string) (int64, error) {
	allocations, err := transactionStore.ListTariffAllocations(ctx, reservationID)
	if err != nil {
		return 0, err
	}
	for _, allocation := range allocations {
		if allocation.TariffZoneID == tariffZoneID {
			return allocation.TablesReserved, nil
		}
	}
	return 0, nil
}
