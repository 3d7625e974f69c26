package gormstore

import (
	"context"
	"encoding/json"
	"errors"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openfestival/standbook/pkg/booking"
)

const (
	pgUniqueViolationCode = "23505"
	sqliteConstraintCode  = 19
	dialectPostgres       = "postgres"

	errorOperationStore      = "store"
	errorSubjectFestival     = "festival"
	errorSubjectExhibitor    = "exhibitor"
	errorSubjectTariffZone   = "tariff_zone"
	errorSubjectFloorZone    = "floor_zone"
	errorSubjectReservation  = "reservation"
	errorSubjectAllocation   = "allocation"
	errorSubjectPlacement    = "placement"
	errorSubjectWorkflow     = "workflow"
	errorCodeCreate          = "create"
	errorCodeDelete          = "delete"
	errorCodeDuplicate       = "duplicate"
	errorCodeGet             = "get"
	errorCodeInsert          = "insert"
	errorCodeInvalid         = "invalid"
	errorCodeList            = "list"
	errorCodeLookup          = "lookup"
	errorCodeSum             = "sum"
	errorCodeUpdate          = "update"
)

// Store implements booking.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore booking.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

// lockForUpdate appends a row lock on dialects that support it. SQLite has
// no FOR UPDATE syntax and serializes writers on its own.
func (store *Store) lockForUpdate(query *gorm.DB) *gorm.DB {
	if store.db.Dialector.Name() == dialectPostgres {
		return query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return query
}

func (store *Store) CreateTariffZone(ctx context.Context, zone booking.TariffZone) (booking.TariffZone, error) {
	model := TariffZone{
		ZoneID:                   zone.ZoneID,
		FestivalID:               zone.FestivalID,
		Name:                     zone.Name,
		TotalTables:              zone.TotalTables,
		AvailableTables:          zone.AvailableTables,
		PricePerTableCents:       zone.PricePerTableCents,
		PricePerSquareMeterCents: zone.PricePerSquareMeterCents,
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return booking.TariffZone{}, wrapStoreError(errorSubjectTariffZone, errorCodeCreate, err)
	}
	return mapTariffZone(model), nil
}

func (store *Store) GetTariffZone(ctx context.Context, zoneID string) (booking.TariffZone, error) {
	var model TariffZone
	err := store.db.WithContext(ctx).Where("zone_id = ?", zoneID).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.TariffZone{}, wrapStoreError(errorSubjectTariffZone, errorCodeGet, booking.ErrZoneNotFound)
		}
		return booking.TariffZone{}, wrapStoreError(errorSubjectTariffZone, errorCodeGet, err)
	}
	return mapTariffZone(model), nil
}

func (store *Store) GetTariffZoneForUpdate(ctx context.Context, zoneID string) (booking.TariffZone, error) {
	var model TariffZone
	err := store.lockForUpdate(store.db.WithContext(ctx)).Where("zone_id = ?", zoneID).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.TariffZone{}, wrapStoreError(errorSubjectTariffZone, errorCodeGet, booking.ErrZoneNotFound)
		}
		return booking.TariffZone{}, wrapStoreError(errorSubjectTariffZone, errorCodeGet, err)
	}
	return mapTariffZone(model), nil
}

func (store *Store) SetTariffZoneAvailable(ctx context.Context, zoneID string, availableTables int64) error {
	result := store.db.WithContext(ctx).
		Model(&TariffZone{}).
		Where("zone_id = ?", zoneID).
		Update("available_tables", availableTables)
	if result.Error != nil {
		return wrapStoreError(errorSubjectTariffZone, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectTariffZone, errorCodeUpdate, booking.ErrZoneNotFound)
	}
	return nil
}

func (store *Store) ListTariffZones(ctx context.Context, festivalID string) ([]booking.TariffZone, error) {
	var rows []TariffZone
	err := store.db.WithContext(ctx).
		Where("festival_id = ?", festivalID).
		Order("name").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectTariffZone, errorCodeList, err)
	}
	zones := make([]booking.TariffZone, 0, len(rows))
	for _, row := range rows {
		zones = append(zones, mapTariffZone(row))
	}
	return zones, nil
}

func (store *Store) FestivalExists(ctx context.Context, festivalID string) (bool, error) {
	var count int64
	err := store.db.WithContext(ctx).
		Model(&Festival{}).
		Where("festival_id = ?", festivalID).
		Count(&count).Error
	if err != nil {
		return false, wrapStoreError(errorSubjectFestival, errorCodeLookup, err)
	}
	return count > 0, nil
}

func (store *Store) GetOrCreateExhibitor(ctx context.Context, email string, name string) (booking.Exhibitor, error) {
	var model Exhibitor
	err := store.db.WithContext(ctx).
		Where(Exhibitor{Email: email}).
		Attrs(Exhibitor{Name: name}).
		FirstOrCreate(&model).Error
	if err != nil {
		return booking.Exhibitor{}, wrapStoreError(errorSubjectExhibitor, errorCodeLookup, err)
	}
	return booking.Exhibitor{ExhibitorID: model.ExhibitorID, Email: model.Email, Name: model.Name}, nil
}

func (store *Store) GetOrCreateWorkflow(ctx context.Context, exhibitorID string, festivalID string) (booking.Workflow, error) {
	var model Workflow
	err := store.db.WithContext(ctx).
		Where(Workflow{ExhibitorID: exhibitorID, FestivalID: festivalID}).
		Attrs(Workflow{State: booking.StateNoContact.String()}).
		FirstOrCreate(&model).Error
	if err != nil {
		return booking.Workflow{}, wrapStoreError(errorSubjectWorkflow, errorCodeLookup, err)
	}
	return mapWorkflow(model)
}

func (store *Store) UpdateWorkflowState(ctx context.Context, workflowID string, state booking.WorkflowState) error {
	result := store.db.WithContext(ctx).
		Model(&Workflow{}).
		Where("workflow_id = ?", workflowID).
		Update("state", state.String())
	if result.Error != nil {
		return wrapStoreError(errorSubjectWorkflow, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectWorkflow, errorCodeUpdate, booking.ErrWorkflowNotFound)
	}
	return nil
}

func (store *Store) UpdateWorkflowFlags(ctx context.Context, workflowID string, flags booking.WorkflowFlags) error {
	result := store.db.WithContext(ctx).
		Model(&Workflow{}).
		Where("workflow_id = ?", workflowID).
		Updates(map[string]interface{}{
			"requested_game_list": flags.RequestedGameList,
			"obtained_game_list":  flags.ObtainedGameList,
			"received_games":      flags.ReceivedGames,
			"will_present_games":  flags.WillPresentGames,
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectWorkflow, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectWorkflow, errorCodeUpdate, booking.ErrWorkflowNotFound)
	}
	return nil
}

func (store *Store) InsertReservation(ctx context.Context, reservation booking.Reservation) (booking.Reservation, error) {
	discounts, err := marshalDiscounts(reservation.Discounts)
	if err != nil {
		return booking.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
	}
	model := Reservation{
		ReservationID:   reservation.ReservationID,
		ExhibitorID:     reservation.ExhibitorID,
		FestivalID:      reservation.FestivalID,
		WorkflowID:      reservation.WorkflowID,
		StartPriceCents: reservation.StartPriceCents,
		FinalPriceCents: reservation.FinalPriceCents,
		Discounts:       discounts,
		PaymentStatus:   reservation.PaymentStatus.String(),
		Note:            reservation.Note,
	}
	err = store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return booking.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeDuplicate, booking.ErrReservationExists)
	}
	if err != nil {
		return booking.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInsert, err)
	}
	return mapReservation(model)
}

func (store *Store) GetReservation(ctx context.Context, reservationID string) (booking.Reservation, error) {
	var model Reservation
	err := store.db.WithContext(ctx).Where("reservation_id = ?", reservationID).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeGet, booking.ErrReservationNotFound)
		}
		return booking.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeGet, err)
	}
	return mapReservation(model)
}

func (store *Store) UpdateReservation(ctx context.Context, reservation booking.Reservation) error {
	discounts, err := marshalDiscounts(reservation.Discounts)
	if err != nil {
		return wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
	}
	result := store.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("reservation_id = ?", reservation.ReservationID).
		Updates(map[string]interface{}{
			"start_price_cents": reservation.StartPriceCents,
			"final_price_cents": reservation.FinalPriceCents,
			"discounts":         discounts,
			"payment_status":    reservation.PaymentStatus.String(),
			"note":              reservation.Note,
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectReservation, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectReservation, errorCodeUpdate, booking.ErrReservationNotFound)
	}
	return nil
}

func (store *Store) DeleteReservation(ctx context.Context, reservationID string) error {
	result := store.db.WithContext(ctx).Where("reservation_id = ?", reservationID).Delete(&Reservation{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectReservation, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectReservation, errorCodeDelete, booking.ErrReservationNotFound)
	}
	return nil
}

func (store *Store) ReservationExists(ctx context.Context, exhibitorID string, festivalID string) (bool, error) {
	var count int64
	err := store.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("exhibitor_id = ? AND festival_id = ?", exhibitorID, festivalID).
		Count(&count).Error
	if err != nil {
		return false, wrapStoreError(errorSubjectReservation, errorCodeLookup, err)
	}
	return count > 0, nil
}

func (store *Store) GetReservationDetail(ctx context.Context, reservationID string) (booking.ReservationDetail, error) {
	reservation, err := store.GetReservation(ctx, reservationID)
	if err != nil {
		return booking.ReservationDetail{}, err
	}
	var exhibitor Exhibitor
	if err := store.db.WithContext(ctx).Where("exhibitor_id = ?", reservation.ExhibitorID).Take(&exhibitor).Error; err != nil {
		return booking.ReservationDetail{}, wrapStoreError(errorSubjectExhibitor, errorCodeGet, err)
	}
	var workflow Workflow
	if err := store.db.WithContext(ctx).Where("workflow_id = ?", reservation.WorkflowID).Take(&workflow).Error; err != nil {
		return booking.ReservationDetail{}, wrapStoreError(errorSubjectWorkflow, errorCodeGet, err)
	}
	mappedWorkflow, err := mapWorkflow(workflow)
	if err != nil {
		return booking.ReservationDetail{}, err
	}
	allocations, err := store.ListTariffAllocations(ctx, reservationID)
	if err != nil {
		return booking.ReservationDetail{}, err
	}
	var gameRows []GameAllocation
	if err := store.db.WithContext(ctx).Where("reservation_id = ?", reservationID).Order("created_at").Find(&gameRows).Error; err != nil {
		return booking.ReservationDetail{}, wrapStoreError(errorSubjectAllocation, errorCodeList, err)
	}
	games := make([]booking.GameAllocation, 0, len(gameRows))
	for _, row := range gameRows {
		games = append(games, mapGameAllocation(row))
	}
	return booking.ReservationDetail{
		Reservation: reservation,
		Exhibitor:   booking.Exhibitor{ExhibitorID: exhibitor.ExhibitorID, Email: exhibitor.Email, Name: exhibitor.Name},
		Workflow:    mappedWorkflow,
		Allocations: allocations,
		Games:       games,
	}, nil
}

func (store *Store) InsertTariffAllocation(ctx context.Context, allocation booking.TariffAllocation) error {
	model := TariffAllocation{
		ReservationID:  allocation.ReservationID,
		TariffZoneID:   allocation.TariffZoneID,
		TablesReserved: allocation.TablesReserved,
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectAllocation, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) ListTariffAllocations(ctx context.Context, reservationID string) ([]booking.TariffAllocation, error) {
	var rows []TariffAllocation
	err := store.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("tariff_zone_id").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectAllocation, errorCodeList, err)
	}
	allocations := make([]booking.TariffAllocation, 0, len(rows))
	for _, row := range rows {
		allocations = append(allocations, booking.TariffAllocation{
			ReservationID:  row.ReservationID,
			TariffZoneID:   row.TariffZoneID,
			TablesReserved: row.TablesReserved,
		})
	}
	return allocations, nil
}

func (store *Store) DeleteTariffAllocations(ctx context.Context, reservationID string) error {
	err := store.db.WithContext(ctx).Where("reservation_id = ?", reservationID).Delete(&TariffAllocation{}).Error
	if err != nil {
		return wrapStoreError(errorSubjectAllocation, errorCodeDelete, err)
	}
	return nil
}

func (store *Store) InsertGameAllocation(ctx context.Context, allocation booking.GameAllocation) (booking.GameAllocation, error) {
	model := GameAllocation{
		AllocationID:      allocation.AllocationID,
		GameID:            allocation.GameID,
		ReservationID:     allocation.ReservationID,
		FloorZoneID:       nullableID(allocation.FloorZoneID),
		TablesOccupied:    allocation.TablesOccupied,
		CopiesCount:       allocation.CopiesCount,
		RequiredTableSize: allocation.RequiredTableSize,
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return booking.GameAllocation{}, wrapStoreError(errorSubjectAllocation, errorCodeInsert, err)
	}
	return mapGameAllocation(model), nil
}

func (store *Store) GetGameAllocation(ctx context.Context, allocationID string) (booking.GameAllocation, error) {
	var model GameAllocation
	err := store.db.WithContext(ctx).Where("allocation_id = ?", allocationID).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.GameAllocation{}, wrapStoreError(errorSubjectAllocation, errorCodeGet, booking.ErrAllocationNotFound)
		}
		return booking.GameAllocation{}, wrapStoreError(errorSubjectAllocation, errorCodeGet, err)
	}
	return mapGameAllocation(model), nil
}

func (store *Store) UpdateGameAllocationPlacement(ctx context.Context, allocationID string, floorZoneID string, tablesOccupied int64) error {
	result := store.db.WithContext(ctx).
		Model(&GameAllocation{}).
		Where("allocation_id = ?", allocationID).
		Updates(map[string]interface{}{
			"floor_zone_id":   nullableID(floorZoneID),
			"tables_occupied": tablesOccupied,
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectAllocation, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectAllocation, errorCodeUpdate, booking.ErrAllocationNotFound)
	}
	return nil
}

func (store *Store) DeleteGameAllocations(ctx context.Context, reservationID string) error {
	err := store.db.WithContext(ctx).Where("reservation_id = ?", reservationID).Delete(&GameAllocation{}).Error
	if err != nil {
		return wrapStoreError(errorSubjectAllocation, errorCodeDelete, err)
	}
	return nil
}

func (store *Store) ListUnallocatedGameAllocations(ctx context.Context, festivalID string) ([]booking.GameAllocation, error) {
	var rows []GameAllocation
	err := store.db.WithContext(ctx).
		Joins("JOIN reservations ON reservations.reservation_id = game_allocations.reservation_id").
		Where("reservations.festival_id = ? AND game_allocations.floor_zone_id IS NULL", festivalID).
		Order("game_allocations.created_at").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectAllocation, errorCodeList, err)
	}
	allocations := make([]booking.GameAllocation, 0, len(rows))
	for _, row := range rows {
		allocations = append(allocations, mapGameAllocation(row))
	}
	return allocations, nil
}

func (store *Store) SumGameTablesInFloorZone(ctx context.Context, floorZoneID string, excludeAllocationID string) (int64, error) {
	var sum sqlSum
	query := store.db.WithContext(ctx).
		Model(&GameAllocation{}).
		Select("coalesce(sum(tables_occupied),0) as total").
		Where("floor_zone_id = ?", floorZoneID)
	if excludeAllocationID != "" {
		query = query.Where("allocation_id <> ?", excludeAllocationID)
	}
	if err := query.Scan(&sum).Error; err != nil {
		return 0, wrapStoreError(errorSubjectAllocation, errorCodeSum, err)
	}
	return sum.Total, nil
}

func (store *Store) InsertFloorZone(ctx context.Context, zone booking.FloorZone) (booking.FloorZone, error) {
	model := FloorZone{
		FloorZoneID:  zone.FloorZoneID,
		FestivalID:   zone.FestivalID,
		TariffZoneID: zone.TariffZoneID,
		Name:         zone.Name,
		TableCount:   zone.TableCount,
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return booking.FloorZone{}, wrapStoreError(errorSubjectFloorZone, errorCodeInsert, err)
	}
	return mapFloorZone(model), nil
}

func (store *Store) GetFloorZone(ctx context.Context, floorZoneID string) (booking.FloorZone, error) {
	var model FloorZone
	err := store.db.WithContext(ctx).Where("floor_zone_id = ?", floorZoneID).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.FloorZone{}, wrapStoreError(errorSubjectFloorZone, errorCodeGet, booking.ErrFloorZoneNotFound)
		}
		return booking.FloorZone{}, wrapStoreError(errorSubjectFloorZone, errorCodeGet, err)
	}
	return mapFloorZone(model), nil
}

func (store *Store) UpdateFloorZone(ctx context.Context, zone booking.FloorZone) error {
	result := store.db.WithContext(ctx).
		Model(&FloorZone{}).
		Where("floor_zone_id = ?", zone.FloorZoneID).
		Updates(map[string]interface{}{
			"name":        zone.Name,
			"table_count": zone.TableCount,
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectFloorZone, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectFloorZone, errorCodeUpdate, booking.ErrFloorZoneNotFound)
	}
	return nil
}

func (store *Store) DeleteFloorZone(ctx context.Context, floorZoneID string) error {
	result := store.db.WithContext(ctx).Where("floor_zone_id = ?", floorZoneID).Delete(&FloorZone{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectFloorZone, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectFloorZone, errorCodeDelete, booking.ErrFloorZoneNotFound)
	}
	return nil
}

func (store *Store) ListFloorZones(ctx context.Context, festivalID string) ([]booking.FloorZone, error) {
	var rows []FloorZone
	err := store.db.WithContext(ctx).
		Where("festival_id = ?", festivalID).
		Order("name").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectFloorZone, errorCodeList, err)
	}
	zones := make([]booking.FloorZone, 0, len(rows))
	for _, row := range rows {
		zones = append(zones, mapFloorZone(row))
	}
	return zones, nil
}

func (store *Store) SumFloorZoneTables(ctx context.Context, tariffZoneID string, excludeFloorZoneID string) (int64, error) {
	var sum sqlSum
	query := store.db.WithContext(ctx).
		Model(&FloorZone{}).
		Select("coalesce(sum(table_count),0) as total").
		Where("tariff_zone_id = ?", tariffZoneID)
	if excludeFloorZoneID != "" {
		query = query.Where("floor_zone_id <> ?", excludeFloorZoneID)
	}
	if err := query.Scan(&sum).Error; err != nil {
		return 0, wrapStoreError(errorSubjectFloorZone, errorCodeSum, err)
	}
	return sum.Total, nil
}

func (store *Store) CountFloorZoneReferences(ctx context.Context, floorZoneID string) (int64, error) {
	var gameCount int64
	err := store.db.WithContext(ctx).
		Model(&GameAllocation{}).
		Where("floor_zone_id = ?", floorZoneID).
		Count(&gameCount).Error
	if err != nil {
		return 0, wrapStoreError(errorSubjectAllocation, errorCodeLookup, err)
	}
	var placementCount int64
	err = store.db.WithContext(ctx).
		Model(&ReservationPlacement{}).
		Where("floor_zone_id = ?", floorZoneID).
		Count(&placementCount).Error
	if err != nil {
		return 0, wrapStoreError(errorSubjectPlacement, errorCodeLookup, err)
	}
	return gameCount + placementCount, nil
}

func (store *Store) GetReservationPlacement(ctx context.Context, reservationID string, floorZoneID string) (booking.ReservationPlacement, bool, error) {
	var model ReservationPlacement
	err := store.db.WithContext(ctx).
		Where("reservation_id = ? AND floor_zone_id = ?", reservationID, floorZoneID).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.ReservationPlacement{}, false, nil
		}
		return booking.ReservationPlacement{}, false, wrapStoreError(errorSubjectPlacement, errorCodeGet, err)
	}
	return booking.ReservationPlacement{
		ReservationID: model.ReservationID,
		FloorZoneID:   model.FloorZoneID,
		Tables:        model.Tables,
	}, true, nil
}

func (store *Store) UpsertReservationPlacement(ctx context.Context, placement booking.ReservationPlacement) error {
	model := ReservationPlacement{
		ReservationID: placement.ReservationID,
		FloorZoneID:   placement.FloorZoneID,
		Tables:        placement.Tables,
	}
	err := store.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reservation_id"}, {Name: "floor_zone_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"tables", "updated_at"}),
		}).
		Create(&model).Error
	if err != nil {
		return wrapStoreError(errorSubjectPlacement, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) DeleteReservationPlacement(ctx context.Context, reservationID string, floorZoneID string) error {
	err := store.db.WithContext(ctx).
		Where("reservation_id = ? AND floor_zone_id = ?", reservationID, floorZoneID).
		Delete(&ReservationPlacement{}).Error
	if err != nil {
		return wrapStoreError(errorSubjectPlacement, errorCodeDelete, err)
	}
	return nil
}

func (store *Store) DeleteReservationPlacements(ctx context.Context, reservationID string) error {
	err := store.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Delete(&ReservationPlacement{}).Error
	if err != nil {
		return wrapStoreError(errorSubjectPlacement, errorCodeDelete, err)
	}
	return nil
}

func (store *Store) SumPlacementTablesInFloorZone(ctx context.Context, floorZoneID string, excludeReservationID string) (int64, error) {
	var sum sqlSum
	query := store.db.WithContext(ctx).
		Model(&ReservationPlacement{}).
		Select("coalesce(sum(tables),0) as total").
		Where("floor_zone_id = ?", floorZoneID)
	if excludeReservationID != "" {
		query = query.Where("reservation_id <> ?", excludeReservationID)
	}
	if err := query.Scan(&sum).Error; err != nil {
		return 0, wrapStoreError(errorSubjectPlacement, errorCodeSum, err)
	}
	return sum.Total, nil
}

func (store *Store) SumPlacementTablesInTariffZone(ctx context.Context, reservationID string, tariffZoneID string, excludeFloorZoneID string) (int64, error) {
	var sum sqlSum
	query := store.db.WithContext(ctx).
		Model(&ReservationPlacement{}).
		Select("coalesce(sum(reservation_placements.tables),0) as total").
		Joins("JOIN floor_zones ON floor_zones.floor_zone_id = reservation_placements.floor_zone_id").
		Where("reservation_placements.reservation_id = ? AND floor_zones.tariff_zone_id = ?", reservationID, tariffZoneID)
	if excludeFloorZoneID != "" {
		query = query.Where("reservation_placements.floor_zone_id <> ?", excludeFloorZoneID)
	}
	if err := query.Scan(&sum).Error; err != nil {
		return 0, wrapStoreError(errorSubjectPlacement, errorCodeSum, err)
	}
	return sum.Total, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return booking.WrapError(errorOperationStore, subject, code, err)
}

type sqlSum struct {
	Total int64
}

func mapTariffZone(model TariffZone) booking.TariffZone {
	return booking.TariffZone{
		ZoneID:                   model.ZoneID,
		FestivalID:               model.FestivalID,
		Name:                     model.Name,
		TotalTables:              model.TotalTables,
		AvailableTables:          model.AvailableTables,
		PricePerTableCents:       model.PricePerTableCents,
		PricePerSquareMeterCents: model.PricePerSquareMeterCents,
	}
}

func mapFloorZone(model FloorZone) booking.FloorZone {
	return booking.FloorZone{
		FloorZoneID:  model.FloorZoneID,
		FestivalID:   model.FestivalID,
		TariffZoneID: model.TariffZoneID,
		Name:         model.Name,
		TableCount:   model.TableCount,
	}
}

func mapGameAllocation(model GameAllocation) booking.GameAllocation {
	floorZoneID := ""
	if model.FloorZoneID != nil {
		floorZoneID = *model.FloorZoneID
	}
	return booking.GameAllocation{
		AllocationID:      model.AllocationID,
		GameID:            model.GameID,
		ReservationID:     model.ReservationID,
		FloorZoneID:       floorZoneID,
		TablesOccupied:    model.TablesOccupied,
		CopiesCount:       model.CopiesCount,
		RequiredTableSize: model.RequiredTableSize,
	}
}

func mapWorkflow(model Workflow) (booking.Workflow, error) {
	state, err := booking.ParseWorkflowState(model.State)
	if err != nil {
		return booking.Workflow{}, wrapStoreError(errorSubjectWorkflow, errorCodeInvalid, err)
	}
	return booking.Workflow{
		WorkflowID:  model.WorkflowID,
		ExhibitorID: model.ExhibitorID,
		FestivalID:  model.FestivalID,
		State:       state,
		Flags: booking.WorkflowFlags{
			RequestedGameList: model.RequestedGameList,
			ObtainedGameList:  model.ObtainedGameList,
			ReceivedGames:     model.ReceivedGames,
			WillPresentGames:  model.WillPresentGames,
		},
	}, nil
}

func mapReservation(model Reservation) (booking.Reservation, error) {
	status, err := booking.ParsePaymentStatus(model.PaymentStatus)
	if err != nil {
		return booking.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
	}
	discounts, err := unmarshalDiscounts(model.Discounts)
	if err != nil {
		return booking.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
	}
	return booking.Reservation{
		ReservationID:   model.ReservationID,
		ExhibitorID:     model.ExhibitorID,
		FestivalID:      model.FestivalID,
		WorkflowID:      model.WorkflowID,
		StartPriceCents: model.StartPriceCents,
		FinalPriceCents: model.FinalPriceCents,
		Discounts:       discounts,
		PaymentStatus:   status,
		Note:            model.Note,
	}, nil
}

func marshalDiscounts(discounts []booking.Discount) (datatypes.JSON, error) {
	if discounts == nil {
		discounts = []booking.Discount{}
	}
	raw, err := json.Marshal(discounts)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func unmarshalDiscounts(raw datatypes.JSON) ([]booking.Discount, error) {
	if len(raw) == 0 {
		return []booking.Discount{}, nil
	}
	var discounts []booking.Discount
	if err := json.Unmarshal(raw, &discounts); err != nil {
		return nil, err
	}
	return discounts, nil
}

func nullableID(raw string) *string {
	if raw == "" {
		return nil
	}
	return &raw
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
