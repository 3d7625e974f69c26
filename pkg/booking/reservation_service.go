package booking

import (
	"context"
	"fmt"
)

// ReservationService is the only writer of the tariff-zone ledger. Every
// operation runs in one transaction: any failure at any step rolls back the
// ledger, the allocation rows, and any exhibitor or workflow bootstrap made
// during the attempt.
type ReservationService struct {
	store  Store
	logger OperationLogger
}

// NewReservationService wires a ReservationService.
func NewReservationService(store Store, options ...Option) (*ReservationService, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	settings := applyOptions(options)
	return &ReservationService{store: store, logger: settings.logger}, nil
}

// Create books tables for an exhibitor at a festival. The exhibitor is
// resolved by email or created; the workflow row is created at NoContact or
// reused if the pair already has one. Allocation entries are applied in
// listed order, each locking its zone row before the stock check.
func (service *ReservationService) Create(ctx context.Context, input ReservationInput) (ReservationDetail, error) {
	var detail ReservationDetail
	if err := input.Validate(); err != nil {
		return detail, err
	}
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		exists, err := transactionStore.FestivalExists(ctx, input.FestivalID.String())
		if err != nil {
			return err
		}
		if !exists {
			return ErrFestivalNotFound
		}
		exhibitor, err := transactionStore.GetOrCreateExhibitor(ctx, input.Exhibitor.Email.String(), input.Exhibitor.Name)
		if err != nil {
			return err
		}
		duplicate, err := transactionStore.ReservationExists(ctx, exhibitor.ExhibitorID, input.FestivalID.String())
		if err != nil {
			return err
		}
		if duplicate {
			return ErrReservationExists
		}
		workflow, err := transactionStore.GetOrCreateWorkflow(ctx, exhibitor.ExhibitorID, input.FestivalID.String())
		if err != nil {
			return err
		}
		reservation, err := transactionStore.InsertReservation(ctx, Reservation{
			ExhibitorID:     exhibitor.ExhibitorID,
			FestivalID:      input.FestivalID.String(),
			WorkflowID:      workflow.WorkflowID,
			StartPriceCents: input.StartPriceCents.Int64(),
			FinalPriceCents: input.FinalPriceCents.Int64(),
			Discounts:       input.Discounts,
			PaymentStatus:   input.PaymentStatus,
			Note:            input.Note,
		})
		if err != nil {
			return err
		}
		if err := service.applyAllocations(ctx, transactionStore, reservation.ReservationID, input.Allocations); err != nil {
			return err
		}
		for _, game := range input.Games {
			if _, err := transactionStore.InsertGameAllocation(ctx, GameAllocation{
				GameID:            game.GameID.String(),
				ReservationID:     reservation.ReservationID,
				CopiesCount:       game.CopiesCount,
				RequiredTableSize: game.RequiredTableSize,
			}); err != nil {
				return err
			}
		}
		loaded, err := transactionStore.GetReservationDetail(ctx, reservation.ReservationID)
		if err != nil {
			return err
		}
		detail = loaded
		return nil
	})
	logOperation(ctx, service.logger, OperationLog{
		Operation:     operationReservationCreate,
		FestivalID:    input.FestivalID.String(),
		ReservationID: detail.Reservation.ReservationID,
		Error:         operationError,
	})
	return detail, operationError
}

// Update replaces a reservation's scalar fields and its allocation list.
// The old allocations are released and deleted, then the new list is
// applied with the same lock/check/insert/decrement sequence as Create. A
// failure rolls back the release too, leaving the original allocations
// untouched.
func (service *ReservationService) Update(ctx context.Context, reservationID ReservationID, update ReservationUpdate) (ReservationDetail, error) {
	var detail ReservationDetail
	if err := update.Validate(); err != nil {
		return detail, err
	}
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		reservation, err := transactionStore.GetReservation(ctx, reservationID.String())
		if err != nil {
			return err
		}
		if err := service.releaseAllocations(ctx, transactionStore, reservation.ReservationID); err != nil {
			return err
		}
		reservation.StartPriceCents = update.StartPriceCents.Int64()
		reservation.FinalPriceCents = update.FinalPriceCents.Int64()
		reservation.Discounts = update.Discounts
		reservation.PaymentStatus = update.PaymentStatus
		reservation.Note = update.Note
		if err := transactionStore.UpdateReservation(ctx, reservation); err != nil {
			return err
		}
		if err := service.applyAllocations(ctx, transactionStore, reservation.ReservationID, update.Allocations); err != nil {
			return err
		}
		loaded, err := transactionStore.GetReservationDetail(ctx, reservation.ReservationID)
		if err != nil {
			return err
		}
		detail = loaded
		return nil
	})
	logOperation(ctx, service.logger, OperationLog{
		Operation:     operationReservationUpdate,
		ReservationID: reservationID.String(),
		Error:         operationError,
	})
	return detail, operationError
}

// Delete removes a reservation, restoring every touched zone's available
// tables and cascading its allocation and placement rows. The workflow row
// survives the reservation.
func (service *ReservationService) Delete(ctx context.Context, reservationID ReservationID) error {
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		reservation, err := transactionStore.GetReservation(ctx, reservationID.String())
		if err != nil {
			return err
		}
		if err := service.releaseAllocations(ctx, transactionStore, reservation.ReservationID); err != nil {
			return err
		}
		if err := transactionStore.DeleteGameAllocations(ctx, reservation.ReservationID); err != nil {
			return err
		}
		if err := transactionStore.DeleteReservationPlacements(ctx, reservation.ReservationID); err != nil {
			return err
		}
		return transactionStore.DeleteReservation(ctx, reservation.ReservationID)
	})
	logOperation(ctx, service.logger, OperationLog{
		Operation:     operationReservationDelete,
		ReservationID: reservationID.String(),
		Error:         operationError,
	})
	return operationError
}

// Get returns the reservation joined with exhibitor, workflow, and
// allocation data.
func (service *ReservationService) Get(ctx context.Context, reservationID ReservationID) (ReservationDetail, error) {
	return service.store.GetReservationDetail(ctx, reservationID.String())
}

// Stock returns the per-zone stock view for a festival.
func (service *ReservationService) Stock(ctx context.Context, festivalID FestivalID) ([]ZoneStock, error) {
	exists, err := service.store.FestivalExists(ctx, festivalID.String())
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrFestivalNotFound
	}
	zones, err := service.store.ListTariffZones(ctx, festivalID.String())
	if err != nil {
		return nil, err
	}
	stock := make([]ZoneStock, 0, len(zones))
	for _, zone := range zones {
		stock = append(stock, ZoneStock{
			ZoneID:             zone.ZoneID,
			Name:               zone.Name,
			TotalTables:        zone.TotalTables,
			AvailableTables:    zone.AvailableTables,
			ReservedTables:     zone.TotalTables - zone.AvailableTables,
			PricePerTableCents: zone.PricePerTableCents,
		})
	}
	return stock, nil
}

// CreateTariffZone seeds a new zone with available = total. Zones are
// created before any reservation exists; their counts are mutated only by
// the reservation operations above.
func (service *ReservationService) CreateTariffZone(ctx context.Context, input TariffZoneInput) (TariffZone, error) {
	var created TariffZone
	if input.FestivalID == (FestivalID{}) {
		return created, fmt.Errorf("%w: festival id is required", ErrInvalidInput)
	}
	if input.Name == (ZoneName{}) {
		return created, fmt.Errorf("%w: zone name is required", ErrInvalidInput)
	}
	if input.TotalTables <= 0 {
		return created, fmt.Errorf("%w: total tables is required", ErrInvalidInput)
	}
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		exists, err := transactionStore.FestivalExists(ctx, input.FestivalID.String())
		if err != nil {
			return err
		}
		if !exists {
			return ErrFestivalNotFound
		}
		zone, err := transactionStore.CreateTariffZone(ctx, TariffZone{
			FestivalID:               input.FestivalID.String(),
			Name:                     input.Name.String(),
			TotalTables:              input.TotalTables.Int64(),
			AvailableTables:          input.TotalTables.Int64(),
			PricePerTableCents:       input.PricePerTableCents.Int64(),
			PricePerSquareMeterCents: input.PricePerSquareMeterCents.Int64(),
		})
		if err != nil {
			return err
		}
		created = zone
		return nil
	})
	logOperation(ctx, service.logger, OperationLog{
		Operation:  operationTariffZoneCreate,
		FestivalID: input.FestivalID.String(),
		ZoneID:     created.ZoneID,
		Error:      operationError,
	})
	return created, operationError
}

func (service *ReservationService) applyAllocations(ctx context.Context, transactionStore Store, reservationID string, allocations []AllocationInput) error {
	for _, allocation := range allocations {
		if err := ReserveZoneTables(ctx, transactionStore, allocation.TariffZoneID.String(), allocation.Tables.Int64()); err != nil {
			return err
		}
		if err := transactionStore.InsertTariffAllocation(ctx, TariffAllocation{
			ReservationID:  reservationID,
			TariffZoneID:   allocation.TariffZoneID.String(),
			TablesReserved: allocation.Tables.Int64(),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (service *ReservationService) releaseAllocations(ctx context.Context, transactionStore Store, reservationID string) error {
	allocations, err := transactionStore.ListTariffAllocations(ctx, reservationID)
	if err != nil {
		return err
	}
	for _, allocation := range allocations {
		if err := ReleaseZoneTables(ctx, transactionStore, allocation.TariffZoneID, allocation.TablesReserved); err != nil {
			return err
		}
	}
	return transactionStore.DeleteTariffAllocations(ctx, reservationID)
}
