package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// stubStore is an in-memory Store. WithTx snapshots the whole state and
// restores it when the closure fails, matching the rollback the SQL store
// provides.
type stubStore struct {
	sequence          int
	festivals         map[string]struct{}
	exhibitorsByEmail map[string]Exhibitor
	workflows         map[string]Workflow
	tariffZones       map[string]TariffZone
	floorZones        map[string]FloorZone
	reservations      map[string]Reservation
	tariffAllocations []TariffAllocation
	gameAllocations   map[string]GameAllocation
	placements        map[string]ReservationPlacement

	failInsertTariffAllocationAfter int
	insertedTariffAllocations       int
	errInsertTariffAllocation       error
}

func newStubStore() *stubStore {
	return &stubStore{
		festivals:                       make(map[string]struct{}),
		exhibitorsByEmail:               make(map[string]Exhibitor),
		workflows:                       make(map[string]Workflow),
		tariffZones:                     make(map[string]TariffZone),
		floorZones:                      make(map[string]FloorZone),
		reservations:                    make(map[string]Reservation),
		gameAllocations:                 make(map[string]GameAllocation),
		placements:                      make(map[string]ReservationPlacement),
		failInsertTariffAllocationAfter: -1,
	}
}

func (s *stubStore) nextID(prefix string) string {
	s.sequence++
	return fmt.Sprintf("%s-%d", prefix, s.sequence)
}

func (s *stubStore) snapshot() *stubStore {
	clone := newStubStore()
	clone.sequence = s.sequence
	for id := range s.festivals {
		clone.festivals[id] = struct{}{}
	}
	for email, exhibitor := range s.exhibitorsByEmail {
		clone.exhibitorsByEmail[email] = exhibitor
	}
	for id, workflow := range s.workflows {
		clone.workflows[id] = workflow
	}
	for id, zone := range s.tariffZones {
		clone.tariffZones[id] = zone
	}
	for id, zone := range s.floorZones {
		clone.floorZones[id] = zone
	}
	for id, reservation := range s.reservations {
		clone.reservations[id] = reservation
	}
	clone.tariffAllocations = append([]TariffAllocation(nil), s.tariffAllocations...)
	for id, allocation := range s.gameAllocations {
		clone.gameAllocations[id] = allocation
	}
	for key, placement := range s.placements {
		clone.placements[key] = placement
	}
	return clone
}

func (s *stubStore) restore(saved *stubStore) {
	s.sequence = saved.sequence
	s.festivals = saved.festivals
	s.exhibitorsByEmail = saved.exhibitorsByEmail
	s.workflows = saved.workflows
	s.tariffZones = saved.tariffZones
	s.floorZones = saved.floorZones
	s.reservations = saved.reservations
	s.tariffAllocations = saved.tariffAllocations
	s.gameAllocations = saved.gameAllocations
	s.placements = saved.placements
}

func (s *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	saved := s.snapshot()
	if err := fn(ctx, s); err != nil {
		s.restore(saved)
		return err
	}
	return nil
}

func (s *stubStore) CreateTariffZone(ctx context.Context, zone TariffZone) (TariffZone, error) {
	if zone.ZoneID == "" {
		zone.ZoneID = s.nextID("zone")
	}
	s.tariffZones[zone.ZoneID] = zone
	return zone, nil
}

func (s *stubStore) GetTariffZone(ctx context.Context, zoneID string) (TariffZone, error) {
	zone, ok := s.tariffZones[zoneID]
	if !ok {
		return TariffZone{}, ErrZoneNotFound
	}
	return zone, nil
}

func (s *stubStore) GetTariffZoneForUpdate(ctx context.Context, zoneID string) (TariffZone, error) {
	return s.GetTariffZone(ctx, zoneID)
}

func (s *stubStore) SetTariffZoneAvailable(ctx context.Context, zoneID string, availableTables int64) error {
	zone, ok := s.tariffZones[zoneID]
	if !ok {
		return ErrZoneNotFound
	}
	zone.AvailableTables = availableTables
	s.tariffZones[zoneID] = zone
	return nil
}

func (s *stubStore) ListTariffZones(ctx context.Context, festivalID string) ([]TariffZone, error) {
	var zones []TariffZone
	for _, zone := range s.tariffZones {
		if zone.FestivalID == festivalID {
			zones = append(zones, zone)
		}
	}
	return zones, nil
}

func (s *stubStore) FestivalExists(ctx context.Context, festivalID string) (bool, error) {
	_, ok := s.festivals[festivalID]
	return ok, nil
}

func (s *stubStore) GetOrCreateExhibitor(ctx context.Context, email string, name string) (Exhibitor, error) {
	if exhibitor, ok := s.exhibitorsByEmail[email]; ok {
		return exhibitor, nil
	}
	exhibitor := Exhibitor{ExhibitorID: s.nextID("exhibitor"), Email: email, Name: name}
	s.exhibitorsByEmail[email] = exhibitor
	return exhibitor, nil
}

func (s *stubStore) GetOrCreateWorkflow(ctx context.Context, exhibitorID string, festivalID string) (Workflow, error) {
	for _, workflow := range s.workflows {
		if workflow.ExhibitorID == exhibitorID && workflow.FestivalID == festivalID {
			return workflow, nil
		}
	}
	workflow := Workflow{
		WorkflowID:  s.nextID("workflow"),
		ExhibitorID: exhibitorID,
		FestivalID:  festivalID,
		State:       StateNoContact,
	}
	s.workflows[workflow.WorkflowID] = workflow
	return workflow, nil
}

func (s *stubStore) UpdateWorkflowState(ctx context.Context, workflowID string, state WorkflowState) error {
	workflow, ok := s.workflows[workflowID]
	if !ok {
		return ErrWorkflowNotFound
	}
	workflow.State = state
	s.workflows[workflowID] = workflow
	return nil
}

func (s *stubStore) UpdateWorkflowFlags(ctx context.Context, workflowID string, flags WorkflowFlags) error {
	workflow, ok := s.workflows[workflowID]
	if !ok {
		return ErrWorkflowNotFound
	}
	workflow.Flags = flags
	s.workflows[workflowID] = workflow
	return nil
}

func (s *stubStore) InsertReservation(ctx context.Context, reservation Reservation) (Reservation, error) {
	for _, existing := range s.reservations {
		if existing.ExhibitorID == reservation.ExhibitorID && existing.FestivalID == reservation.FestivalID {
			return Reservation{}, ErrReservationExists
		}
	}
	if reservation.ReservationID == "" {
		reservation.ReservationID = s.nextID("reservation")
	}
	s.reservations[reservation.ReservationID] = reservation
	return reservation, nil
}

func (s *stubStore) GetReservation(ctx context.Context, reservationID string) (Reservation, error) {
	reservation, ok := s.reservations[reservationID]
	if !ok {
		return Reservation{}, ErrReservationNotFound
	}
	return reservation, nil
}

func (s *stubStore) UpdateReservation(ctx context.Context, reservation Reservation) error {
	if _, ok := s.reservations[reservation.ReservationID]; !ok {
		return ErrReservationNotFound
	}
	s.reservations[reservation.ReservationID] = reservation
	return nil
}

func (s *stubStore) DeleteReservation(ctx context.Context, reservationID string) error {
	delete(s.reservations, reservationID)
	return nil
}

func (s *stubStore) ReservationExists(ctx context.Context, exhibitorID string, festivalID string) (bool, error) {
	for _, reservation := range s.reservations {
		if reservation.ExhibitorID == exhibitorID && reservation.FestivalID == festivalID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubStore) GetReservationDetail(ctx context.Context, reservationID string) (ReservationDetail, error) {
	reservation, ok := s.reservations[reservationID]
	if !ok {
		return ReservationDetail{}, ErrReservationNotFound
	}
	var exhibitor Exhibitor
	for _, candidate := range s.exhibitorsByEmail {
		if candidate.ExhibitorID == reservation.ExhibitorID {
			exhibitor = candidate
		}
	}
	var workflow Workflow
	for _, candidate := range s.workflows {
		if candidate.ExhibitorID == reservation.ExhibitorID && candidate.FestivalID == reservation.FestivalID {
			workflow = candidate
		}
	}
	allocations, _ := s.ListTariffAllocations(ctx, reservationID)
	var games []GameAllocation
	for _, allocation := range s.gameAllocations {
		if allocation.ReservationID == reservationID {
			games = append(games, allocation)
		}
	}
	return ReservationDetail{
		Reservation: reservation,
		Exhibitor:   exhibitor,
		Workflow:    workflow,
		Allocations: allocations,
		Games:       games,
	}, nil
}

func (s *stubStore) InsertTariffAllocation(ctx context.Context, allocation TariffAllocation) error {
	if s.failInsertTariffAllocationAfter >= 0 && s.insertedTariffAllocations >= s.failInsertTariffAllocationAfter {
		return s.errInsertTariffAllocation
	}
	s.insertedTariffAllocations++
	s.tariffAllocations = append(s.tariffAllocations, allocation)
	return nil
}

func (s *stubStore) ListTariffAllocations(ctx context.Context, reservationID string) ([]TariffAllocation, error) {
	var allocations []TariffAllocation
	for _, allocation := range s.tariffAllocations {
		if allocation.ReservationID == reservationID {
			allocations = append(allocations, allocation)
		}
	}
	return allocations, nil
}

func (s *stubStore) DeleteTariffAllocations(ctx context.Context, reservationID string) error {
	kept := s.tariffAllocations[:0]
	for _, allocation := range s.tariffAllocations {
		if allocation.ReservationID != reservationID {
			kept = append(kept, allocation)
		}
	}
	s.tariffAllocations = append([]TariffAllocation(nil), kept...)
	return nil
}

func (s *stubStore) InsertGameAllocation(ctx context.Context, allocation GameAllocation) (GameAllocation, error) {
	if allocation.AllocationID == "" {
		allocation.AllocationID = s.nextID("allocation")
	}
	s.gameAllocations[allocation.AllocationID] = allocation
	return allocation, nil
}

func (s *stubStore) GetGameAllocation(ctx context.Context, allocationID string) (GameAllocation, error) {
	allocation, ok := s.gameAllocations[allocationID]
	if !ok {
		return GameAllocation{}, ErrAllocationNotFound
	}
	return allocation, nil
}

func (s *stubStore) UpdateGameAllocationPlacement(ctx context.Context, allocationID string, floorZoneID string, tablesOccupied int64) error {
	allocation, ok := s.gameAllocations[allocationID]
	if !ok {
		return ErrAllocationNotFound
	}
	allocation.FloorZoneID = floorZoneID
	allocation.TablesOccupied = tablesOccupied
	s.gameAllocations[allocationID] = allocation
	return nil
}

func (s *stubStore) DeleteGameAllocations(ctx context.Context, reservationID string) error {
	for id, allocation := range s.gameAllocations {
		if allocation.ReservationID == reservationID {
			delete(s.gameAllocations, id)
		}
	}
	return nil
}

func (s *stubStore) ListUnallocatedGameAllocations(ctx context.Context, festivalID string) ([]GameAllocation, error) {
	var unallocated []GameAllocation
	for _, allocation := range s.gameAllocations {
		if allocation.FloorZoneID != "" {
			continue
		}
		reservation, ok := s.reservations[allocation.ReservationID]
		if !ok || reservation.FestivalID != festivalID {
			continue
		}
		unallocated = append(unallocated, allocation)
	}
	return unallocated, nil
}

func (s *stubStore) SumGameTablesInFloorZone(ctx context.Context, floorZoneID string, excludeAllocationID string) (int64, error) {
	var sum int64
	for _, allocation := range s.gameAllocations {
		if allocation.FloorZoneID == floorZoneID && allocation.AllocationID != excludeAllocationID {
			sum += allocation.TablesOccupied
		}
	}
	return sum, nil
}

func (s *stubStore) InsertFloorZone(ctx context.Context, zone FloorZone) (FloorZone, error) {
	if zone.FloorZoneID == "" {
		zone.FloorZoneID = s.nextID("floor")
	}
	s.floorZones[zone.FloorZoneID] = zone
	return zone, nil
}

func (s *stubStore) GetFloorZone(ctx context.Context, floorZoneID string) (FloorZone, error) {
	zone, ok := s.floorZones[floorZoneID]
	if !ok {
		return FloorZone{}, ErrFloorZoneNotFound
	}
	return zone, nil
}

func (s *stubStore) UpdateFloorZone(ctx context.Context, zone FloorZone) error {
	if _, ok := s.floorZones[zone.FloorZoneID]; !ok {
		return ErrFloorZoneNotFound
	}
	s.floorZones[zone.FloorZoneID] = zone
	return nil
}

func (s *stubStore) DeleteFloorZone(ctx context.Context, floorZoneID string) error {
	delete(s.floorZones, floorZoneID)
	return nil
}

func (s *stubStore) ListFloorZones(ctx context.Context, festivalID string) ([]FloorZone, error) {
	var zones []FloorZone
	for _, zone := range s.floorZones {
		if zone.FestivalID == festivalID {
			zones = append(zones, zone)
		}
	}
	return zones, nil
}

func (s *stubStore) SumFloorZoneTables(ctx context.Context, tariffZoneID string, excludeFloorZoneID string) (int64, error) {
	var sum int64
	for _, zone := range s.floorZones {
		if zone.TariffZoneID == tariffZoneID && zone.FloorZoneID != excludeFloorZoneID {
			sum += zone.TableCount
		}
	}
	return sum, nil
}

func (s *stubStore) CountFloorZoneReferences(ctx context.Context, floorZoneID string) (int64, error) {
	var count int64
	for _, allocation := range s.gameAllocations {
		if allocation.FloorZoneID == floorZoneID {
			count++
		}
	}
	for _, placement := range s.placements {
		if placement.FloorZoneID == floorZoneID {
			count++
		}
	}
	return count, nil
}

func placementKey(reservationID string, floorZoneID string) string {
	return reservationID + "/" + floorZoneID
}

func (s *stubStore) GetReservationPlacement(ctx context.Context, reservationID string, floorZoneID string) (ReservationPlacement, bool, error) {
	placement, ok := s.placements[placementKey(reservationID, floorZoneID)]
	return placement, ok, nil
}

func (s *stubStore) UpsertReservationPlacement(ctx context.Context, placement ReservationPlacement) error {
	s.placements[placementKey(placement.ReservationID, placement.FloorZoneID)] = placement
	return nil
}

func (s *stubStore) DeleteReservationPlacement(ctx context.Context, reservationID string, floorZoneID string) error {
	delete(s.placements, placementKey(reservationID, floorZoneID))
	return nil
}

func (s *stubStore) DeleteReservationPlacements(ctx context.Context, reservationID string) error {
	for key, placement := range s.placements {
		if placement.ReservationID == reservationID {
			delete(s.placements, key)
		}
	}
	return nil
}

func (s *stubStore) SumPlacementTablesInFloorZone(ctx context.Context, floorZoneID string, excludeReservationID string) (int64, error) {
	var sum int64
	for _, placement := range s.placements {
		if placement.FloorZoneID == floorZoneID && placement.ReservationID != excludeReservationID {
			sum += placement.Tables
		}
	}
	return sum, nil
}

func (s *stubStore) SumPlacementTablesInTariffZone(ctx context.Context, reservationID string, tariffZoneID string, excludeFloorZoneID string) (int64, error) {
	var sum int64
	for _, placement := range s.placements {
		if placement.ReservationID != reservationID || placement.FloorZoneID == excludeFloorZoneID {
			continue
		}
		zone, ok := s.floorZones[placement.FloorZoneID]
		if !ok || zone.TariffZoneID != tariffZoneID {
			continue
		}
		sum += placement.Tables
	}
	return sum, nil
}

func (s *stubStore) mustTariffZone(t *testing.T, zoneID string) TariffZone {
	t.Helper()
	zone, ok := s.tariffZones[zoneID]
	if !ok {
		t.Fatalf("tariff zone %s not found", zoneID)
	}
	return zone
}

func (s *stubStore) addFestival(festivalID string) {
	s.festivals[festivalID] = struct{}{}
}

func (s *stubStore) addTariffZone(zoneID string, festivalID string, total int64, available int64) {
	s.tariffZones[zoneID] = TariffZone{
		ZoneID:          zoneID,
		FestivalID:      festivalID,
		Name:            zoneID,
		TotalTables:     total,
		AvailableTables: available,
	}
}

func (s *stubStore) addFloorZone(floorZoneID string, festivalID string, tariffZoneID string, tableCount int64) {
	s.floorZones[floorZoneID] = FloorZone{
		FloorZoneID:  floorZoneID,
		FestivalID:   festivalID,
		TariffZoneID: tariffZoneID,
		Name:         floorZoneID,
		TableCount:   tableCount,
	}
}

func mustReservationService(t *testing.T, store Store) *ReservationService {
	t.Helper()
	service, err := NewReservationService(store)
	if err != nil {
		t.Fatalf("new reservation service: %v", err)
	}
	return service
}

func mustFloorPlanService(t *testing.T, store Store) *FloorPlanService {
	t.Helper()
	service, err := NewFloorPlanService(store)
	if err != nil {
		t.Fatalf("new floor plan service: %v", err)
	}
	return service
}

func mustWorkflowService(t *testing.T, store Store) *WorkflowService {
	t.Helper()
	service, err := NewWorkflowService(store)
	if err != nil {
		t.Fatalf("new workflow service: %v", err)
	}
	return service
}

func mustFestivalID(t *testing.T, raw string) FestivalID {
	t.Helper()
	id, err := NewFestivalID(raw)
	if err != nil {
		t.Fatalf("festival id: %v", err)
	}
	return id
}

func mustExhibitorID(t *testing.T, raw string) ExhibitorID {
	t.Helper()
	id, err := NewExhibitorID(raw)
	if err != nil {
		t.Fatalf("exhibitor id: %v", err)
	}
	return id
}

func mustTariffZoneID(t *testing.T, raw string) TariffZoneID {
	t.Helper()
	id, err := NewTariffZoneID(raw)
	if err != nil {
		t.Fatalf("tariff zone id: %v", err)
	}
	return id
}

func mustFloorZoneID(t *testing.T, raw string) FloorZoneID {
	t.Helper()
	id, err := NewFloorZoneID(raw)
	if err != nil {
		t.Fatalf("floor zone id: %v", err)
	}
	return id
}

func mustReservationID(t *testing.T, raw string) ReservationID {
	t.Helper()
	id, err := NewReservationID(raw)
	if err != nil {
		t.Fatalf("reservation id: %v", err)
	}
	return id
}

func mustGameID(t *testing.T, raw string) GameID {
	t.Helper()
	id, err := NewGameID(raw)
	if err != nil {
		t.Fatalf("game id: %v", err)
	}
	return id
}

func mustAllocationID(t *testing.T, raw string) AllocationID {
	t.Helper()
	id, err := NewAllocationID(raw)
	if err != nil {
		t.Fatalf("allocation id: %v", err)
	}
	return id
}

func mustEmail(t *testing.T, raw string) EmailAddress {
	t.Helper()
	email, err := NewEmailAddress(raw)
	if err != nil {
		t.Fatalf("email: %v", err)
	}
	return email
}

func mustZoneName(t *testing.T, raw string) ZoneName {
	t.Helper()
	name, err := NewZoneName(raw)
	if err != nil {
		t.Fatalf("zone name: %v", err)
	}
	return name
}

func mustTables(t *testing.T, raw int64) TableCount {
	t.Helper()
	count, err := NewTableCount(raw)
	if err != nil {
		t.Fatalf("table count: %v", err)
	}
	return count
}

func mustTablesRef(t *testing.T, raw int64) *TableCount {
	t.Helper()
	count := mustTables(t, raw)
	return &count
}

func mustPositiveTables(t *testing.T, raw int64) PositiveTableCount {
	t.Helper()
	count, err := NewPositiveTableCount(raw)
	if err != nil {
		t.Fatalf("positive table count: %v", err)
	}
	return count
}

var errStubInsertFailed = errors.New("stub insert failed")
