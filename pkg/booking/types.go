package booking

import (
	"fmt"
	"strings"
)

// FestivalID identifies a festival in the external registry.
type FestivalID struct {
	value string
}

// ExhibitorID identifies an exhibitor record.
type ExhibitorID struct {
	value string
}

// TariffZoneID identifies a priced capacity pool of tables.
type TariffZoneID struct {
	value string
}

// FloorZoneID identifies a physical placement area on the floor plan.
type FloorZoneID struct {
	value string
}

// ReservationID identifies an exhibitor's reservation for one festival.
type ReservationID struct {
	value string
}

// GameID identifies a catalog item in the external game catalog.
type GameID struct {
	value string
}

// AllocationID identifies a per-item game allocation row.
type AllocationID struct {
	value string
}

// EmailAddress identifies an exhibitor contact for resolve-or-create lookups.
type EmailAddress struct {
	value string
}

// ZoneName names a tariff or floor zone.
type ZoneName struct {
	value string
}

// TableCount is a non-negative number of tables.
type TableCount int64

// PositiveTableCount is a strictly positive number of tables.
type PositiveTableCount int64

// AmountCents is an integer currency amount in cents.
type AmountCents int64

// NewFestivalID validates and normalizes a festival id.
func NewFestivalID(raw string) (FestivalID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return FestivalID{}, fmt.Errorf("%w: empty value", ErrInvalidFestivalID)
	}
	return FestivalID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id FestivalID) String() string {
	return id.value
}

// NewExhibitorID validates and normalizes an exhibitor id.
func NewExhibitorID(raw string) (ExhibitorID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ExhibitorID{}, fmt.Errorf("%w: empty value", ErrInvalidExhibitorID)
	}
	return ExhibitorID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id ExhibitorID) String() string {
	return id.value
}

// NewTariffZoneID validates and normalizes a tariff zone id.
func NewTariffZoneID(raw string) (TariffZoneID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return TariffZoneID{}, fmt.Errorf("%w: empty value", ErrInvalidZoneID)
	}
	return TariffZoneID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id TariffZoneID) String() string {
	return id.value
}

// NewFloorZoneID validates and normalizes a floor zone id.
func NewFloorZoneID(raw string) (FloorZoneID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return FloorZoneID{}, fmt.Errorf("%w: empty value", ErrInvalidFloorZoneID)
	}
	return FloorZoneID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id FloorZoneID) String() string {
	return id.value
}

// NewReservationID validates and normalizes a reservation id.
func NewReservationID(raw string) (ReservationID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ReservationID{}, fmt.Errorf("%w: empty value", ErrInvalidReservationID)
	}
	return ReservationID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id ReservationID) String() string {
	return id.value
}

// NewGameID validates and normalizes a game id.
func NewGameID(raw string) (GameID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return GameID{}, fmt.Errorf("%w: empty value", ErrInvalidGameID)
	}
	return GameID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id GameID) String() string {
	return id.value
}

// NewAllocationID validates and normalizes a game allocation id.
func NewAllocationID(raw string) (AllocationID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return AllocationID{}, fmt.Errorf("%w: empty value", ErrInvalidAllocationID)
	}
	return AllocationID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id AllocationID) String() string {
	return id.value
}

// NewEmailAddress validates and normalizes an exhibitor email.
func NewEmailAddress(raw string) (EmailAddress, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	at := strings.Index(normalized, "@")
	if at < 1 || at == len(normalized)-1 {
		return EmailAddress{}, fmt.Errorf("%w: %q", ErrInvalidEmailAddress, raw)
	}
	return EmailAddress{value: normalized}, nil
}

// String returns the normalized address.
func (email EmailAddress) String() string {
	return email.value
}

// NewZoneName validates and normalizes a zone name.
func NewZoneName(raw string) (ZoneName, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ZoneName{}, fmt.Errorf("%w: empty value", ErrInvalidZoneName)
	}
	return ZoneName{value: trimmed}, nil
}

// String returns the normalized name.
func (name ZoneName) String() string {
	return name.value
}

// NewTableCount validates a non-negative table count.
func NewTableCount(raw int64) (TableCount, error) {
	if raw < 0 {
		return 0, fmt.Errorf("%w: must not be negative", ErrInvalidTableCount)
	}
	return TableCount(raw), nil
}

// Int64 returns the raw count.
func (count TableCount) Int64() int64 {
	return int64(count)
}

// NewPositiveTableCount validates a strictly positive table count.
func NewPositiveTableCount(raw int64) (PositiveTableCount, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidTableCount)
	}
	return PositiveTableCount(raw), nil
}

// Int64 returns the raw count.
func (count PositiveTableCount) Int64() int64 {
	return int64(count)
}

// ToTableCount widens to a plain table count.
func (count PositiveTableCount) ToTableCount() TableCount {
	return TableCount(count)
}

// NewAmountCents validates a non-negative amount.
func NewAmountCents(raw int64) (AmountCents, error) {
	if raw < 0 {
		return 0, fmt.Errorf("%w: must not be negative", ErrInvalidAmountCents)
	}
	return AmountCents(raw), nil
}

// Int64 returns the raw amount.
func (amount AmountCents) Int64() int64 {
	return int64(amount)
}

// PaymentStatus marks whether a reservation has been paid.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// ParsePaymentStatus validates a payment status string.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	switch PaymentStatus(raw) {
	case PaymentStatusUnpaid, PaymentStatusPaid:
		return PaymentStatus(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, raw)
}

// String returns the status value.
func (status PaymentStatus) String() string {
	return string(status)
}

// TariffZone is a festival-wide priced pool of tables.
type TariffZone struct {
	ZoneID                   string
	FestivalID               string
	Name                     string
	TotalTables              int64
	AvailableTables          int64
	PricePerTableCents       int64
	PricePerSquareMeterCents int64
}

// ZoneStock is the per-zone stock view for a festival.
type ZoneStock struct {
	ZoneID             string
	Name               string
	TotalTables        int64
	AvailableTables    int64
	ReservedTables     int64
	PricePerTableCents int64
}

// FloorZone is a physical placement area drawing capacity from one tariff zone.
type FloorZone struct {
	FloorZoneID  string
	FestivalID   string
	TariffZoneID string
	Name         string
	TableCount   int64
}

// Exhibitor is the thin exhibitor record resolved or created by email.
type Exhibitor struct {
	ExhibitorID string
	Email       string
	Name        string
}

// Discount is one named price reduction applied to a reservation.
type Discount struct {
	Label       string `json:"label"`
	AmountCents int64  `json:"amount_cents"`
}

// Reservation is one exhibitor's booking of tables for one festival.
type Reservation struct {
	ReservationID   string
	ExhibitorID     string
	FestivalID      string
	WorkflowID      string
	StartPriceCents int64
	FinalPriceCents int64
	Discounts       []Discount
	PaymentStatus   PaymentStatus
	Note            string
}

// TariffAllocation records tables reserved by a reservation in one tariff zone.
type TariffAllocation struct {
	ReservationID  string
	TariffZoneID   string
	TablesReserved int64
}

// GameAllocation is one catalog item requested by a reservation. An empty
// FloorZoneID means the item sits in the unallocated pool.
type GameAllocation struct {
	AllocationID      string
	GameID            string
	ReservationID     string
	FloorZoneID       string
	TablesOccupied    int64
	CopiesCount       int64
	RequiredTableSize int64
}

// ReservationPlacement assigns a whole reservation a table count in one floor zone.
type ReservationPlacement struct {
	ReservationID string
	FloorZoneID   string
	Tables        int64
}

// ReservationDetail is a reservation joined with its exhibitor, workflow,
// tariff allocations, and game allocations.
type ReservationDetail struct {
	Reservation Reservation
	Exhibitor   Exhibitor
	Workflow    Workflow
	Allocations []TariffAllocation
	Games       []GameAllocation
}

// ExhibitorInput identifies an exhibitor by email, creating the record with
// the supplied display name when no match exists.
type ExhibitorInput struct {
	Email EmailAddress
	Name  string
}

// AllocationInput requests tables in one tariff zone.
type AllocationInput struct {
	TariffZoneID TariffZoneID
	Tables       PositiveTableCount
}

// GameRequest asks for one catalog item to travel with the reservation.
type GameRequest struct {
	GameID            GameID
	CopiesCount       int64
	RequiredTableSize int64
}

// ReservationInput carries everything needed to create a reservation.
type ReservationInput struct {
	Exhibitor       ExhibitorInput
	FestivalID      FestivalID
	StartPriceCents AmountCents
	FinalPriceCents AmountCents
	Discounts       []Discount
	PaymentStatus   PaymentStatus
	Note            string
	Allocations     []AllocationInput
	Games           []GameRequest
}

// Validate rejects structurally incomplete reservation input before any
// transaction begins.
func (input ReservationInput) Validate() error {
	if input.Exhibitor.Email == (EmailAddress{}) {
		return fmt.Errorf("%w: exhibitor email is required", ErrInvalidInput)
	}
	if input.FestivalID == (FestivalID{}) {
		return fmt.Errorf("%w: festival id is required", ErrInvalidInput)
	}
	if input.PaymentStatus != PaymentStatusUnpaid && input.PaymentStatus != PaymentStatusPaid {
		return fmt.Errorf("%w: payment status is required", ErrInvalidInput)
	}
	if len(input.Allocations) == 0 {
		return fmt.Errorf("%w: at least one tariff allocation is required", ErrInvalidInput)
	}
	seen := make(map[TariffZoneID]struct{}, len(input.Allocations))
	for _, allocation := range input.Allocations {
		if allocation.TariffZoneID == (TariffZoneID{}) {
			return fmt.Errorf("%w: tariff zone id is required", ErrInvalidInput)
		}
		if allocation.Tables <= 0 {
			return fmt.Errorf("%w: allocation table count is required", ErrInvalidInput)
		}
		if _, duplicate := seen[allocation.TariffZoneID]; duplicate {
			return fmt.Errorf("%w: duplicate tariff zone %s", ErrInvalidInput, allocation.TariffZoneID.String())
		}
		seen[allocation.TariffZoneID] = struct{}{}
	}
	for _, game := range input.Games {
		if game.GameID == (GameID{}) {
			return fmt.Errorf("%w: game id is required", ErrInvalidInput)
		}
		if game.CopiesCount < 0 || game.RequiredTableSize < 0 {
			return fmt.Errorf("%w: game counts must not be negative", ErrInvalidInput)
		}
	}
	return nil
}

// ReservationUpdate carries the mutable reservation fields and the
// replacement allocation list.
type ReservationUpdate struct {
	StartPriceCents AmountCents
	FinalPriceCents AmountCents
	Discounts       []Discount
	PaymentStatus   PaymentStatus
	Note            string
	Allocations     []AllocationInput
}

// Validate rejects structurally incomplete update input.
func (update ReservationUpdate) Validate() error {
	if update.PaymentStatus != PaymentStatusUnpaid && update.PaymentStatus != PaymentStatusPaid {
		return fmt.Errorf("%w: payment status is required", ErrInvalidInput)
	}
	if len(update.Allocations) == 0 {
		return fmt.Errorf("%w: at least one tariff allocation is required", ErrInvalidInput)
	}
	seen := make(map[TariffZoneID]struct{}, len(update.Allocations))
	for _, allocation := range update.Allocations {
		if allocation.TariffZoneID == (TariffZoneID{}) {
			return fmt.Errorf("%w: tariff zone id is required", ErrInvalidInput)
		}
		if allocation.Tables <= 0 {
			return fmt.Errorf("%w: allocation table count is required", ErrInvalidInput)
		}
		if _, duplicate := seen[allocation.TariffZoneID]; duplicate {
			return fmt.Errorf("%w: duplicate tariff zone %s", ErrInvalidInput, allocation.TariffZoneID.String())
		}
		seen[allocation.TariffZoneID] = struct{}{}
	}
	return nil
}

// TariffZoneInput carries everything needed to create a tariff zone.
type TariffZoneInput struct {
	FestivalID               FestivalID
	Name                     ZoneName
	TotalTables              PositiveTableCount
	PricePerTableCents       AmountCents
	PricePerSquareMeterCents AmountCents
}

// FloorZoneInput carries everything needed to create a floor zone.
type FloorZoneInput struct {
	FestivalID   FestivalID
	TariffZoneID TariffZoneID
	Name         ZoneName
	TableCount   TableCount
}
