package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Festival is the engine's projection of the external festival registry.
// Rows are written by the surrounding application; the engine only checks
// existence.
type Festival struct {
	FestivalID string    `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (Festival) TableName() string { return "festivals" }

// Exhibitor represents the exhibitors table.
type Exhibitor struct {
	ExhibitorID string    `gorm:"type:uuid;primaryKey"`
	Email       string    `gorm:"not null;uniqueIndex:uniq_exhibitors_email"`
	Name        string    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

func (Exhibitor) TableName() string { return "exhibitors" }

func (exhibitor *Exhibitor) BeforeCreate(tx *gorm.DB) error {
	if exhibitor.ExhibitorID == "" {
		exhibitor.ExhibitorID = uuid.NewString()
	}
	return nil
}

// TariffZone mirrors the tariff_zones table.
type TariffZone struct {
	ZoneID                   string    `gorm:"type:uuid;primaryKey"`
	FestivalID               string    `gorm:"type:uuid;not null;index:idx_tariff_zones_festival"`
	Name                     string    `gorm:"not null"`
	TotalTables              int64     `gorm:"not null"`
	AvailableTables          int64     `gorm:"not null"`
	PricePerTableCents       int64     `gorm:"not null"`
	PricePerSquareMeterCents int64     `gorm:"not null"`
	CreatedAt                time.Time `gorm:"not null"`
	UpdatedAt                time.Time `gorm:"not null"`
}

func (TariffZone) TableName() string { return "tariff_zones" }

func (zone *TariffZone) BeforeCreate(tx *gorm.DB) error {
	if zone.ZoneID == "" {
		zone.ZoneID = uuid.NewString()
	}
	return nil
}

// FloorZone mirrors the floor_zones table.
type FloorZone struct {
	FloorZoneID  string    `gorm:"type:uuid;primaryKey"`
	FestivalID   string    `gorm:"type:uuid;not null;index:idx_floor_zones_festival"`
	TariffZoneID string    `gorm:"type:uuid;not null;index:idx_floor_zones_tariff_zone"`
	Name         string    `gorm:"not null"`
	TableCount   int64     `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (FloorZone) TableName() string { return "floor_zones" }

func (zone *FloorZone) BeforeCreate(tx *gorm.DB) error {
	if zone.FloorZoneID == "" {
		zone.FloorZoneID = uuid.NewString()
	}
	return nil
}

// Reservation mirrors the reservations table. One row per exhibitor per
// festival, enforced by the composite unique index.
type Reservation struct {
	ReservationID   string         `gorm:"type:uuid;primaryKey"`
	ExhibitorID     string         `gorm:"type:uuid;not null;index:uniq_reservations_exhibitor_festival,unique,priority:1"`
	FestivalID      string         `gorm:"type:uuid;not null;index:uniq_reservations_exhibitor_festival,unique,priority:2"`
	WorkflowID      string         `gorm:"type:uuid;not null"`
	StartPriceCents int64          `gorm:"not null"`
	FinalPriceCents int64          `gorm:"not null"`
	Discounts       datatypes.JSON `gorm:"not null"`
	PaymentStatus   string         `gorm:"not null"`
	Note            string         `gorm:""`
	CreatedAt       time.Time      `gorm:"not null"`
	UpdatedAt       time.Time      `gorm:"not null"`
}

func (Reservation) TableName() string { return "reservations" }

func (reservation *Reservation) BeforeCreate(tx *gorm.DB) error {
	if reservation.ReservationID == "" {
		reservation.ReservationID = uuid.NewString()
	}
	return nil
}

// TariffAllocation mirrors the reservation_tariff_allocations table.
type TariffAllocation struct {
	ReservationID  string    `gorm:"type:uuid;primaryKey"`
	TariffZoneID   string    `gorm:"type:uuid;primaryKey"`
	TablesReserved int64     `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
}

func (TariffAllocation) TableName() string { return "reservation_tariff_allocations" }

// GameAllocation mirrors the game_allocations table. A null floor zone
// means the item sits in the unallocated pool.
type GameAllocation struct {
	AllocationID      string    `gorm:"type:uuid;primaryKey"`
	GameID            string    `gorm:"not null;index:idx_game_allocations_game"`
	ReservationID     string    `gorm:"type:uuid;not null;index:idx_game_allocations_reservation"`
	FloorZoneID       *string   `gorm:"type:uuid;index:idx_game_allocations_floor_zone"`
	TablesOccupied    int64     `gorm:"not null"`
	CopiesCount       int64     `gorm:"not null"`
	RequiredTableSize int64     `gorm:"not null"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

func (GameAllocation) TableName() string { return "game_allocations" }

func (allocation *GameAllocation) BeforeCreate(tx *gorm.DB) error {
	if allocation.AllocationID == "" {
		allocation.AllocationID = uuid.NewString()
	}
	return nil
}

// ReservationPlacement mirrors the reservation_placements table.
type ReservationPlacement struct {
	ReservationID string    `gorm:"type:uuid;primaryKey"`
	FloorZoneID   string    `gorm:"type:uuid;primaryKey;index:idx_reservation_placements_floor_zone"`
	Tables        int64     `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (ReservationPlacement) TableName() string { return "reservation_placements" }

// Workflow mirrors the workflows table. One row per exhibitor per festival.
type Workflow struct {
	WorkflowID        string    `gorm:"type:uuid;primaryKey"`
	ExhibitorID       string    `gorm:"type:uuid;not null;index:uniq_workflows_exhibitor_festival,unique,priority:1"`
	FestivalID        string    `gorm:"type:uuid;not null;index:uniq_workflows_exhibitor_festival,unique,priority:2"`
	State             string    `gorm:"not null"`
	RequestedGameList bool      `gorm:"not null"`
	ObtainedGameList  bool      `gorm:"not null"`
	ReceivedGames     bool      `gorm:"not null"`
	WillPresentGames  bool      `gorm:"not null"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

func (Workflow) TableName() string { return "workflows" }

func (workflow *Workflow) BeforeCreate(tx *gorm.DB) error {
	if workflow.WorkflowID == "" {
		workflow.WorkflowID = uuid.NewString()
	}
	return nil
}

// Models lists every table for schema migration.
func Models() []any {
	return []any{
		&Festival{},
		&Exhibitor{},
		&TariffZone{},
		&FloorZone{},
		&Reservation{},
		&TariffAllocation{},
		&GameAllocation{},
		&ReservationPlacement{},
		&Workflow{},
	}
}
