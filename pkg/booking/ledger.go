package booking

import "context"

// The tariff-zone ledger primitives. Both operate on a row locked for the
// lifetime of the enclosing transaction, so a concurrent reserve on the
// same zone blocks until this transaction commits or rolls back and then
// re-reads the current available count.

// ReserveZoneTables decrements a zone's available tables after checking
// stock under the row lock. Insufficient stock fails the enclosing
// transaction with an InsufficientStockError carrying the counts.
func ReserveZoneTables(ctx context.Context, txStore Store, zoneID string, tables int64) error {
	zone, err := txStore.GetTariffZoneForUpdate(ctx, zoneID)
	if err != nil {
		return err
	}
	if zone.AvailableTables < tables {
		return InsufficientStockError{
			ZoneID:    zone.ZoneID,
			Available: zone.AvailableTables,
			Requested: tables,
		}
	}
	return txStore.SetTariffZoneAvailable(ctx, zone.ZoneID, zone.AvailableTables-tables)
}

// ReleaseZoneTables adds tables back unconditionally, clamped at the zone's
// total so the 0 <= available <= total invariant holds even against a
// misbehaving caller. It fails only on a missing zone.
func ReleaseZoneTables(ctx context.Context, txStore Store, zoneID string, tables int64) error {
	zone, err := txStore.GetTariffZoneForUpdate(ctx, zoneID)
	if err != nil {
		return err
	}
	restored := zone.AvailableTables + tables
	if restored > zone.TotalTables {
		restored = zone.TotalTables
	}
	return txStore.SetTariffZoneAvailable(ctx, zone.ZoneID, restored)
}
