package booking

const (
	operationReservationCreate    = "reservation_create"
	operationReservationUpdate    = "reservation_update"
	operationReservationDelete    = "reservation_delete"
	operationTariffZoneCreate     = "tariff_zone_create"
	operationFloorZoneCreate      = "floor_zone_create"
	operationFloorZoneUpdate      = "floor_zone_update"
	operationFloorZoneDelete      = "floor_zone_delete"
	operationGameAssign           = "game_allocation_assign"
	operationGameClear            = "game_allocation_clear"
	operationPlacementSet         = "reservation_placement_set"
	operationWorkflowChangeState  = "workflow_change_state"
	operationWorkflowSetFlags     = "workflow_set_flags"

	operationStatusOK    = "ok"
	operationStatusError = "error"
)
