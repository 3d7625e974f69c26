package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openfestival/standbook/pkg/booking"
)

func (handler *httpHandler) handleCreateReservation(ctx *gin.Context) {
	var request reservationRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_request", err.Error()))
		return
	}
	input, err := request.toInput()
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	detail, err := handler.services.Reservations.Create(ctx.Request.Context(), input)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, mapReservationResponse(detail))
}

func (handler *httpHandler) handleUpdateReservation(ctx *gin.Context) {
	reservationID, err := booking.NewReservationID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	var request reservationUpdateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_request", err.Error()))
		return
	}
	update, err := request.toUpdate()
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	detail, err := handler.services.Reservations.Update(ctx.Request.Context(), reservationID, update)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, mapReservationResponse(detail))
}

func (handler *httpHandler) handleDeleteReservation(ctx *gin.Context) {
	reservationID, err := booking.NewReservationID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	if err := handler.services.Reservations.Delete(ctx.Request.Context(), reservationID); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (handler *httpHandler) handleGetReservation(ctx *gin.Context) {
	reservationID, err := booking.NewReservationID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	detail, err := handler.services.Reservations.Get(ctx.Request.Context(), reservationID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, mapReservationResponse(detail))
}

func (handler *httpHandler) handlePlaceReservation(ctx *gin.Context) {
	reservationID, err := booking.NewReservationID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	floorZoneID, err := booking.NewFloorZoneID(ctx.Param("floorZoneId"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	var request placementRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_request", err.Error()))
		return
	}
	tables, err := booking.NewTableCount(request.Tables)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	if err := handler.services.FloorPlan.PlaceReservation(ctx.Request.Context(), reservationID, floorZoneID, tables); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (handler *httpHandler) handleCreateTariffZone(ctx *gin.Context) {
	var request tariffZoneRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_request", err.Error()))
		return
	}
	input, err := request.toInput()
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	zone, err := handler.services.Reservations.CreateTariffZone(ctx.Request.Context(), input)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{
		"tariff_zone_id":               zone.ZoneID,
		"festival_id":                  zone.FestivalID,
		"name":                         zone.Name,
		"total_tables":                 zone.TotalTables,
		"available_tables":             zone.AvailableTables,
		"price_per_table_cents":        zone.PricePerTableCents,
		"price_per_square_meter_cents": zone.PricePerSquareMeterCents,
	})
}

func (handler *httpHandler) handleStock(ctx *gin.Context) {
	festivalID, err := booking.NewFestivalID(ctx.Param("festivalId"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	stock, err := handler.services.Reservations.Stock(ctx.Request.Context(), festivalID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	zones := make([]zoneStockResponse, 0, len(stock))
	for _, zone := range stock {
		zones = append(zones, zoneStockResponse{
			TariffZoneID:       zone.ZoneID,
			Name:               zone.Name,
			TotalTables:        zone.TotalTables,
			AvailableTables:    zone.AvailableTables,
			ReservedTables:     zone.ReservedTables,
			PricePerTableCents: zone.PricePerTableCents,
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"zones": zones})
}

func (handler *httpHandler) handleListFloorZones(ctx *gin.Context) {
	festivalID, err := booking.NewFestivalID(ctx.Param("festivalId"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	zones, err := handler.services.FloorPlan.ListFloorZones(ctx.Request.Context(), festivalID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payload := make([]floorZoneResponse, 0, len(zones))
	for _, zone := range zones {
		payload = append(payload, mapFloorZoneResponse(zone))
	}
	ctx.JSON(http.StatusOK, gin.H{"floor_zones": payload})
}

func (handler *httpHandler) handleListUnallocated(ctx *gin.Context) {
	festivalID, err := booking.NewFestivalID(ctx.Param("festivalId"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	allocations, err := handler.services.FloorPlan.ListUnallocated(ctx.Request.Context(), festivalID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payload := make([]gameAllocationResponse, 0, len(allocations))
	for _, allocation := range allocations {
		payload = append(payload, mapGameAllocationResponse(allocation))
	}
	ctx.JSON(http.StatusOK, gin.H{"game_allocations": payload})
}

func (handler *httpHandler) handleCreateFloorZone(ctx *gin.Context) {
	var request floorZoneRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_request", err.Error()))
		return
	}
	input, err := request.toInput()
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	zone, err := handler.services.FloorPlan.CreateFloorZone(ctx.Request.Context(), input)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, mapFloorZoneResponse(zone))
}

func (handler *httpHandler) handleResizeFloorZone(ctx *gin.Context) {
	floorZoneID, err := booking.NewFloorZoneID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	var request floorZonePatchRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_request", err.Error()))
		return
	}
	var name booking.ZoneName
	if request.Name != "" {
		name, err = booking.NewZoneName(request.Name)
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
	}
	var tableCount *booking.TableCount
	if request.TableCount != nil {
		parsed, err := booking.NewTableCount(*request.TableCount)
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		tableCount = &parsed
	}
	zone, err := handler.services.FloorPlan.ResizeFloorZone(ctx.Request.Context(), floorZoneID, name, tableCount)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, mapFloorZoneResponse(zone))
}

func (handler *httpHandler) handleDeleteFloorZone(ctx *gin.Context) {
	floorZoneID, err := booking.NewFloorZoneID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	if err := handler.services.FloorPlan.DeleteFloorZone(ctx.Request.Context(), floorZoneID); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (handler *httpHandler) handleAssignGame(ctx *gin.Context) {
	allocationID, err := booking.NewAllocationID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	var request gameAssignRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_request", err.Error()))
		return
	}
	if request.FloorZoneID == nil || *request.FloorZoneID == "" {
		allocation, err := handler.services.FloorPlan.ClearGame(ctx.Request.Context(), allocationID)
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, mapGameAllocationResponse(allocation))
		return
	}
	floorZoneID, err := booking.NewFloorZoneID(*request.FloorZoneID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	tables, err := booking.NewTableCount(request.TablesOccupied)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	allocation, err := handler.services.FloorPlan.AssignGame(ctx.Request.Context(), allocationID, floorZoneID, tables)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, mapGameAllocationResponse(allocation))
}

func (handler *httpHandler) handleWorkflowState(ctx *gin.Context) {
	var request workflowStateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_request", err.Error()))
		return
	}
	exhibitorID, festivalID, err := workflowSubject(request.ExhibitorID, request.FestivalID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	next, err := booking.ParseWorkflowState(request.State)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	workflow, err := handler.services.Workflows.ChangeState(ctx.Request.Context(), exhibitorID, festivalID, next)
	if err != nil {
		if errors.Is(err, booking.ErrTransitionNotAllowed) {
			current, getErr := handler.services.Workflows.Get(ctx.Request.Context(), exhibitorID, festivalID)
			if getErr != nil {
				handler.respondError(ctx, getErr)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"status":   "transition_rejected",
				"workflow": mapWorkflowResponse(current),
			})
			return
		}
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"workflow": mapWorkflowResponse(workflow),
	})
}

func (handler *httpHandler) handleWorkflowFlags(ctx *gin.Context) {
	var request workflowFlagsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_request", err.Error()))
		return
	}
	exhibitorID, festivalID, err := workflowSubject(request.ExhibitorID, request.FestivalID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	patch := booking.WorkflowFlagPatch{
		RequestedGameList: request.RequestedGameList,
		ObtainedGameList:  request.ObtainedGameList,
		ReceivedGames:     request.ReceivedGames,
		WillPresentGames:  request.WillPresentGames,
	}
	workflow, err := handler.services.Workflows.SetFlags(ctx.Request.Context(), exhibitorID, festivalID, patch)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"workflow": mapWorkflowResponse(workflow),
	})
}

func workflowSubject(rawExhibitorID string, rawFestivalID string) (booking.ExhibitorID, booking.FestivalID, error) {
	exhibitorID, err := booking.NewExhibitorID(rawExhibitorID)
	if err != nil {
		return booking.ExhibitorID{}, booking.FestivalID{}, err
	}
	festivalID, err := booking.NewFestivalID(rawFestivalID)
	if err != nil {
		return booking.ExhibitorID{}, booking.FestivalID{}, err
	}
	return exhibitorID, festivalID, nil
}
