package httpserver

import (
	"github.com/openfestival/standbook/pkg/booking"
)

type exhibitorPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type allocationPayload struct {
	TariffZoneID string `json:"tariff_zone_id"`
	Tables       int64  `json:"tables"`
}

type gameRequestPayload struct {
	GameID            string `json:"game_id"`
	CopiesCount       int64  `json:"copies_count"`
	RequiredTableSize int64  `json:"required_table_size"`
}

type reservationRequest struct {
	Exhibitor       exhibitorPayload     `json:"exhibitor"`
	FestivalID      string               `json:"festival_id"`
	StartPriceCents int64                `json:"start_price_cents"`
	FinalPriceCents int64                `json:"final_price_cents"`
	Discounts       []booking.Discount   `json:"discounts"`
	PaymentStatus   string               `json:"payment_status"`
	Note            string               `json:"note"`
	Allocations     []allocationPayload  `json:"allocations"`
	Games           []gameRequestPayload `json:"games"`
}

func (request reservationRequest) toInput() (booking.ReservationInput, error) {
	var input booking.ReservationInput
	email, err := booking.NewEmailAddress(request.Exhibitor.Email)
	if err != nil {
		return input, err
	}
	festivalID, err := booking.NewFestivalID(request.FestivalID)
	if err != nil {
		return input, err
	}
	startPrice, err := booking.NewAmountCents(request.StartPriceCents)
	if err != nil {
		return input, err
	}
	finalPrice, err := booking.NewAmountCents(request.FinalPriceCents)
	if err != nil {
		return input, err
	}
	paymentStatus, err := booking.ParsePaymentStatus(request.PaymentStatus)
	if err != nil {
		return input, err
	}
	allocations, err := mapAllocationPayloads(request.Allocations)
	if err != nil {
		return input, err
	}
	games := make([]booking.GameRequest, 0, len(request.Games))
	for _, game := range request.Games {
		gameID, err := booking.NewGameID(game.GameID)
		if err != nil {
			return input, err
		}
		games = append(games, booking.GameRequest{
			GameID:            gameID,
			CopiesCount:       game.CopiesCount,
			RequiredTableSize: game.RequiredTableSize,
		})
	}
	return booking.ReservationInput{
		Exhibitor:       booking.ExhibitorInput{Email: email, Name: request.Exhibitor.Name},
		FestivalID:      festivalID,
		StartPriceCents: startPrice,
		FinalPriceCents: finalPrice,
		Discounts:       request.Discounts,
		PaymentStatus:   paymentStatus,
		Note:            request.Note,
		Allocations:     allocations,
		Games:           games,
	}, nil
}

type reservationUpdateRequest struct {
	StartPriceCents int64               `json:"start_price_cents"`
	FinalPriceCents int64               `json:"final_price_cents"`
	Discounts       []booking.Discount  `json:"discounts"`
	PaymentStatus   string              `json:"payment_status"`
	Note            string              `json:"note"`
	Allocations     []allocationPayload `json:"allocations"`
}

func (request reservationUpdateRequest) toUpdate() (booking.ReservationUpdate, error) {
	var update booking.ReservationUpdate
	startPrice, err := booking.NewAmountCents(request.StartPriceCents)
	if err != nil {
		return update, err
	}
	finalPrice, err := booking.NewAmountCents(request.FinalPriceCents)
	if err != nil {
		return update, err
	}
	paymentStatus, err := booking.ParsePaymentStatus(request.PaymentStatus)
	if err != nil {
		return update, err
	}
	allocations, err := mapAllocationPayloads(request.Allocations)
	if err != nil {
		return update, err
	}
	return booking.ReservationUpdate{
		StartPriceCents: startPrice,
		FinalPriceCents: finalPrice,
		Discounts:       request.Discounts,
		PaymentStatus:   paymentStatus,
		Note:            request.Note,
		Allocations:     allocations,
	}, nil
}

func mapAllocationPayloads(payloads []allocationPayload) ([]booking.AllocationInput, error) {
	allocations := make([]booking.AllocationInput, 0, len(payloads))
	for _, payload := range payloads {
		zoneID, err := booking.NewTariffZoneID(payload.TariffZoneID)
		if err != nil {
			return nil, err
		}
		tables, err := booking.NewPositiveTableCount(payload.Tables)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, booking.AllocationInput{TariffZoneID: zoneID, Tables: tables})
	}
	return allocations, nil
}

type tariffZoneRequest struct {
	FestivalID               string `json:"festival_id"`
	Name                     string `json:"name"`
	TotalTables              int64  `json:"total_tables"`
	PricePerTableCents       int64  `json:"price_per_table_cents"`
	PricePerSquareMeterCents int64  `json:"price_per_square_meter_cents"`
}

func (request tariffZoneRequest) toInput() (booking.TariffZoneInput, error) {
	var input booking.TariffZoneInput
	festivalID, err := booking.NewFestivalID(request.FestivalID)
	if err != nil {
		return input, err
	}
	name, err := booking.NewZoneName(request.Name)
	if err != nil {
		return input, err
	}
	totalTables, err := booking.NewPositiveTableCount(request.TotalTables)
	if err != nil {
		return input, err
	}
	pricePerTable, err := booking.NewAmountCents(request.PricePerTableCents)
	if err != nil {
		return input, err
	}
	pricePerSquareMeter, err := booking.NewAmountCents(request.PricePerSquareMeterCents)
	if err != nil {
		return input, err
	}
	return booking.TariffZoneInput{
		FestivalID:               festivalID,
		Name:                     name,
		TotalTables:              totalTables,
		PricePerTableCents:       pricePerTable,
		PricePerSquareMeterCents: pricePerSquareMeter,
	}, nil
}

type floorZoneRequest struct {
	FestivalID   string `json:"festival_id"`
	TariffZoneID string `json:"tariff_zone_id"`
	Name         string `json:"name"`
	TableCount   int64  `json:"table_count"`
}

func (request floorZoneRequest) toInput() (booking.FloorZoneInput, error) {
	var input booking.FloorZoneInput
	festivalID, err := booking.NewFestivalID(request.FestivalID)
	if err != nil {
		return input, err
	}
	tariffZoneID, err := booking.NewTariffZoneID(request.TariffZoneID)
	if err != nil {
		return input, err
	}
	name, err := booking.NewZoneName(request.Name)
	if err != nil {
		return input, err
	}
	tableCount, err := booking.NewTableCount(request.TableCount)
	if err != nil {
		return input, err
	}
	return booking.FloorZoneInput{
		FestivalID:   festivalID,
		TariffZoneID: tariffZoneID,
		Name:         name,
		TableCount:   tableCount,
	}, nil
}

type floorZonePatchRequest struct {
	Name       string `json:"name"`
	TableCount *int64 `json:"table_count"`
}

type gameAssignRequest struct {
	FloorZoneID    *string `json:"floor_zone_id"`
	TablesOccupied int64   `json:"tables_occupied"`
}

type placementRequest struct {
	Tables int64 `json:"tables"`
}

type workflowStateRequest struct {
	ExhibitorID string `json:"exhibitor_id"`
	FestivalID  string `json:"festival_id"`
	State       string `json:"state"`
}

type workflowFlagsRequest struct {
	ExhibitorID       string `json:"exhibitor_id"`
	FestivalID        string `json:"festival_id"`
	RequestedGameList *bool  `json:"requested_game_list"`
	ObtainedGameList  *bool  `json:"obtained_game_list"`
	ReceivedGames     *bool  `json:"received_games"`
	WillPresentGames  *bool  `json:"will_present_games"`
}

type exhibitorResponse struct {
	ExhibitorID string `json:"exhibitor_id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
}

type workflowResponse struct {
	WorkflowID        string `json:"workflow_id"`
	ExhibitorID       string `json:"exhibitor_id"`
	FestivalID        string `json:"festival_id"`
	State             string `json:"state"`
	RequestedGameList bool   `json:"requested_game_list"`
	ObtainedGameList  bool   `json:"obtained_game_list"`
	ReceivedGames     bool   `json:"received_games"`
	WillPresentGames  bool   `json:"will_present_games"`
}

type allocationResponse struct {
	TariffZoneID   string `json:"tariff_zone_id"`
	TablesReserved int64  `json:"tables_reserved"`
}

type gameAllocationResponse struct {
	AllocationID      string `json:"allocation_id"`
	GameID            string `json:"game_id"`
	ReservationID     string `json:"reservation_id"`
	FloorZoneID       string `json:"floor_zone_id,omitempty"`
	TablesOccupied    int64  `json:"tables_occupied"`
	CopiesCount       int64  `json:"copies_count"`
	RequiredTableSize int64  `json:"required_table_size"`
}

type reservationResponse struct {
	ReservationID   string                   `json:"reservation_id"`
	FestivalID      string                   `json:"festival_id"`
	Exhibitor       exhibitorResponse        `json:"exhibitor"`
	Workflow        workflowResponse         `json:"workflow"`
	StartPriceCents int64                    `json:"start_price_cents"`
	FinalPriceCents int64                    `json:"final_price_cents"`
	Discounts       []booking.Discount       `json:"discounts"`
	PaymentStatus   string                   `json:"payment_status"`
	Note            string                   `json:"note,omitempty"`
	Allocations     []allocationResponse     `json:"allocations"`
	Games           []gameAllocationResponse `json:"games"`
}

type zoneStockResponse struct {
	TariffZoneID       string `json:"tariff_zone_id"`
	Name               string `json:"name"`
	TotalTables        int64  `json:"total_tables"`
	AvailableTables    int64  `json:"available_tables"`
	ReservedTables     int64  `json:"reserved_tables"`
	PricePerTableCents int64  `json:"price_per_table_cents"`
}

type floorZoneResponse struct {
	FloorZoneID  string `json:"floor_zone_id"`
	FestivalID   string `json:"festival_id"`
	TariffZoneID string `json:"tariff_zone_id"`
	Name         string `json:"name"`
	TableCount   int64  `json:"table_count"`
}

func mapReservationResponse(detail booking.ReservationDetail) reservationResponse {
	allocations := make([]allocationResponse, 0, len(detail.Allocations))
	for _, allocation := range detail.Allocations {
		allocations = append(allocations, allocationResponse{
			TariffZoneID:   allocation.TariffZoneID,
			TablesReserved: allocation.TablesReserved,
		})
	}
	games := make([]gameAllocationResponse, 0, len(detail.Games))
	for _, game := range detail.Games {
		games = append(games, mapGameAllocationResponse(game))
	}
	return reservationResponse{
		ReservationID:   detail.Reservation.ReservationID,
		FestivalID:      detail.Reservation.FestivalID,
		Exhibitor: exhibitorResponse{
			ExhibitorID: detail.Exhibitor.ExhibitorID,
			Email:       detail.Exhibitor.Email,
			Name:        detail.Exhibitor.Name,
		},
		Workflow:        mapWorkflowResponse(detail.Workflow),
		StartPriceCents: detail.Reservation.StartPriceCents,
		FinalPriceCents: detail.Reservation.FinalPriceCents,
		Discounts:       detail.Reservation.Discounts,
		PaymentStatus:   detail.Reservation.PaymentStatus.String(),
		Note:            detail.Reservation.Note,
		Allocations:     allocations,
		Games:           games,
	}
}

func mapWorkflowResponse(workflow booking.Workflow) workflowResponse {
	return workflowResponse{
		WorkflowID:        workflow.WorkflowID,
		ExhibitorID:       workflow.ExhibitorID,
		FestivalID:        workflow.FestivalID,
		State:             workflow.State.String(),
		RequestedGameList: workflow.Flags.RequestedGameList,
		ObtainedGameList:  workflow.Flags.ObtainedGameList,
		ReceivedGames:     workflow.Flags.ReceivedGames,
		WillPresentGames:  workflow.Flags.WillPresentGames,
	}
}

func mapGameAllocationResponse(allocation booking.GameAllocation) gameAllocationResponse {
	return gameAllocationResponse{
		AllocationID:      allocation.AllocationID,
		GameID:            allocation.GameID,
		ReservationID:     allocation.ReservationID,
		FloorZoneID:       allocation.FloorZoneID,
		TablesOccupied:    allocation.TablesOccupied,
		CopiesCount:       allocation.CopiesCount,
		RequiredTableSize: allocation.RequiredTableSize,
	}
}

func mapFloorZoneResponse(zone booking.FloorZone) floorZoneResponse {
	return floorZoneResponse{
		FloorZoneID:  zone.FloorZoneID,
		FestivalID:   zone.FestivalID,
		TariffZoneID: zone.TariffZoneID,
		Name:         zone.Name,
		TableCount:   zone.TableCount,
	}
}
