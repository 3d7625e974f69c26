package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/tyemirov/tauth/pkg/sessionvalidator"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/openfestival/standbook/internal/store/gormstore"
	"github.com/openfestival/standbook/pkg/booking"
)

const testFestivalID = "0c9e2f0e-90f4-4aa4-9a2b-0b6a7d3c1e55"

func newTestServer(t *testing.T) (*httptest.Server, *http.Cookie) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(t.TempDir()+"/standbook.db"), &gorm.Config{})
	if err != nil {
		t.Fatalf("sqlite open failed: %v", err)
	}
	if err := db.AutoMigrate(gormstore.Models()...); err != nil {
		t.Fatalf("automigrate failed: %v", err)
	}
	if err := db.Create(&gormstore.Festival{FestivalID: testFestivalID, Name: "Autumn Games Fair"}).Error; err != nil {
		t.Fatalf("seed festival failed: %v", err)
	}

	store := gormstore.New(db)
	reservations, err := booking.NewReservationService(store)
	if err != nil {
		t.Fatalf("reservation service init failed: %v", err)
	}
	floorPlan, err := booking.NewFloorPlanService(store)
	if err != nil {
		t.Fatalf("floor plan service init failed: %v", err)
	}
	workflows, err := booking.NewWorkflowService(store)
	if err != nil {
		t.Fatalf("workflow service init failed: %v", err)
	}

	cfg := Config{
		ListenAddr:        ":0",
		AllowedOrigins:    []string{"http://localhost:8000"},
		SessionSigningKey: "secret-key",
		SessionIssuer:     "tauth",
		SessionCookieName: "app_session",
	}
	handler := &httpHandler{
		logger: zap.NewNop(),
		services: Services{
			Reservations: reservations,
			FloorPlan:    floorPlan,
			Workflows:    workflows,
		},
	}
	validator, err := sessionvalidator.New(sessionvalidator.Config{
		SigningKey: []byte(cfg.SessionSigningKey),
		Issuer:     cfg.SessionIssuer,
		CookieName: cfg.SessionCookieName,
	})
	if err != nil {
		t.Fatalf("validator init failed: %v", err)
	}

	router := setupRouter(cfg, handler, validator)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server, buildSessionCookie(t, cfg)
}

func buildSessionCookie(t *testing.T, cfg Config) *http.Cookie {
	t.Helper()
	claims := &sessionvalidator.Claims{
		UserID:          "admin-user",
		UserEmail:       "admin@example.org",
		UserDisplayName: "Admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.SessionIssuer,
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.SessionSigningKey))
	if err != nil {
		t.Fatalf("token signing failed: %v", err)
	}
	return &http.Cookie{Name: cfg.SessionCookieName, Value: signed}
}

func doJSON(t *testing.T, server *httptest.Server, method string, path string, cookie *http.Cookie, payload any) (int, map[string]any) {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, server.URL+path, body)
	if err != nil {
		t.Fatalf("request init failed: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	decoded := map[string]any{}
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil && !errors.Is(err, io.EOF) {
			t.Fatalf("decode response failed: %v", err)
		}
	}
	return resp.StatusCode, decoded
}

func reservationPayload(email string, zoneID string, tables int64) map[string]any {
	return map[string]any{
		"exhibitor":         map[string]any{"email": email, "name": "Stand Crew"},
		"festival_id":       testFestivalID,
		"start_price_cents": 12000,
		"final_price_cents": 10000,
		"discounts":         []map[string]any{{"label": "early bird", "amount_cents": 2000}},
		"payment_status":    "unpaid",
		"allocations":       []map[string]any{{"tariff_zone_id": zoneID, "tables": tables}},
		"games":             []map[string]any{{"game_id": "game-1", "copies_count": 1, "required_table_size": 2}},
	}
}

func TestReservationLifecycleOverHTTP(t *testing.T) {
	server, cookie := newTestServer(t)

	status, zoneBody := doJSON(t, server, http.MethodPost, "/api/tariff-zones", cookie, map[string]any{
		"festival_id":           testFestivalID,
		"name":                  "Main Hall",
		"total_tables":          10,
		"price_per_table_cents": 15000,
	})
	if status != http.StatusCreated {
		t.Fatalf("create tariff zone: status %d body %v", status, zoneBody)
	}
	zoneID := zoneBody["tariff_zone_id"].(string)

	status, created := doJSON(t, server, http.MethodPost, "/api/reservations", cookie, reservationPayload("crew@example.org", zoneID, 6))
	if status != http.StatusCreated {
		t.Fatalf("create reservation: status %d body %v", status, created)
	}
	reservationID := created["reservation_id"].(string)
	if got := created["workflow"].(map[string]any)["state"]; got != "no_contact" {
		t.Fatalf("expected workflow at no_contact, got %v", got)
	}

	status, stock := doJSON(t, server, http.MethodGet, "/api/festivals/"+testFestivalID+"/stock", cookie, nil)
	if status != http.StatusOK {
		t.Fatalf("stock: status %d body %v", status, stock)
	}
	zones := stock["zones"].([]any)
	if len(zones) != 1 {
		t.Fatalf("expected one zone, got %v", zones)
	}
	zone := zones[0].(map[string]any)
	if zone["available_tables"].(float64) != 4 || zone["reserved_tables"].(float64) != 6 {
		t.Fatalf("expected 4 available 6 reserved, got %v", zone)
	}

	status, rejected := doJSON(t, server, http.MethodPost, "/api/reservations", cookie, reservationPayload("other@example.org", zoneID, 5))
	if status != http.StatusConflict {
		t.Fatalf("expected conflict on over-booking, got %d body %v", status, rejected)
	}
	conflict := rejected["error"].(map[string]any)
	if conflict["code"] != "insufficient_stock" || conflict["available"].(float64) != 4 || conflict["requested"].(float64) != 5 {
		t.Fatalf("unexpected conflict payload: %v", conflict)
	}

	status, _ = doJSON(t, server, http.MethodDelete, "/api/reservations/"+reservationID, cookie, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete reservation: status %d", status)
	}
	_, stockAfter := doJSON(t, server, http.MethodGet, "/api/festivals/"+testFestivalID+"/stock", cookie, nil)
	zoneAfter := stockAfter["zones"].([]any)[0].(map[string]any)
	if zoneAfter["available_tables"].(float64) != 10 {
		t.Fatalf("expected full stock restored, got %v", zoneAfter)
	}
}

func TestFloorPlanOverHTTP(t *testing.T) {
	server, cookie := newTestServer(t)

	_, zoneBody := doJSON(t, server, http.MethodPost, "/api/tariff-zones", cookie, map[string]any{
		"festival_id":           testFestivalID,
		"name":                  "Main Hall",
		"total_tables":          20,
		"price_per_table_cents": 15000,
	})
	zoneID := zoneBody["tariff_zone_id"].(string)

	status, created := doJSON(t, server, http.MethodPost, "/api/reservations", cookie, reservationPayload("crew@example.org", zoneID, 8))
	if status != http.StatusCreated {
		t.Fatalf("create reservation: status %d body %v", status, created)
	}
	games := created["games"].([]any)
	allocationID := games[0].(map[string]any)["allocation_id"].(string)

	status, floorBody := doJSON(t, server, http.MethodPost, "/api/floor-zones", cookie, map[string]any{
		"festival_id":    testFestivalID,
		"tariff_zone_id": zoneID,
		"name":           "Hall F",
		"table_count":    8,
	})
	if status != http.StatusCreated {
		t.Fatalf("create floor zone: status %d body %v", status, floorBody)
	}
	floorZoneID := floorBody["floor_zone_id"].(string)

	status, renamed := doJSON(t, server, http.MethodPatch, "/api/floor-zones/"+floorZoneID, cookie, map[string]any{
		"name": "Hall F West",
	})
	if status != http.StatusOK {
		t.Fatalf("rename floor zone: status %d body %v", status, renamed)
	}
	if renamed["name"].(string) != "Hall F West" || renamed["table_count"].(float64) != 8 {
		t.Fatalf("rename must not touch the table count, got %v", renamed)
	}

	status, unallocated := doJSON(t, server, http.MethodGet, "/api/festivals/"+testFestivalID+"/game-allocations/unallocated", cookie, nil)
	if status != http.StatusOK || len(unallocated["game_allocations"].([]any)) != 1 {
		t.Fatalf("expected one unallocated game, got %d %v", status, unallocated)
	}

	status, assigned := doJSON(t, server, http.MethodPatch, "/api/game-allocations/"+allocationID, cookie, map[string]any{
		"floor_zone_id":   floorZoneID,
		"tables_occupied": 6,
	})
	if status != http.StatusOK {
		t.Fatalf("assign game: status %d body %v", status, assigned)
	}
	if assigned["tables_occupied"].(float64) != 6 {
		t.Fatalf("expected 6 tables occupied, got %v", assigned)
	}

	_, unallocatedAfter := doJSON(t, server, http.MethodGet, "/api/festivals/"+testFestivalID+"/game-allocations/unallocated", cookie, nil)
	if len(unallocatedAfter["game_allocations"].([]any)) != 0 {
		t.Fatalf("expected empty unallocated pool, got %v", unallocatedAfter)
	}

	status, rejected := doJSON(t, server, http.MethodPut, "/api/reservations/"+created["reservation_id"].(string)+"/placements/"+floorZoneID, cookie, map[string]any{
		"tables": 9,
	})
	if status != http.StatusConflict {
		t.Fatalf("expected capacity conflict, got %d body %v", status, rejected)
	}

	status, placed := doJSON(t, server, http.MethodPut, "/api/reservations/"+created["reservation_id"].(string)+"/placements/"+floorZoneID, cookie, map[string]any{
		"tables": 8,
	})
	if status != http.StatusOK {
		t.Fatalf("place reservation: status %d body %v", status, placed)
	}

	status, inUse := doJSON(t, server, http.MethodDelete, "/api/floor-zones/"+floorZoneID, cookie, nil)
	if status != http.StatusConflict {
		t.Fatalf("expected floor zone in use, got %d body %v", status, inUse)
	}
}

func TestWorkflowOverHTTP(t *testing.T) {
	server, cookie := newTestServer(t)

	_, zoneBody := doJSON(t, server, http.MethodPost, "/api/tariff-zones", cookie, map[string]any{
		"festival_id":           testFestivalID,
		"name":                  "Main Hall",
		"total_tables":          10,
		"price_per_table_cents": 15000,
	})
	zoneID := zoneBody["tariff_zone_id"].(string)

	status, created := doJSON(t, server, http.MethodPost, "/api/reservations", cookie, reservationPayload("crew@example.org", zoneID, 2))
	if status != http.StatusCreated {
		t.Fatalf("create reservation: status %d body %v", status, created)
	}
	exhibitorID := created["exhibitor"].(map[string]any)["exhibitor_id"].(string)

	status, rejected := doJSON(t, server, http.MethodPatch, "/api/workflows/state", cookie, map[string]any{
		"exhibitor_id": exhibitorID,
		"festival_id":  testFestivalID,
		"state":        "reservation_confirmed",
	})
	if status != http.StatusOK || rejected["status"] != "transition_rejected" {
		t.Fatalf("expected transition_rejected, got %d %v", status, rejected)
	}

	status, moved := doJSON(t, server, http.MethodPatch, "/api/workflows/state", cookie, map[string]any{
		"exhibitor_id": exhibitorID,
		"festival_id":  testFestivalID,
		"state":        "in_discussion",
	})
	if status != http.StatusOK || moved["status"] != "ok" {
		t.Fatalf("expected accepted transition, got %d %v", status, moved)
	}
	if moved["workflow"].(map[string]any)["state"] != "in_discussion" {
		t.Fatalf("expected in_discussion, got %v", moved)
	}

	status, flagged := doJSON(t, server, http.MethodPatch, "/api/workflows/flags", cookie, map[string]any{
		"exhibitor_id":        exhibitorID,
		"festival_id":         testFestivalID,
		"requested_game_list": true,
	})
	if status != http.StatusOK {
		t.Fatalf("set flags: status %d body %v", status, flagged)
	}
	flags := flagged["workflow"].(map[string]any)
	if flags["requested_game_list"] != true || flags["obtained_game_list"] != false {
		t.Fatalf("unexpected flags: %v", flags)
	}
}

func TestRequestsWithoutSessionAreRejected(t *testing.T) {
	server, _ := newTestServer(t)

	status, _ := doJSON(t, server, http.MethodGet, "/api/festivals/"+testFestivalID+"/stock", nil, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session cookie, got %d", status)
	}
}
