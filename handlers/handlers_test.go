package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	memoryRepo "roomkeeper/database/repository/memory"
	"roomkeeper/handlers"
	"roomkeeper/models"
	"roomkeeper/routes"
	"roomkeeper/services/booking"
	"roomkeeper/utils"

	"github.com/gin-gonic/gin"
)

const hotel = "h1"

type testServer struct {
	router *gin.Engine
	engine *booking.DefaultEngine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.SetSecret("test-secret")

	store := memoryRepo.NewStore()
	engine := &booking.DefaultEngine{
		Catalog:      store,
		Reservations: store,
		Guard:        booking.NewConflictGuard(booking.NewLocalLocker(), time.Second, nil),
	}
	_, err := engine.CreateRoomType(context.Background(), hotel, models.CreateRoomTypeRequest{
		Name:     "Deluxe",
		BaseRate: 100,
		Units:    []models.NewRoomUnit{{Number: "101", Capacity: 2}, {Number: "102", Capacity: 2}},
	})
	if err != nil {
		t.Fatal(err)
	}

	router := gin.New()
	bundle := handlers.NewHandlerBundle(
		handlers.NewAvailabilityHandler(engine),
		handlers.NewReservationHandler(engine),
		handlers.NewRoomHandler(engine),
	)
	routes.RegisterRoutes(router, bundle)
	return &testServer{router: router, engine: engine}
}

func token(t *testing.T, subject, role string) string {
	t.Helper()
	tok, err := utils.GenerateToken(subject, role, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (s *testServer) do(t *testing.T, method, path, tok string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func createBody(unit string, status models.ReservationStatus) map[string]interface{} {
	body := map[string]interface{}{
		"customer": map[string]string{"name": "Ada", "email": "ada@example.com"},
		"checkIn":  "2024-06-01",
		"checkOut": "2024-06-05",
		"rooms":    []map[string]interface{}{{"unitNumber": unit, "adults": 2}},
	}
	if status != "" {
		body["status"] = status
	}
	return body
}

func TestCreateAndFetchReservation(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/hotels/h1/reservations", "", createBody("101", ""))
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var res models.Reservation
	decode(t, w, &res)
	if res.Status != models.StatusPending || res.TotalPrice != 400 {
		t.Fatalf("unexpected reservation %+v", res)
	}

	if w := s.do(t, http.MethodGet, "/api/reservations/"+res.ID, "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous read: expected 401, got %d", w.Code)
	}
	w = s.do(t, http.MethodGet, "/api/reservations/"+res.ID, token(t, "member-1", utils.RoleGuest), nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("guest reading a walk-in booking: expected 403, got %d", w.Code)
	}
	w = s.do(t, http.MethodGet, "/api/reservations/"+res.ID, token(t, "desk-1", utils.RoleStaff), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("staff read: expected 200, got %d", w.Code)
	}
}

func TestAnonymousCannotBookAsMember(t *testing.T) {
	s := newTestServer(t)
	body := createBody("101", "")
	body["customer"] = map[string]string{"memberId": "alice"}

	w := s.do(t, http.MethodPost, "/api/hotels/h1/reservations", "", body)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGuestsOnlyReachTheirOwnReservations(t *testing.T) {
	s := newTestServer(t)
	alice := token(t, "alice", utils.RoleGuest)
	mallory := token(t, "mallory", utils.RoleGuest)

	body := createBody("101", "")
	body["customer"] = map[string]string{"memberId": "mallory"}
	w := s.do(t, http.MethodPost, "/api/hotels/h1/reservations", alice, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var res models.Reservation
	decode(t, w, &res)
	if res.Customer.MemberID != "alice" {
		t.Fatalf("expected booking owned by the token subject, got %q", res.Customer.MemberID)
	}
	path := "/api/reservations/" + res.ID

	if w := s.do(t, http.MethodGet, path, alice, nil); w.Code != http.StatusOK {
		t.Fatalf("owner read: expected 200, got %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, path, mallory, nil); w.Code != http.StatusForbidden {
		t.Fatalf("foreign read: expected 403, got %d", w.Code)
	}

	takeover := map[string]interface{}{
		"customer": map[string]string{"memberId": "mallory"},
		"checkIn":  "2024-07-01",
		"checkOut": "2024-07-02",
	}
	if w := s.do(t, http.MethodPatch, path, mallory, takeover); w.Code != http.StatusForbidden {
		t.Fatalf("foreign edit: expected 403, got %d", w.Code)
	}
	if w := s.do(t, http.MethodPatch, path, alice, map[string]interface{}{
		"customer": map[string]string{"memberId": "mallory"},
	}); w.Code != http.StatusForbidden {
		t.Fatalf("handing the booking to another member: expected 403, got %d", w.Code)
	}

	stored, err := s.engine.GetReservation(context.Background(), res.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Customer.MemberID != "alice" || stored.CheckIn.Format(models.DateLayout) != "2024-06-01" || stored.Version != res.Version {
		t.Fatalf("reservation changed by rejected edits: %+v", stored)
	}

	w = s.do(t, http.MethodPatch, path, alice, map[string]interface{}{
		"customer": map[string]string{"name": "Alice Liddell"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("owner edit: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &res)
	if res.Customer.MemberID != "alice" || res.Customer.Name != "Alice Liddell" {
		t.Fatalf("unexpected customer after edit %+v", res.Customer)
	}
}

func TestStaffStatusEditOccupiesUnit(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/hotels/h1/reservations", "", createBody("102", ""))
	var res models.Reservation
	decode(t, w, &res)
	path := "/api/reservations/" + res.ID

	if w := s.do(t, http.MethodPatch, path, token(t, "member-1", utils.RoleGuest), map[string]string{"status": "checked_in"}); w.Code != http.StatusForbidden {
		t.Fatalf("guest status edit: expected 403, got %d", w.Code)
	}
	w = s.do(t, http.MethodPatch, path, token(t, "desk-1", utils.RoleStaff), map[string]string{"status": "checked_in"})
	if w.Code != http.StatusOK {
		t.Fatalf("staff status edit: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &res)
	if res.Status != models.StatusCheckedIn {
		t.Fatalf("expected checked_in, got %s", res.Status)
	}
	var u models.RoomUnit
	decode(t, s.do(t, http.MethodGet, "/api/hotels/h1/units/102", "", nil), &u)
	if u.State != models.RoomOccupied {
		t.Fatalf("expected unit 102 occupied, got %s", u.State)
	}
}

func TestCreateConflictMapsTo409(t *testing.T) {
	s := newTestServer(t)
	if w := s.do(t, http.MethodPost, "/api/hotels/h1/reservations", "", createBody("101", "")); w.Code != http.StatusCreated {
		t.Fatalf("first create: %d", w.Code)
	}

	w := s.do(t, http.MethodPost, "/api/hotels/h1/reservations", "", createBody("101", ""))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	var resp utils.ErrorResponse
	decode(t, w, &resp)
	if resp.Kind != string(booking.KindConflict) || resp.Retryable {
		t.Fatalf("unexpected error body %+v", resp)
	}
}

func TestCreateRejectsBadDates(t *testing.T) {
	s := newTestServer(t)
	body := createBody("101", "")
	body["checkIn"] = "June 1st"
	w := s.do(t, http.MethodPost, "/api/hotels/h1/reservations", "", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestWalkInStatusNeedsStaff(t *testing.T) {
	s := newTestServer(t)
	body := createBody("101", models.StatusCheckedIn)

	if w := s.do(t, http.MethodPost, "/api/hotels/h1/reservations", token(t, "member-1", utils.RoleGuest), body); w.Code != http.StatusForbidden {
		t.Fatalf("guest walk-in: expected 403, got %d", w.Code)
	}
	w := s.do(t, http.MethodPost, "/api/hotels/h1/reservations", token(t, "desk-1", utils.RoleStaff), body)
	if w.Code != http.StatusCreated {
		t.Fatalf("staff walk-in: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	unit := s.do(t, http.MethodGet, "/api/hotels/h1/units/101", "", nil)
	var u models.RoomUnit
	decode(t, unit, &u)
	if u.State != models.RoomOccupied {
		t.Fatalf("expected unit occupied, got %s", u.State)
	}
}

func TestAvailabilitySearch(t *testing.T) {
	s := newTestServer(t)
	if w := s.do(t, http.MethodPost, "/api/hotels/h1/reservations", "", createBody("101", "")); w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}

	w := s.do(t, http.MethodGet, "/api/hotels/h1/availability?checkIn=2024-06-03&checkOut=2024-06-07&adults=2", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Nights     int                `json:"nights"`
		Candidates []models.Candidate `json:"candidates"`
	}
	decode(t, w, &body)
	if body.Nights != 4 || len(body.Candidates) != 1 || body.Candidates[0].UnitNumber != "102" {
		t.Fatalf("unexpected availability %+v", body)
	}

	if w := s.do(t, http.MethodGet, "/api/hotels/h1/availability?checkIn=2024-06-07&checkOut=2024-06-03", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("reversed range: expected 400, got %d", w.Code)
	}
}

func TestStatusChangeRoles(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/hotels/h1/reservations", "", createBody("101", ""))
	var res models.Reservation
	decode(t, w, &res)
	path := "/api/reservations/" + res.ID + "/status"
	confirm := map[string]string{"status": "confirmed"}

	if w := s.do(t, http.MethodPost, path, "", confirm); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, path, token(t, "member-1", utils.RoleGuest), confirm); w.Code != http.StatusForbidden {
		t.Fatalf("guest: expected 403, got %d", w.Code)
	}
	staff := token(t, "desk-1", utils.RoleStaff)
	if w := s.do(t, http.MethodPost, path, staff, confirm); w.Code != http.StatusOK {
		t.Fatalf("staff: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodPost, path, staff, confirm)
	if w.Code != http.StatusConflict {
		t.Fatalf("repeat: expected 409, got %d", w.Code)
	}
	var resp utils.ErrorResponse
	decode(t, w, &resp)
	if resp.Kind != string(booking.KindInvalidTransition) {
		t.Fatalf("expected invalid_transition, got %q", resp.Kind)
	}
}

func TestDeleteNeedsAdmin(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/api/hotels/h1/reservations", "", createBody("101", ""))
	var res models.Reservation
	decode(t, w, &res)
	path := "/api/reservations/" + res.ID

	if w := s.do(t, http.MethodDelete, path, token(t, "desk-1", utils.RoleStaff), nil); w.Code != http.StatusForbidden {
		t.Fatalf("staff delete: expected 403, got %d", w.Code)
	}
	admin := token(t, "root", utils.RoleAdmin)
	if w := s.do(t, http.MethodDelete, path, admin, nil); w.Code != http.StatusOK {
		t.Fatalf("admin delete: expected 200, got %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, path, admin, nil); w.Code != http.StatusNotFound {
		t.Fatalf("after delete: expected 404, got %d", w.Code)
	}
}

func TestRoomEventEndpoint(t *testing.T) {
	s := newTestServer(t)
	staff := token(t, "hk-1", utils.RoleStaff)

	w := s.do(t, http.MethodPost, "/api/hotels/h1/units/102/events", staff, map[string]string{"event": "start_cleaning"})
	if w.Code != http.StatusConflict {
		t.Fatalf("cleaning an available unit: expected 409, got %d", w.Code)
	}
	var resp utils.ErrorResponse
	decode(t, w, &resp)
	if resp.Kind != string(booking.KindInvalidRoomState) {
		t.Fatalf("expected invalid_room_state, got %q", resp.Kind)
	}

	w = s.do(t, http.MethodPost, "/api/hotels/h1/units/102/events", staff, map[string]string{"event": "set_maintenance"})
	if w.Code != http.StatusOK {
		t.Fatalf("set_maintenance: expected 200, got %d", w.Code)
	}
	var u models.RoomUnit
	decode(t, w, &u)
	if u.State != models.RoomMaintenance {
		t.Fatalf("expected maintenance, got %s", u.State)
	}

	if w := s.do(t, http.MethodPost, "/api/hotels/h1/units/404/events", staff, map[string]string{"event": "mark_dirty"}); w.Code != http.StatusNotFound {
		t.Fatalf("unknown unit: expected 404, got %d", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
