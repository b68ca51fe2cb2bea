package memoryRepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"roomkeeper/database/repository"
	"roomkeeper/models"
)

func day(s string) time.Time {
	t, err := models.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func seed(t *testing.T) (*Store, models.RoomType) {
	t.Helper()
	s := NewStore()
	rt := models.RoomType{
		ID:      "rt-1",
		HotelID: "h1",
		Name:    "Standard",
		Units: []models.RoomUnit{
			{ID: "u1", Number: "1", RoomTypeID: "rt-1", Capacity: 2, State: models.RoomAvailable},
			{ID: "u2", Number: "2", RoomTypeID: "rt-1", Capacity: 2, State: models.RoomAvailable},
		},
	}
	if err := s.CreateRoomType(context.Background(), &rt); err != nil {
		t.Fatal(err)
	}
	return s, rt
}

func reservation(id, unitID, in, out string, status models.ReservationStatus) *models.Reservation {
	return &models.Reservation{
		ID:          id,
		HotelID:     "h1",
		CheckIn:     day(in),
		CheckOut:    day(out),
		Status:      status,
		Assignments: []models.Assignment{{UnitID: unitID}},
	}
}

func TestCreateRoomTypeRejectsDuplicateUnitNumber(t *testing.T) {
	s, _ := seed(t)
	dup := models.RoomType{ID: "rt-2", HotelID: "h1", Units: []models.RoomUnit{{ID: "u9", Number: "2"}}}
	if err := s.CreateRoomType(context.Background(), &dup); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	// The same number in another hotel is fine.
	other := models.RoomType{ID: "rt-3", HotelID: "h2", Units: []models.RoomUnit{{ID: "u10", Number: "2"}}}
	if err := s.CreateRoomType(context.Background(), &other); err != nil {
		t.Fatal(err)
	}
}

func TestCommitVersioning(t *testing.T) {
	s, _ := seed(t)
	ctx := context.Background()
	res := reservation("r1", "u1", "2024-06-01", "2024-06-03", models.StatusPending)

	if err := s.Commit(ctx, res, 0, nil); err != nil {
		t.Fatal(err)
	}
	if res.Version != 1 {
		t.Fatalf("expected version 1, got %d", res.Version)
	}
	if err := s.Commit(ctx, res, 0, nil); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("duplicate insert: expected conflict, got %v", err)
	}

	res.Status = models.StatusConfirmed
	if err := s.Commit(ctx, res, 1, nil); err != nil {
		t.Fatal(err)
	}
	stale := reservation("r1", "u1", "2024-06-01", "2024-06-03", models.StatusCancelled)
	if err := s.Commit(ctx, stale, 1, nil); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("stale write: expected conflict, got %v", err)
	}

	got, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusConfirmed || got.Version != 2 {
		t.Fatalf("unexpected stored reservation %+v", got)
	}
}

func TestCommitIsAtomicWithUnitChanges(t *testing.T) {
	s, _ := seed(t)
	ctx := context.Background()
	res := reservation("r1", "u1", "2024-06-01", "2024-06-03", models.StatusCheckedIn)
	changes := []repository.UnitStateChange{
		{RoomTypeID: "rt-1", UnitID: "u1", From: models.RoomAvailable, To: models.RoomOccupied},
		{RoomTypeID: "rt-1", UnitID: "u2", From: models.RoomDirty, To: models.RoomOccupied},
	}

	if err := s.Commit(ctx, res, 0, changes); !errors.Is(err, repository.ErrStateMismatch) {
		t.Fatalf("expected state mismatch, got %v", err)
	}
	if _, err := s.Get(ctx, "r1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("reservation must not be written, got %v", err)
	}
	_, u, err := s.FindUnit(ctx, "h1", "1")
	if err != nil {
		t.Fatal(err)
	}
	if u.State != models.RoomAvailable {
		t.Fatalf("unit 1 must be untouched, got %s", u.State)
	}

	if err := s.Commit(ctx, res, 0, changes[:1]); err != nil {
		t.Fatal(err)
	}
	if _, u, _ = s.FindUnit(ctx, "h1", "1"); u.State != models.RoomOccupied {
		t.Fatalf("expected occupied, got %s", u.State)
	}
}

func TestFindOverlappingHalfOpen(t *testing.T) {
	s, _ := seed(t)
	ctx := context.Background()
	for _, r := range []*models.Reservation{
		reservation("r1", "u1", "2024-06-01", "2024-06-05", models.StatusConfirmed),
		reservation("r2", "u1", "2024-06-05", "2024-06-07", models.StatusPending),
		reservation("r3", "u1", "2024-06-02", "2024-06-04", models.StatusCancelled),
		reservation("r4", "u2", "2024-06-02", "2024-06-04", models.StatusCheckedOut),
	} {
		if err := s.Commit(ctx, r, 0, nil); err != nil {
			t.Fatal(err)
		}
	}

	stay := models.DateRange{CheckIn: day("2024-06-03"), CheckOut: day("2024-06-05")}
	got, err := s.FindOverlapping(ctx, []string{"u1", "u2"}, stay, "")
	if err != nil {
		t.Fatal(err)
	}
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	if len(ids) != 2 || ids[0] != "r1" || ids[1] != "r4" {
		t.Fatalf("expected r1 and r4, got %v", ids)
	}

	got, _ = s.FindOverlapping(ctx, []string{"u1"}, stay, "r1")
	if len(got) != 0 {
		t.Fatalf("excluding r1 should leave nothing, got %d", len(got))
	}
}

func TestReturnedValuesAreCopies(t *testing.T) {
	s, _ := seed(t)
	ctx := context.Background()
	rt, err := s.GetRoomType(ctx, "h1", "rt-1")
	if err != nil {
		t.Fatal(err)
	}
	rt.Units[0].State = models.RoomMaintenance

	again, _ := s.GetRoomType(ctx, "h1", "rt-1")
	if again.Units[0].State != models.RoomAvailable {
		t.Fatal("mutating a returned room type leaked into the store")
	}
}

func TestDeleteRecordsAudit(t *testing.T) {
	s, _ := seed(t)
	ctx := context.Background()
	res := reservation("r1", "u1", "2024-06-01", "2024-06-03", models.StatusPending)
	if err := s.Commit(ctx, res, 0, nil); err != nil {
		t.Fatal(err)
	}

	entry := models.AuditEntry{ID: "a1", Action: "reservation.delete", Actor: "admin", EntityID: "r1"}
	if err := s.Delete(ctx, "r1", entry); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "r1", entry); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if log := s.AuditLog(); len(log) != 1 || log[0].ID != "a1" {
		t.Fatalf("unexpected audit log %+v", log)
	}
}
