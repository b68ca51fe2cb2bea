// Package memoryRepo keeps the catalog and reservations in process memory.
// Every write happens under one lock, so a Commit is atomic like the Mongo transaction.
package memoryRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"roomkeeper/database/repository"
	"roomkeeper/models"
)

// Store implements both repository.CatalogRepository and repository.ReservationRepository.
type Store struct {
	mu           sync.RWMutex
	roomTypes    map[string]models.RoomType
	reservations map[string]models.Reservation
	audit        []models.AuditEntry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		roomTypes:    make(map[string]models.RoomType),
		reservations: make(map[string]models.Reservation),
	}
}

func cloneRoomType(rt models.RoomType) models.RoomType {
	rt.Units = append([]models.RoomUnit(nil), rt.Units...)
	return rt
}

func (s *Store) CreateRoomType(ctx context.Context, rt *models.RoomType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.roomTypes[rt.ID]; exists {
		return fmt.Errorf("room type %s: %w", rt.ID, repository.ErrVersionConflict)
	}
	for _, existing := range s.roomTypes {
		if existing.HotelID != rt.HotelID {
			continue
		}
		for _, u := range rt.Units {
			if _, taken := existing.UnitByNumber(u.Number); taken {
				return fmt.Errorf("unit number %s already used in hotel %s: %w", u.Number, rt.HotelID, repository.ErrVersionConflict)
			}
		}
	}
	s.roomTypes[rt.ID] = cloneRoomType(*rt)
	return nil
}

func (s *Store) GetRoomType(ctx context.Context, hotelID, roomTypeID string) (*models.RoomType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rt, ok := s.roomTypes[roomTypeID]
	if !ok || rt.HotelID != hotelID {
		return nil, fmt.Errorf("room type %s: %w", roomTypeID, repository.ErrNotFound)
	}
	out := cloneRoomType(rt)
	return &out, nil
}

func (s *Store) ListRoomTypes(ctx context.Context, hotelID string) ([]models.RoomType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.RoomType
	for _, rt := range s.roomTypes {
		if rt.HotelID == hotelID {
			out = append(out, cloneRoomType(rt))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) FindUnit(ctx context.Context, hotelID, number string) (*models.RoomType, *models.RoomUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rt := range s.roomTypes {
		if rt.HotelID != hotelID {
			continue
		}
		if u, ok := rt.UnitByNumber(number); ok {
			out := cloneRoomType(rt)
			unit := *u
			return &out, &unit, nil
		}
	}
	return nil, nil, fmt.Errorf("unit %s in hotel %s: %w", number, hotelID, repository.ErrNotFound)
}

func (s *Store) SetUnitState(ctx context.Context, change repository.UnitStateChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyUnitChangesLocked([]repository.UnitStateChange{change})
}

// applyUnitChangesLocked validates every change before applying any of them.
func (s *Store) applyUnitChangesLocked(changes []repository.UnitStateChange) error {
	for _, ch := range changes {
		rt, ok := s.roomTypes[ch.RoomTypeID]
		if !ok {
			return fmt.Errorf("room type %s: %w", ch.RoomTypeID, repository.ErrNotFound)
		}
		u, ok := rt.UnitByID(ch.UnitID)
		if !ok {
			return fmt.Errorf("unit %s: %w", ch.UnitID, repository.ErrNotFound)
		}
		if u.State != ch.From {
			return fmt.Errorf("unit %s is %s, expected %s: %w", u.Number, u.State, ch.From, repository.ErrStateMismatch)
		}
	}
	for _, ch := range changes {
		rt := cloneRoomType(s.roomTypes[ch.RoomTypeID])
		u, _ := rt.UnitByID(ch.UnitID)
		u.State = ch.To
		u.StateChangedAt = ch.At
		rt.Version++
		rt.UpdatedAt = ch.At
		s.roomTypes[rt.ID] = rt
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.reservations[id]
	if !ok {
		return nil, fmt.Errorf("reservation %s: %w", id, repository.ErrNotFound)
	}
	out := res.Clone()
	return &out, nil
}

func (s *Store) List(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Reservation
	for _, res := range s.reservations {
		if filter.HotelID != "" && res.HotelID != filter.HotelID {
			continue
		}
		if len(filter.Statuses) > 0 && !hasStatus(filter.Statuses, res.Status) {
			continue
		}
		if !filter.From.IsZero() && !res.CheckOut.After(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !res.CheckIn.Before(filter.To) {
			continue
		}
		out = append(out, res.Clone())
	}
	sortReservations(out)
	return out, nil
}

func (s *Store) FindOverlapping(ctx context.Context, unitIDs []string, stay models.DateRange, excludeID string) ([]models.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overlappingLocked(unitIDs, stay, excludeID), nil
}

func (s *Store) overlappingLocked(unitIDs []string, stay models.DateRange, excludeID string) []models.Reservation {
	wanted := make(map[string]bool, len(unitIDs))
	for _, id := range unitIDs {
		wanted[id] = true
	}
	var out []models.Reservation
	for _, res := range s.reservations {
		if res.ID == excludeID || !res.Status.IsLive() || !res.Stay().Overlaps(stay) {
			continue
		}
		for _, a := range res.Assignments {
			if wanted[a.UnitID] {
				out = append(out, res.Clone())
				break
			}
		}
	}
	sortReservations(out)
	return out
}

func (s *Store) ListDueNoShows(ctx context.Context, cutoff time.Time) ([]models.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Reservation
	for _, res := range s.reservations {
		if (res.Status == models.StatusPending || res.Status == models.StatusConfirmed) && !res.CheckIn.After(cutoff) {
			out = append(out, res.Clone())
		}
	}
	sortReservations(out)
	return out, nil
}

func (s *Store) Commit(ctx context.Context, res *models.Reservation, expectedVersion int, unitChanges []repository.UnitStateChange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.reservations[res.ID]
	switch {
	case expectedVersion == 0 && exists:
		return fmt.Errorf("reservation %s already exists: %w", res.ID, repository.ErrVersionConflict)
	case expectedVersion != 0 && !exists:
		return fmt.Errorf("reservation %s: %w", res.ID, repository.ErrNotFound)
	case expectedVersion != 0 && current.Version != expectedVersion:
		return fmt.Errorf("reservation %s at version %d, expected %d: %w", res.ID, current.Version, expectedVersion, repository.ErrVersionConflict)
	}
	if err := s.applyUnitChangesLocked(unitChanges); err != nil {
		return err
	}
	res.Version = expectedVersion + 1
	s.reservations[res.ID] = res.Clone()
	return nil
}

func (s *Store) Delete(ctx context.Context, id string, audit models.AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[id]; !ok {
		return fmt.Errorf("reservation %s: %w", id, repository.ErrNotFound)
	}
	delete(s.reservations, id)
	s.audit = append(s.audit, audit)
	return nil
}

// AuditLog returns the recorded administrative actions, oldest first.
func (s *Store) AuditLog() []models.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.AuditEntry(nil), s.audit...)
}

func hasStatus(statuses []models.ReservationStatus, s models.ReservationStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}

func sortReservations(list []models.Reservation) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CheckIn.Equal(list[j].CheckIn) {
			return list[i].CheckIn.Before(list[j].CheckIn)
		}
		return list[i].ID < list[j].ID
	})
}

var (
	_ repository.CatalogRepository     = (*Store)(nil)
	_ repository.ReservationRepository = (*Store)(nil)
)
