package booking

import (
	"context"

	"roomkeeper/database/repository"
	"roomkeeper/models"
)

type unitRef struct {
	rt   *models.RoomType
	unit models.RoomUnit
}

// unitIndex loads the hotel's catalog keyed by unit id.
func (e *DefaultEngine) unitIndex(ctx context.Context, hotelID string) ([]models.RoomType, map[string]unitRef, error) {
	types, err := e.Catalog.ListRoomTypes(ctx, hotelID)
	if err != nil {
		return nil, nil, storeError("list room types", err)
	}
	index := make(map[string]unitRef)
	for i := range types {
		rt := &types[i]
		for _, u := range rt.Units {
			index[u.ID] = unitRef{rt: rt, unit: u}
		}
	}
	return types, index, nil
}

func newAssignment(rt *models.RoomType, u models.RoomUnit, adults, children int, stay models.DateRange) models.Assignment {
	rate, nights, total := quote(rt, u, stay)
	return models.Assignment{
		UnitID:      u.ID,
		UnitNumber:  u.Number,
		RoomTypeID:  rt.ID,
		Adults:      adults,
		Children:    children,
		NightlyRate: rate,
		Nights:      nights,
		Total:       total,
	}
}

// resolveRooms binds each room request to a concrete unit. Requests naming a unit are
// bound first; requests naming only a room type then take the first free unit of that
// type, preferring units in prefer. Availability of named units is not checked here;
// that happens under the unit hold.
func (e *DefaultEngine) resolveRooms(ctx context.Context, hotelID string, rooms []models.RoomRequest, stay models.DateRange, excludeID string, prefer map[string]bool) ([]models.Assignment, error) {
	if len(rooms) == 0 {
		return nil, validationError("at least one room is required")
	}
	for i, room := range rooms {
		if room.UnitNumber == "" && room.RoomTypeID == "" {
			return nil, validationError("room %d needs a unit number or a room type", i+1)
		}
		if err := validateParty(room.Adults, room.Children); err != nil {
			return nil, err
		}
	}

	types, _, err := e.unitIndex(ctx, hotelID)
	if err != nil {
		return nil, err
	}

	out := make([]models.Assignment, len(rooms))
	taken := make(map[string]bool)

	for i, room := range rooms {
		if room.UnitNumber == "" {
			continue
		}
		rt, u, ok := findByNumber(types, room.UnitNumber)
		if !ok {
			return nil, notFoundError("unit %s not found in hotel %s", room.UnitNumber, hotelID)
		}
		if room.RoomTypeID != "" && room.RoomTypeID != rt.ID {
			return nil, validationError("unit %s is not a %s room", room.UnitNumber, room.RoomTypeID)
		}
		if taken[u.ID] {
			return nil, validationError("unit %s is requested more than once", room.UnitNumber)
		}
		if !rt.Admits(u, room.Adults, room.Children) {
			return nil, validationError("unit %s cannot host %d adults and %d children", u.Number, room.Adults, room.Children)
		}
		taken[u.ID] = true
		out[i] = newAssignment(rt, u, room.Adults, room.Children, stay)
	}

	for i, room := range rooms {
		if room.UnitNumber != "" {
			continue
		}
		rt, ok := findType(types, room.RoomTypeID)
		if !ok {
			return nil, notFoundError("room type %s not found in hotel %s", room.RoomTypeID, hotelID)
		}
		cands, err := e.candidates(ctx, []models.RoomType{*rt}, stay, room.Adults, room.Children, excludeID)
		if err != nil {
			return nil, err
		}
		pick := -1
		for j, c := range cands {
			if taken[c.UnitID] {
				continue
			}
			if prefer[c.UnitID] {
				pick = j
				break
			}
			if pick < 0 {
				pick = j
			}
		}
		if pick < 0 {
			return nil, conflictError("no %s room is free for %s", rt.Name, stay)
		}
		u, _ := rt.UnitByID(cands[pick].UnitID)
		taken[u.ID] = true
		out[i] = newAssignment(rt, *u, room.Adults, room.Children, stay)
	}
	return out, nil
}

func findByNumber(types []models.RoomType, number string) (*models.RoomType, models.RoomUnit, bool) {
	for i := range types {
		if u, ok := types[i].UnitByNumber(number); ok {
			return &types[i], *u, true
		}
	}
	return nil, models.RoomUnit{}, false
}

func findType(types []models.RoomType, id string) (*models.RoomType, bool) {
	for i := range types {
		if types[i].ID == id {
			return &types[i], true
		}
	}
	return nil, false
}

// checkClaims fails with a Conflict if any assigned unit is claimed by another live
// reservation during stay. Callers hold every assigned unit.
func (e *DefaultEngine) checkClaims(ctx context.Context, assignments []models.Assignment, stay models.DateRange, excludeID string) error {
	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.UnitID)
	}
	busy, err := e.busyUnits(ctx, ids, stay, excludeID)
	if err != nil {
		return err
	}
	for _, a := range assignments {
		if _, ok := busy[a.UnitID]; ok {
			return conflictError("unit %s is already booked during %s", a.UnitNumber, stay)
		}
	}
	return nil
}

// unitChanges builds the state changes that event causes on each unit, reading
// current states from the catalog. Any unit the event is not legal for fails the lot.
func (e *DefaultEngine) unitChanges(ctx context.Context, hotelID string, unitIDs []string, event models.RoomEvent) ([]repository.UnitStateChange, error) {
	if len(unitIDs) == 0 {
		return nil, nil
	}
	_, index, err := e.unitIndex(ctx, hotelID)
	if err != nil {
		return nil, err
	}
	now := e.now()
	changes := make([]repository.UnitStateChange, 0, len(unitIDs))
	for _, id := range unitIDs {
		ref, ok := index[id]
		if !ok {
			return nil, notFoundError("unit %s no longer exists", id)
		}
		next, ok := ref.unit.State.Next(event)
		if !ok {
			if event == models.RoomEventOccupy {
				return nil, invalidRoomState("unit %s is %s; check-in needs it available", ref.unit.Number, ref.unit.State)
			}
			return nil, invalidRoomState("unit %s is %s and cannot %s", ref.unit.Number, ref.unit.State, event)
		}
		changes = append(changes, repository.UnitStateChange{
			RoomTypeID: ref.rt.ID,
			UnitID:     id,
			From:       ref.unit.State,
			To:         next,
			At:         now,
		})
	}
	return changes, nil
}
