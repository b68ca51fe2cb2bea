package booking

import (
	"context"
	"errors"
	"strings"

	"roomkeeper/database/repository"
	"roomkeeper/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateRoomType seeds the catalog. Every new unit starts available.
func (e *DefaultEngine) CreateRoomType(ctx context.Context, hotelID string, req models.CreateRoomTypeRequest) (*models.RoomType, error) {
	if hotelID == "" {
		return nil, validationError("hotel id is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, validationError("room type name is required")
	}
	if len(req.Units) == 0 {
		return nil, validationError("a room type needs at least one unit")
	}

	existing, err := e.Catalog.ListRoomTypes(ctx, hotelID)
	if err != nil {
		return nil, storeError("list room types", err)
	}

	now := e.now()
	rt := &models.RoomType{
		ID:          uuid.New().String(),
		HotelID:     hotelID,
		Name:        req.Name,
		MaxAdults:   req.MaxAdults,
		MaxChildren: req.MaxChildren,
		BaseRate:    req.BaseRate,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	seen := make(map[string]bool, len(req.Units))
	for _, nu := range req.Units {
		if nu.Number == "" {
			return nil, validationError("unit number is required")
		}
		if nu.Capacity < 1 {
			return nil, validationError("unit %s needs a capacity of at least 1", nu.Number)
		}
		if seen[nu.Number] {
			return nil, validationError("unit %s is listed more than once", nu.Number)
		}
		if _, _, taken := findByNumber(existing, nu.Number); taken {
			return nil, conflictError("unit %s already exists in hotel %s", nu.Number, hotelID)
		}
		seen[nu.Number] = true
		rt.Units = append(rt.Units, models.RoomUnit{
			ID:             uuid.New().String(),
			Number:         nu.Number,
			RoomTypeID:     rt.ID,
			Capacity:       nu.Capacity,
			Rate:           nu.Rate,
			State:          models.RoomAvailable,
			StateChangedAt: now,
		})
	}

	if err := e.Catalog.CreateRoomType(ctx, rt); err != nil {
		return nil, storeError("create room type", err)
	}
	e.log().Info("room type created", zap.String("hotelId", hotelID), zap.String("roomTypeId", rt.ID), zap.Int("units", len(rt.Units)))
	return rt, nil
}

func (e *DefaultEngine) ListRoomTypes(ctx context.Context, hotelID string) ([]models.RoomType, error) {
	if hotelID == "" {
		return nil, validationError("hotel id is required")
	}
	types, err := e.Catalog.ListRoomTypes(ctx, hotelID)
	if err != nil {
		return nil, storeError("list room types", err)
	}
	if types == nil {
		types = []models.RoomType{}
	}
	return types, nil
}

func (e *DefaultEngine) findUnit(ctx context.Context, hotelID, number string) (*models.RoomType, *models.RoomUnit, error) {
	if hotelID == "" || number == "" {
		return nil, nil, validationError("hotel id and unit number are required")
	}
	rt, u, err := e.Catalog.FindUnit(ctx, hotelID, number)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, notFoundError("unit %s not found in hotel %s", number, hotelID)
		}
		return nil, nil, storeError("load unit", err)
	}
	return rt, u, nil
}

func (e *DefaultEngine) GetUnit(ctx context.Context, hotelID, number string) (*models.RoomUnit, error) {
	_, u, err := e.findUnit(ctx, hotelID, number)
	return u, err
}

// ApplyRoomEvent runs a housekeeping or maintenance event against one unit under its
// hold. occupy and vacate belong to check-in and check-out and are refused here.
func (e *DefaultEngine) ApplyRoomEvent(ctx context.Context, hotelID, number string, event models.RoomEvent, actor string) (*models.RoomUnit, error) {
	if !event.IsValid() {
		return nil, validationError("unknown room event %q", event)
	}
	if !event.IsManual() {
		return nil, invalidRoomState("%s happens only through reservation check-in and check-out", event)
	}
	_, unit, err := e.findUnit(ctx, hotelID, number)
	if err != nil {
		return nil, err
	}

	var updated models.RoomUnit
	err = e.Guard.WithUnitHold(ctx, []string{unit.ID}, models.DateRange{}, func(ctx context.Context) error {
		rt, cur, err := e.findUnit(ctx, hotelID, number)
		if err != nil {
			return err
		}
		next, ok := cur.State.Next(event)
		if !ok {
			return invalidRoomState("unit %s is %s; %s is not allowed", cur.Number, cur.State, event)
		}
		now := e.now()
		change := repository.UnitStateChange{
			RoomTypeID: rt.ID,
			UnitID:     cur.ID,
			From:       cur.State,
			To:         next,
			At:         now,
		}
		if err := e.Catalog.SetUnitState(ctx, change); err != nil {
			return storeError("update unit state", err)
		}
		updated = *cur
		updated.State = next
		updated.StateChangedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log().Info("unit state changed",
		zap.String("hotelId", hotelID),
		zap.String("unit", number),
		zap.String("event", string(event)),
		zap.String("state", string(updated.State)),
		zap.String("actor", actor))
	e.publish(ctx, models.EngineEvent{
		Kind:       models.EventUnitStateChanged,
		HotelID:    hotelID,
		UnitNumber: number,
		RoomState:  updated.State,
		Actor:      actor,
	})
	return &updated, nil
}
