package booking

import (
	"context"
	"errors"
	"sort"

	"roomkeeper/database/repository"
	"roomkeeper/models"

	"golang.org/x/sync/errgroup"
)

// maxCalendarNights bounds a single calendar request.
const maxCalendarNights = 366

func validateStay(stay models.DateRange) error {
	if stay.CheckIn.IsZero() || stay.CheckOut.IsZero() {
		return validationError("check-in and check-out dates are required")
	}
	if !stay.CheckIn.Before(stay.CheckOut) {
		return validationError("check-in %s must be before check-out %s",
			stay.CheckIn.Format(models.DateLayout), stay.CheckOut.Format(models.DateLayout))
	}
	return nil
}

func validateParty(adults, children int) error {
	if adults < 1 {
		return validationError("at least one adult is required, got %d", adults)
	}
	if children < 0 {
		return validationError("children cannot be negative, got %d", children)
	}
	return nil
}

// FindAvailable lists the units that fit the party and have no live reservation,
// other than q.ExcludeReservationID, overlapping the stay. Operational state is
// reported but does not disqualify a unit: a unit being cleaned today can be booked
// for next week.
func (e *DefaultEngine) FindAvailable(ctx context.Context, q models.AvailabilityQuery) ([]models.Candidate, error) {
	if q.HotelID == "" {
		return nil, validationError("hotel id is required")
	}
	if err := validateStay(q.Stay); err != nil {
		return nil, err
	}
	if err := validateParty(q.Adults, q.Children); err != nil {
		return nil, err
	}

	types, err := e.roomTypesFor(ctx, q.HotelID, q.RoomTypeID)
	if err != nil {
		return nil, err
	}
	return e.candidates(ctx, types, q.Stay, q.Adults, q.Children, q.ExcludeReservationID)
}

func (e *DefaultEngine) roomTypesFor(ctx context.Context, hotelID, roomTypeID string) ([]models.RoomType, error) {
	if roomTypeID == "" {
		types, err := e.Catalog.ListRoomTypes(ctx, hotelID)
		if err != nil {
			return nil, storeError("list room types", err)
		}
		return types, nil
	}
	rt, err := e.Catalog.GetRoomType(ctx, hotelID, roomTypeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("room type %s not found in hotel %s", roomTypeID, hotelID)
		}
		return nil, storeError("load room type", err)
	}
	return []models.RoomType{*rt}, nil
}

// busyUnits maps each unit in unitIDs that is claimed during stay to the claiming reservation.
func (e *DefaultEngine) busyUnits(ctx context.Context, unitIDs []string, stay models.DateRange, excludeID string) (map[string]string, error) {
	busy := make(map[string]string)
	if len(unitIDs) == 0 {
		return busy, nil
	}
	overlapping, err := e.Reservations.FindOverlapping(ctx, unitIDs, stay, excludeID)
	if err != nil {
		return nil, storeError("query overlapping reservations", err)
	}
	for _, res := range overlapping {
		if res.ID == excludeID || !res.Status.IsLive() || !res.Stay().Overlaps(stay) {
			continue
		}
		for _, a := range res.Assignments {
			busy[a.UnitID] = res.ID
		}
	}
	return busy, nil
}

func (e *DefaultEngine) candidates(ctx context.Context, types []models.RoomType, stay models.DateRange, adults, children int, excludeID string) ([]models.Candidate, error) {
	type fit struct {
		rt   *models.RoomType
		unit models.RoomUnit
	}
	var fits []fit
	var ids []string
	for i := range types {
		rt := &types[i]
		for _, u := range rt.Units {
			if rt.Admits(u, adults, children) {
				fits = append(fits, fit{rt: rt, unit: u})
				ids = append(ids, u.ID)
			}
		}
	}

	out := make([]models.Candidate, 0, len(fits))
	if len(fits) == 0 {
		return out, nil
	}

	busy, err := e.busyUnits(ctx, ids, stay, excludeID)
	if err != nil {
		return nil, err
	}
	for _, f := range fits {
		if _, taken := busy[f.unit.ID]; taken {
			continue
		}
		rate, nights, total := quote(f.rt, f.unit, stay)
		out = append(out, models.Candidate{
			UnitID:       f.unit.ID,
			UnitNumber:   f.unit.Number,
			RoomTypeID:   f.rt.ID,
			RoomTypeName: f.rt.Name,
			Capacity:     f.unit.Capacity,
			State:        f.unit.State,
			Nights:       nights,
			NightlyRate:  rate,
			Total:        total,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RoomTypeName != out[j].RoomTypeName {
			return out[i].RoomTypeName < out[j].RoomTypeName
		}
		return models.CompareUnitNumbers(out[i].UnitNumber, out[j].UnitNumber) < 0
	})
	return out, nil
}

// Calendar reports, per room type and night, how many units are still unclaimed.
// Room types are loaded in parallel.
func (e *DefaultEngine) Calendar(ctx context.Context, q models.CalendarQuery) ([]models.RoomTypeCalendar, error) {
	if q.HotelID == "" {
		return nil, validationError("hotel id is required")
	}
	if err := validateStay(q.Range); err != nil {
		return nil, err
	}
	if q.Range.Nights() > maxCalendarNights {
		return nil, validationError("calendar range is limited to %d nights", maxCalendarNights)
	}

	types, err := e.roomTypesFor(ctx, q.HotelID, q.RoomTypeID)
	if err != nil {
		return nil, err
	}

	out := make([]models.RoomTypeCalendar, len(types))
	g, gctx := errgroup.WithContext(ctx)
	for i := range types {
		rt := types[i]
		g.Go(func() error {
			ids := make([]string, 0, len(rt.Units))
			units := make(map[string]bool, len(rt.Units))
			for _, u := range rt.Units {
				ids = append(ids, u.ID)
				units[u.ID] = true
			}
			var claims []models.Reservation
			if len(ids) > 0 {
				var err error
				claims, err = e.Reservations.FindOverlapping(gctx, ids, q.Range, "")
				if err != nil {
					return err
				}
			}

			days := make([]models.CalendarDay, 0, q.Range.Nights())
			for d := q.Range.CheckIn; d.Before(q.Range.CheckOut); d = d.AddDate(0, 0, 1) {
				booked := make(map[string]bool)
				for _, res := range claims {
					if !res.Status.IsLive() || !res.Stay().Covers(d) {
						continue
					}
					for _, a := range res.Assignments {
						if units[a.UnitID] {
							booked[a.UnitID] = true
						}
					}
				}
				days = append(days, models.CalendarDay{
					Date:  d.Format(models.DateLayout),
					Free:  len(ids) - len(booked),
					Total: len(ids),
				})
			}
			out[i] = models.RoomTypeCalendar{RoomTypeID: rt.ID, Name: rt.Name, Days: days}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, storeError("load availability calendar", err)
	}
	return out, nil
}
