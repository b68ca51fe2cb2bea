package booking

import (
	"context"
	"strings"

	"roomkeeper/database/repository"
	"roomkeeper/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func validateCustomer(c models.Customer) error {
	if c.MemberID == "" && strings.TrimSpace(c.Name) == "" {
		return validationError("customer needs a member id or a guest name")
	}
	if c.IsWalkIn() && c.Email == "" && c.Phone == "" {
		return validationError("walk-in guest needs an email or a phone number")
	}
	return nil
}

// CreateReservation books the requested rooms. Units are chosen first, then held,
// re-checked for overlapping claims and committed while the hold is in place.
// Walk-ins created as checked_in occupy their units in the same commit.
func (e *DefaultEngine) CreateReservation(ctx context.Context, hotelID string, req models.CreateReservationRequest, actor string) (*models.Reservation, error) {
	if hotelID == "" {
		return nil, validationError("hotel id is required")
	}
	stay, err := models.ParseDateRange(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, validationError("%v", err)
	}
	if err := validateCustomer(req.Customer); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = models.StatusPending
	}
	if !status.IsInitial() {
		return nil, validationError("a reservation cannot start as %s", status)
	}

	assignments, err := e.resolveRooms(ctx, hotelID, req.Rooms, stay, "", nil)
	if err != nil {
		return nil, err
	}

	now := e.now()
	res := &models.Reservation{
		ID:          uuid.New().String(),
		HotelID:     hotelID,
		Customer:    req.Customer,
		CheckIn:     stay.CheckIn,
		CheckOut:    stay.CheckOut,
		Assignments: assignments,
		Status:      status,
		Source:      req.Source,
		History:     []models.StatusChange{{To: status, Actor: actor, At: now}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	res.TotalPrice = repriceAssignments(res.Assignments, stay)

	err = e.Guard.WithUnitHold(ctx, res.UnitIDs(), stay, func(ctx context.Context) error {
		if err := e.checkClaims(ctx, res.Assignments, stay, ""); err != nil {
			return err
		}
		var changes []repository.UnitStateChange
		if status == models.StatusCheckedIn {
			var err error
			changes, err = e.unitChanges(ctx, hotelID, res.UnitIDs(), models.RoomEventOccupy)
			if err != nil {
				return err
			}
		}
		return storeError("save reservation", e.Reservations.Commit(ctx, res, 0, changes))
	})
	if err != nil {
		return nil, err
	}

	e.log().Info("reservation created",
		zap.String("reservationId", res.ID),
		zap.String("hotelId", hotelID),
		zap.String("status", string(res.Status)),
		zap.Stringer("stay", stay),
		zap.Strings("units", res.UnitIDs()))
	e.publish(ctx, models.EngineEvent{
		Kind:          models.EventReservationCreated,
		HotelID:       hotelID,
		ReservationID: res.ID,
		Status:        res.Status,
		Actor:         actor,
	})
	return res, nil
}

// UpdateReservation edits dates, rooms, party sizes, contact details and optionally
// the status. Changes to dates or rooms are re-validated against every other live
// reservation while all old and new units are held; if they no longer fit nothing is
// written and the reservation keeps its previous assignment.
func (e *DefaultEngine) UpdateReservation(ctx context.Context, id string, req models.UpdateReservationRequest, actor string) (*models.Reservation, error) {
	res, err := e.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status.IsTerminal() {
		return nil, invalidTransition("reservation is %s and can no longer be edited", res.Status)
	}
	if req.Customer != nil {
		if err := validateCustomer(*req.Customer); err != nil {
			return nil, err
		}
	}

	target := res.Status
	var event models.ReservationEvent
	if req.Status != "" && req.Status != res.Status {
		if !req.Status.IsValid() {
			return nil, validationError("unknown status %q", req.Status)
		}
		ev, ok := models.EventFor(res.Status, req.Status)
		if !ok {
			return nil, invalidTransition("cannot move a %s reservation to %s", res.Status, req.Status)
		}
		event, target = ev, req.Status
	}

	if !req.StayChanged() && event == "" {
		return e.updateDetails(ctx, res, req)
	}
	if req.StayChanged() && target.IsTerminal() {
		return nil, validationError("dates and rooms cannot change while the reservation is being closed as %s", target)
	}

	stay := res.Stay()
	if req.CheckIn != nil || req.CheckOut != nil {
		in, out := res.CheckIn.Format(models.DateLayout), res.CheckOut.Format(models.DateLayout)
		if req.CheckIn != nil {
			in = *req.CheckIn
		}
		if req.CheckOut != nil {
			out = *req.CheckOut
		}
		if stay, err = models.ParseDateRange(in, out); err != nil {
			return nil, validationError("%v", err)
		}
	}

	var assignments []models.Assignment
	if req.Rooms != nil {
		prefer := make(map[string]bool, len(res.Assignments))
		for _, a := range res.Assignments {
			prefer[a.UnitID] = true
		}
		assignments, err = e.resolveRooms(ctx, res.HotelID, req.Rooms, stay, res.ID, prefer)
		if err != nil {
			return nil, err
		}
	} else {
		assignments = append([]models.Assignment(nil), res.Assignments...)
	}
	total := repriceAssignments(assignments, stay)

	oldIDs := res.UnitIDs()
	newIDs := make([]string, 0, len(assignments))
	for _, a := range assignments {
		newIDs = append(newIDs, a.UnitID)
	}

	var updated *models.Reservation
	err = e.Guard.WithUnitHold(ctx, append(append([]string(nil), oldIDs...), newIDs...), stay, func(ctx context.Context) error {
		cur, err := e.loadReservation(ctx, id)
		if err != nil {
			return err
		}
		if cur.Version != res.Version {
			return conflictError("reservation %s was changed by another request; reload and retry", id)
		}
		if req.StayChanged() {
			if err := e.checkClaims(ctx, assignments, stay, cur.ID); err != nil {
				return err
			}
		}
		changes, err := e.editUnitChanges(ctx, cur, target, oldIDs, newIDs)
		if err != nil {
			return err
		}

		cur.CheckIn, cur.CheckOut = stay.CheckIn, stay.CheckOut
		cur.Assignments = assignments
		cur.TotalPrice = total
		applyDetails(cur, req)
		if event != "" {
			e.applyStatus(cur, target, event, actor)
		} else {
			cur.UpdatedAt = e.now()
		}
		if err := e.Reservations.Commit(ctx, cur, res.Version, changes); err != nil {
			return storeError("save reservation", err)
		}
		updated = cur
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log().Info("reservation updated",
		zap.String("reservationId", id),
		zap.String("status", string(updated.Status)),
		zap.Stringer("stay", stay),
		zap.Strings("units", newIDs))
	kind := models.EventReservationUpdated
	if event != "" {
		kind = models.EventReservationStatus
	}
	e.publish(ctx, models.EngineEvent{
		Kind:          kind,
		HotelID:       updated.HotelID,
		ReservationID: updated.ID,
		Status:        updated.Status,
		Actor:         actor,
	})
	return updated, nil
}

// editUnitChanges works out which units must change state when an edit moves a
// reservation from cur.Status to target and from oldIDs to newIDs.
func (e *DefaultEngine) editUnitChanges(ctx context.Context, cur *models.Reservation, target models.ReservationStatus, oldIDs, newIDs []string) ([]repository.UnitStateChange, error) {
	wasIn := cur.Status == models.StatusCheckedIn
	willBeIn := target == models.StatusCheckedIn

	switch {
	case wasIn && willBeIn:
		vacate, err := e.unitChanges(ctx, cur.HotelID, difference(oldIDs, newIDs), models.RoomEventVacate)
		if err != nil {
			return nil, err
		}
		occupy, err := e.unitChanges(ctx, cur.HotelID, difference(newIDs, oldIDs), models.RoomEventOccupy)
		if err != nil {
			return nil, err
		}
		return append(vacate, occupy...), nil
	case willBeIn:
		return e.unitChanges(ctx, cur.HotelID, newIDs, models.RoomEventOccupy)
	case wasIn:
		return e.unitChanges(ctx, cur.HotelID, oldIDs, models.RoomEventVacate)
	}
	return nil, nil
}

// updateDetails edits fields that do not affect any claim, so no unit hold is taken.
func (e *DefaultEngine) updateDetails(ctx context.Context, res *models.Reservation, req models.UpdateReservationRequest) (*models.Reservation, error) {
	if req.Customer == nil && req.Source == nil {
		return nil, validationError("no changes requested")
	}
	expected := res.Version
	applyDetails(res, req)
	res.UpdatedAt = e.now()
	if err := e.Reservations.Commit(ctx, res, expected, nil); err != nil {
		return nil, storeError("save reservation details", err)
	}
	e.publish(ctx, models.EngineEvent{
		Kind:          models.EventReservationUpdated,
		HotelID:       res.HotelID,
		ReservationID: res.ID,
		Status:        res.Status,
	})
	return res, nil
}

func applyDetails(res *models.Reservation, req models.UpdateReservationRequest) {
	if req.Customer != nil {
		res.Customer = *req.Customer
	}
	if req.Source != nil {
		res.Source = *req.Source
	}
}

// difference returns the ids in a that are not in b.
func difference(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, id := range b {
		inB[id] = true
	}
	var out []string
	for _, id := range a {
		if !inB[id] {
			out = append(out, id)
		}
	}
	return out
}
