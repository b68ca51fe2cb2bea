package booking

import (
	"context"
	"errors"
	"time"

	"roomkeeper/database/repository"
	"roomkeeper/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// statusRetries bounds how often a transition re-reads after losing a version race.
const statusRetries = 3

// NoShowActor is recorded on reservations closed by the periodic sweep.
const NoShowActor = "system:no-show-sweep"

func (e *DefaultEngine) loadReservation(ctx context.Context, id string) (*models.Reservation, error) {
	if id == "" {
		return nil, validationError("reservation id is required")
	}
	res, err := e.Reservations.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("reservation %s not found", id)
		}
		return nil, storeError("load reservation", err)
	}
	return res, nil
}

func (e *DefaultEngine) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	return e.loadReservation(ctx, id)
}

func (e *DefaultEngine) ListReservations(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	if filter.HotelID == "" {
		return nil, validationError("hotel id is required")
	}
	for _, s := range filter.Statuses {
		if !s.IsValid() {
			return nil, validationError("unknown status %q", s)
		}
	}
	list, err := e.Reservations.List(ctx, filter)
	if err != nil {
		return nil, storeError("list reservations", err)
	}
	if list == nil {
		list = []models.Reservation{}
	}
	return list, nil
}

func (e *DefaultEngine) applyStatus(res *models.Reservation, to models.ReservationStatus, event models.ReservationEvent, actor string) {
	now := e.now()
	res.History = append(res.History, models.StatusChange{
		From:  res.Status,
		To:    to,
		Event: event,
		Actor: actor,
		At:    now,
	})
	res.Status = to
	res.UpdatedAt = now
}

func transitionError(from models.ReservationStatus, event models.ReservationEvent) error {
	if from.IsTerminal() {
		return invalidTransition("reservation is %s; %s is no longer possible", from, event)
	}
	return invalidTransition("cannot %s a %s reservation", event, from)
}

// roomEventFor is the unit side effect of a reservation event, if any.
func roomEventFor(event models.ReservationEvent) models.RoomEvent {
	switch event {
	case models.EventCheckIn:
		return models.RoomEventOccupy
	case models.EventCheckOut:
		return models.RoomEventVacate
	}
	return ""
}

// errUnitsMoved reports that an edit reassigned the reservation's units between the
// read that chose the holds and the read made under them.
var errUnitsMoved = errors.New("reservation units changed while acquiring holds")

// Transition applies event to the reservation. Check-in and check-out take the unit
// hold and commit the unit state changes with the status; a check-in fails with
// InvalidRoomState, changing nothing, unless every assigned unit is available.
// Cancel and no-show stop the claim without touching unit state.
func (e *DefaultEngine) Transition(ctx context.Context, id string, event models.ReservationEvent, actor string) (*models.Reservation, error) {
	res, err := e.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := res.Status.Next(event); !ok {
		return nil, transitionError(res.Status, event)
	}
	roomEvent := roomEventFor(event)

	var updated *models.Reservation
	apply := func(ctx context.Context, held []string) error {
		for attempt := 1; ; attempt++ {
			cur, err := e.loadReservation(ctx, id)
			if err != nil {
				return err
			}
			next, ok := cur.Status.Next(event)
			if !ok {
				return transitionError(cur.Status, event)
			}
			var changes []repository.UnitStateChange
			if roomEvent != "" {
				if !sameUnits(held, cur.UnitIDs()) {
					return errUnitsMoved
				}
				changes, err = e.unitChanges(ctx, cur.HotelID, cur.UnitIDs(), roomEvent)
				if err != nil {
					return err
				}
			}
			expected := cur.Version
			e.applyStatus(cur, next, event, actor)
			err = e.Reservations.Commit(ctx, cur, expected, changes)
			if err == nil {
				updated = cur
				return nil
			}
			if !errors.Is(err, repository.ErrVersionConflict) || attempt == statusRetries {
				return storeError("save reservation status", err)
			}
		}
	}

	if roomEvent == "" {
		err = apply(ctx, nil)
	} else {
		for attempt := 1; ; attempt++ {
			held := res.UnitIDs()
			err = e.Guard.WithUnitHold(ctx, held, res.Stay(), func(ctx context.Context) error {
				return apply(ctx, held)
			})
			if !errors.Is(err, errUnitsMoved) {
				break
			}
			if attempt == statusRetries {
				return nil, conflictError("reservation %s keeps changing rooms; reload and retry", id)
			}
			if res, err = e.loadReservation(ctx, id); err != nil {
				return nil, err
			}
		}
	}
	if err != nil {
		return nil, err
	}

	e.log().Info("reservation status changed",
		zap.String("reservationId", id),
		zap.String("event", string(event)),
		zap.String("status", string(updated.Status)),
		zap.String("actor", actor))
	e.publish(ctx, models.EngineEvent{
		Kind:          models.EventReservationStatus,
		HotelID:       updated.HotelID,
		ReservationID: updated.ID,
		Status:        updated.Status,
		Actor:         actor,
	})
	return updated, nil
}

func sameUnits(a, b []string) bool {
	x, y := sortedUnique(a), sortedUnique(b)
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// ChangeStatus moves a reservation to target through the single event that leads there.
// Asking for the current status is an InvalidTransition, not a no-op.
func (e *DefaultEngine) ChangeStatus(ctx context.Context, id string, target models.ReservationStatus, actor string) (*models.Reservation, error) {
	if !target.IsValid() {
		return nil, validationError("unknown status %q", target)
	}
	res, err := e.loadReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status == target {
		return nil, invalidTransition("reservation is already %s", target)
	}
	event, ok := models.EventFor(res.Status, target)
	if !ok {
		return nil, invalidTransition("cannot move a %s reservation to %s", res.Status, target)
	}
	return e.Transition(ctx, id, event, actor)
}

// DeleteReservation physically removes a reservation, bypassing the state machine.
// It writes an audit entry with a snapshot and does not take unit holds since it
// only ever removes a claim.
func (e *DefaultEngine) DeleteReservation(ctx context.Context, id string, actor string) error {
	res, err := e.loadReservation(ctx, id)
	if err != nil {
		return err
	}
	entry := models.AuditEntry{
		ID:       uuid.New().String(),
		Action:   "reservation.delete",
		Actor:    actor,
		HotelID:  res.HotelID,
		EntityID: res.ID,
		Snapshot: res,
		At:       e.now(),
	}
	if err := e.Reservations.Delete(ctx, id, entry); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError("reservation %s not found", id)
		}
		return storeError("delete reservation", err)
	}

	e.log().Warn("reservation deleted by administrator",
		zap.String("reservationId", id),
		zap.String("status", string(res.Status)),
		zap.String("actor", actor))
	e.publish(ctx, models.EngineEvent{
		Kind:          models.EventReservationDeleted,
		HotelID:       res.HotelID,
		ReservationID: res.ID,
		Status:        res.Status,
		Actor:         actor,
	})
	return nil
}

// SweepNoShows marks pending and confirmed reservations whose check-in day began more
// than NoShowGrace before now as no_show. Reservations that moved on in the meantime
// are skipped. It returns how many were marked.
func (e *DefaultEngine) SweepNoShows(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.UTC().Add(-e.NoShowGrace)
	due, err := e.Reservations.ListDueNoShows(ctx, cutoff)
	if err != nil {
		return 0, storeError("list due no-shows", err)
	}

	marked := 0
	var errs []error
	for _, res := range due {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := e.Transition(ctx, res.ID, models.EventNoShow, NoShowActor); err != nil {
			if IsKind(err, KindInvalidTransition) || IsKind(err, KindNotFound) {
				continue
			}
			e.log().Error("no-show sweep failed for reservation", zap.String("reservationId", res.ID), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		marked++
	}

	e.log().Info("no-show sweep finished", zap.Int("due", len(due)), zap.Int("marked", marked), zap.Time("cutoff", cutoff))
	return marked, errors.Join(errs...)
}
