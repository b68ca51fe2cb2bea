package models

import "fmt"

// ReservationStatus is where a reservation sits in its lifecycle.
type ReservationStatus string

const (
	StatusPending    ReservationStatus = "pending"
	StatusConfirmed  ReservationStatus = "confirmed"
	StatusCheckedIn  ReservationStatus = "checked_in"
	StatusCheckedOut ReservationStatus = "checked_out"
	StatusCancelled  ReservationStatus = "cancelled"
	StatusNoShow     ReservationStatus = "no_show"
)

// ReservationEvent moves a reservation between statuses.
type ReservationEvent string

const (
	EventConfirm  ReservationEvent = "confirm"
	EventCheckIn  ReservationEvent = "check_in"
	EventCheckOut ReservationEvent = "check_out"
	EventCancel   ReservationEvent = "cancel"
	EventNoShow   ReservationEvent = "no_show"
)

// reservationTransitions defines the reservation state machine.
// A checked_in reservation can only check out.
var reservationTransitions = map[ReservationStatus]map[ReservationEvent]ReservationStatus{
	StatusPending: {
		EventConfirm: StatusConfirmed,
		EventCheckIn: StatusCheckedIn,
		EventCancel:  StatusCancelled,
		EventNoShow:  StatusNoShow,
	},
	StatusConfirmed: {
		EventCheckIn: StatusCheckedIn,
		EventCancel:  StatusCancelled,
		EventNoShow:  StatusNoShow,
	},
	StatusCheckedIn: {
		EventCheckOut: StatusCheckedOut,
	},
	StatusCheckedOut: {},
	StatusCancelled:  {},
	StatusNoShow:     {},
}

// IsValid reports whether s is a recognized status.
func (s ReservationStatus) IsValid() bool {
	_, ok := reservationTransitions[s]
	return ok
}

// Next returns the status reached by applying e, and false when e is not legal from s.
func (s ReservationStatus) Next(e ReservationEvent) (ReservationStatus, bool) {
	next, ok := reservationTransitions[s][e]
	return next, ok
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s ReservationStatus) IsTerminal() bool {
	return len(reservationTransitions[s]) == 0
}

// IsLive reports whether a reservation in this status still claims its units.
func (s ReservationStatus) IsLive() bool {
	return s.IsValid() && s != StatusCancelled && s != StatusNoShow
}

// IsInitial reports whether a reservation may be created directly in this status.
// Only staff-entered walk-ins skip pending.
func (s ReservationStatus) IsInitial() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCheckedIn
}

func (s ReservationStatus) String() string {
	return string(s)
}

// EventFor finds the event that moves a reservation from one status to another.
func EventFor(from, to ReservationStatus) (ReservationEvent, bool) {
	for e, next := range reservationTransitions[from] {
		if next == to {
			return e, true
		}
	}
	return "", false
}

// ParseReservationStatus converts a string to a ReservationStatus, returning an error if invalid.
func ParseReservationStatus(s string) (ReservationStatus, error) {
	status := ReservationStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid reservation status: %q", s)
	}
	return status, nil
}

// ParseReservationEvent converts a string to a ReservationEvent, returning an error if invalid.
func ParseReservationEvent(s string) (ReservationEvent, error) {
	switch e := ReservationEvent(s); e {
	case EventConfirm, EventCheckIn, EventCheckOut, EventCancel, EventNoShow:
		return e, nil
	}
	return "", fmt.Errorf("invalid reservation event: %q", s)
}
