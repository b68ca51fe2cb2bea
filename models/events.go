package models

import "time"

// Kinds of EngineEvent.
const (
	EventReservationCreated = "reservation.created"
	EventReservationUpdated = "reservation.updated"
	EventReservationStatus  = "reservation.status_changed"
	EventReservationDeleted = "reservation.deleted"
	EventUnitStateChanged   = "unit.state_changed"
)

// EngineEvent is published after a change is committed, for notification and reporting consumers.
type EngineEvent struct {
	Kind          string            `json:"kind"`
	HotelID       string            `json:"hotelId"`
	ReservationID string            `json:"reservationId,omitempty"`
	Status        ReservationStatus `json:"status,omitempty"`
	UnitNumber    string            `json:"unitNumber,omitempty"`
	RoomState     RoomState         `json:"roomState,omitempty"`
	Actor         string            `json:"actor,omitempty"`
	OccurredAt    time.Time         `json:"occurredAt"`
}
