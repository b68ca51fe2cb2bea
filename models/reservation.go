package models

import "time"

// Customer is either a member reference or a walk-in guest with contact details.
type Customer struct {
	MemberID string `bson:"memberId,omitempty" json:"memberId,omitempty"`
	Name     string `bson:"name,omitempty" json:"name,omitempty"`
	Email    string `bson:"email,omitempty" json:"email,omitempty"`
	Phone    string `bson:"phone,omitempty" json:"phone,omitempty"`
}

// IsWalkIn reports whether the customer has no member account.
func (c Customer) IsWalkIn() bool {
	return c.MemberID == ""
}

// Assignment is one unit claimed by a reservation, with its party and price snapshot.
type Assignment struct {
	UnitID      string  `bson:"unitId" json:"unitId"`
	UnitNumber  string  `bson:"unitNumber" json:"unitNumber"`
	RoomTypeID  string  `bson:"roomTypeId" json:"roomTypeId"`
	Adults      int     `bson:"adults" json:"adults"`
	Children    int     `bson:"children" json:"children"`
	NightlyRate float64 `bson:"nightlyRate" json:"nightlyRate"`
	Nights      int     `bson:"nights" json:"nights"`
	Total       float64 `bson:"total" json:"total"`
}

// StatusChange records one step of a reservation's history.
type StatusChange struct {
	From  ReservationStatus `bson:"from,omitempty" json:"from,omitempty"`
	To    ReservationStatus `bson:"to" json:"to"`
	Event ReservationEvent  `bson:"event,omitempty" json:"event,omitempty"`
	Actor string            `bson:"actor,omitempty" json:"actor,omitempty"`
	At    time.Time         `bson:"at" json:"at"`
}

// Reservation is a guest's claim on one or more units for a stay.
type Reservation struct {
	ID          string            `bson:"id" json:"id"`
	HotelID     string            `bson:"hotelId" json:"hotelId"`
	Customer    Customer          `bson:"customer" json:"customer"`
	CheckIn     time.Time         `bson:"checkIn" json:"checkIn"`
	CheckOut    time.Time         `bson:"checkOut" json:"checkOut"`
	Assignments []Assignment      `bson:"assignments" json:"assignments"`
	TotalPrice  float64           `bson:"totalPrice" json:"totalPrice"`
	Status      ReservationStatus `bson:"status" json:"status"`
	Source      string            `bson:"source,omitempty" json:"source,omitempty"` // Channel of origin, e.g. "web", "front_desk"
	History     []StatusChange    `bson:"history" json:"history"`
	Version     int               `bson:"version" json:"version"`
	CreatedAt   time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// Stay returns the reservation's date range.
func (r *Reservation) Stay() DateRange {
	return DateRange{CheckIn: r.CheckIn, CheckOut: r.CheckOut}
}

// UnitIDs lists the units this reservation claims.
func (r *Reservation) UnitIDs() []string {
	ids := make([]string, 0, len(r.Assignments))
	for _, a := range r.Assignments {
		ids = append(ids, a.UnitID)
	}
	return ids
}

// Clone returns a copy that shares no slices with r.
func (r Reservation) Clone() Reservation {
	r.Assignments = append([]Assignment(nil), r.Assignments...)
	r.History = append([]StatusChange(nil), r.History...)
	return r
}

// ReservationFilter narrows a reservation listing.
type ReservationFilter struct {
	HotelID  string
	Statuses []ReservationStatus
	// Optional window; reservations whose stay overlaps [From, To) match.
	From time.Time
	To   time.Time
}

// AuditEntry records an administrative action that bypassed the state machine.
type AuditEntry struct {
	ID       string       `bson:"id" json:"id"`
	Action   string       `bson:"action" json:"action"`
	Actor    string       `bson:"actor" json:"actor"`
	HotelID  string       `bson:"hotelId" json:"hotelId"`
	EntityID string       `bson:"entityId" json:"entityId"`
	Snapshot *Reservation `bson:"snapshot,omitempty" json:"snapshot,omitempty"`
	At       time.Time    `bson:"at" json:"at"`
}
