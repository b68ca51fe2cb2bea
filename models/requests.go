package models

// RoomRequest asks for one room: a specific unit by number, or any free unit of a room type.
type RoomRequest struct {
	UnitNumber string `json:"unitNumber,omitempty"`
	RoomTypeID string `json:"roomTypeId,omitempty"`
	Adults     int    `json:"adults" binding:"gte=1"`
	Children   int    `json:"children" binding:"gte=0"`
}

// CreateReservationRequest is the payload for booking a stay.
type CreateReservationRequest struct {
	Customer Customer          `json:"customer"`
	CheckIn  string            `json:"checkIn" binding:"required,isodate"`
	CheckOut string            `json:"checkOut" binding:"required,isodate"`
	Rooms    []RoomRequest     `json:"rooms" binding:"required,min=1,dive"`
	Source   string            `json:"source"`
	Status   ReservationStatus `json:"status,omitempty"` // Empty means pending
}

// UpdateReservationRequest edits an existing reservation. Nil fields are left as they are.
type UpdateReservationRequest struct {
	Customer *Customer         `json:"customer,omitempty"`
	CheckIn  *string           `json:"checkIn,omitempty" binding:"omitempty,isodate"`
	CheckOut *string           `json:"checkOut,omitempty" binding:"omitempty,isodate"`
	Rooms    []RoomRequest     `json:"rooms,omitempty" binding:"omitempty,dive"`
	Source   *string           `json:"source,omitempty"`
	Status   ReservationStatus `json:"status,omitempty"`
}

// StayChanged reports whether the edit touches dates or rooms.
func (r UpdateReservationRequest) StayChanged() bool {
	return r.CheckIn != nil || r.CheckOut != nil || r.Rooms != nil
}

// NewRoomUnit describes a unit when seeding a room type.
type NewRoomUnit struct {
	Number   string  `json:"number" binding:"required"`
	Capacity int     `json:"capacity" binding:"gte=1"`
	Rate     float64 `json:"rate" binding:"gte=0"`
}

// CreateRoomTypeRequest seeds the catalog with a room type and its units.
type CreateRoomTypeRequest struct {
	Name        string        `json:"name" binding:"required"`
	MaxAdults   int           `json:"maxAdults" binding:"gte=0"`
	MaxChildren int           `json:"maxChildren" binding:"gte=0"`
	BaseRate    float64       `json:"baseRate" binding:"gte=0"`
	Units       []NewRoomUnit `json:"units" binding:"required,min=1,dive"`
}
