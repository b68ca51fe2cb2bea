package models

// AvailabilityQuery asks which units can host a party for a stay.
type AvailabilityQuery struct {
	HotelID              string
	RoomTypeID           string // Empty searches every room type of the hotel
	Stay                 DateRange
	Adults               int
	Children             int
	ExcludeReservationID string // Lets an edit ignore the reservation's own claim
}

// Candidate is a free unit together with the price of the stay.
type Candidate struct {
	UnitID       string    `json:"unitId"`
	UnitNumber   string    `json:"unitNumber"`
	RoomTypeID   string    `json:"roomTypeId"`
	RoomTypeName string    `json:"roomTypeName"`
	Capacity     int       `json:"capacity"`
	State        RoomState `json:"state"`
	Nights       int       `json:"nights"`
	NightlyRate  float64   `json:"nightlyRate"`
	Total        float64   `json:"total"`
}

// CalendarQuery asks for per-night free unit counts.
type CalendarQuery struct {
	HotelID    string
	RoomTypeID string
	Range      DateRange
}

// CalendarDay is the free count for the night starting on Date.
type CalendarDay struct {
	Date  string `json:"date"`
	Free  int    `json:"free"`
	Total int    `json:"total"`
}

// RoomTypeCalendar holds the nightly counts of one room type.
type RoomTypeCalendar struct {
	RoomTypeID string        `json:"roomTypeId"`
	Name       string        `json:"name"`
	Days       []CalendarDay `json:"days"`
}
