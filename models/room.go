package models

import (
	"strconv"
	"time"
)

// RoomUnit is one physically bookable room, stored inline on its RoomType document.
type RoomUnit struct {
	ID             string    `bson:"id" json:"id"`                         // Globally unique (UUID)
	Number         string    `bson:"number" json:"number"`                 // Unique within a hotel only, e.g. "101"
	RoomTypeID     string    `bson:"roomTypeId" json:"roomTypeId"`         // Owning room type
	Capacity       int       `bson:"capacity" json:"capacity"`             // Max adults + children
	Rate           float64   `bson:"rate,omitempty" json:"rate,omitempty"` // Nightly rate override; zero means the type's base rate
	State          RoomState `bson:"state" json:"state"`
	StateChangedAt time.Time `bson:"stateChangedAt" json:"stateChangedAt"`
}

// RoomType groups interchangeable units under one product, e.g. "Deluxe".
type RoomType struct {
	ID          string     `bson:"id" json:"id"`
	HotelID     string     `bson:"hotelId" json:"hotelId"`
	Name        string     `bson:"name" json:"name"`
	MaxAdults   int        `bson:"maxAdults" json:"maxAdults"`     // Zero means unbounded
	MaxChildren int        `bson:"maxChildren" json:"maxChildren"` // Zero means unbounded
	BaseRate    float64    `bson:"baseRate" json:"baseRate"`
	Units       []RoomUnit `bson:"units" json:"units"`
	Version     int        `bson:"version" json:"version"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// UnitByNumber looks up a unit of this type by its number.
func (rt *RoomType) UnitByNumber(number string) (*RoomUnit, bool) {
	for i := range rt.Units {
		if rt.Units[i].Number == number {
			return &rt.Units[i], true
		}
	}
	return nil, false
}

// UnitByID looks up a unit of this type by its id.
func (rt *RoomType) UnitByID(id string) (*RoomUnit, bool) {
	for i := range rt.Units {
		if rt.Units[i].ID == id {
			return &rt.Units[i], true
		}
	}
	return nil, false
}

// NightlyRate returns the unit's override or the type's base rate.
func (rt *RoomType) NightlyRate(u RoomUnit) float64 {
	if u.Rate > 0 {
		return u.Rate
	}
	return rt.BaseRate
}

// Admits reports whether a party fits in unit u of this type.
func (rt *RoomType) Admits(u RoomUnit, adults, children int) bool {
	if adults+children > u.Capacity {
		return false
	}
	if rt.MaxAdults > 0 && adults > rt.MaxAdults {
		return false
	}
	if rt.MaxChildren > 0 && children > rt.MaxChildren {
		return false
	}
	return true
}

// CompareUnitNumbers orders numeric unit numbers numerically and everything else lexically,
// so "9" sorts before "10".
func CompareUnitNumbers(a, b string) int {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	if aErr == nil && bErr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
