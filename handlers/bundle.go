package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all the endpoint handlers the router wires up.
type HandlerBundle struct {
	// Availability endpoints
	SearchAvailabilityHandler gin.HandlerFunc
	CalendarHandler           gin.HandlerFunc

	// Reservation endpoints
	CreateReservationHandler gin.HandlerFunc
	GetReservationHandler    gin.HandlerFunc
	ListReservationsHandler  gin.HandlerFunc
	UpdateReservationHandler gin.HandlerFunc
	ChangeStatusHandler      gin.HandlerFunc
	DeleteReservationHandler gin.HandlerFunc

	// Room catalog and housekeeping endpoints
	ListRoomTypesHandler  gin.HandlerFunc
	CreateRoomTypeHandler gin.HandlerFunc
	GetUnitHandler        gin.HandlerFunc
	ApplyRoomEventHandler gin.HandlerFunc
}

// NewHandlerBundle wires every handler to the engine.
func NewHandlerBundle(availability *AvailabilityHandler, reservations *ReservationHandler, rooms *RoomHandler) *HandlerBundle {
	return &HandlerBundle{
		SearchAvailabilityHandler: availability.SearchAvailabilityHandler,
		CalendarHandler:           availability.CalendarHandler,

		CreateReservationHandler: reservations.CreateReservationHandler,
		GetReservationHandler:    reservations.GetReservationHandler,
		ListReservationsHandler:  reservations.ListReservationsHandler,
		UpdateReservationHandler: reservations.UpdateReservationHandler,
		ChangeStatusHandler:      reservations.ChangeStatusHandler,
		DeleteReservationHandler: reservations.DeleteReservationHandler,

		ListRoomTypesHandler:  rooms.ListRoomTypesHandler,
		CreateRoomTypeHandler: rooms.CreateRoomTypeHandler,
		GetUnitHandler:        rooms.GetUnitHandler,
		ApplyRoomEventHandler: rooms.ApplyRoomEventHandler,
	}
}
