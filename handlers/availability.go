package handlers

import (
	"net/http"

	"roomkeeper/models"
	"roomkeeper/services/booking"

	"github.com/gin-gonic/gin"
)

// AvailabilityHandler serves read-only availability queries.
type AvailabilityHandler struct {
	Service booking.AvailabilityService
}

func NewAvailabilityHandler(svc booking.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{Service: svc}
}

type availabilityParams struct {
	RoomTypeID           string `form:"roomTypeId"`
	CheckIn              string `form:"checkIn" binding:"required,isodate"`
	CheckOut             string `form:"checkOut" binding:"required,isodate"`
	Adults               int    `form:"adults,default=1"`
	Children             int    `form:"children"`
	ExcludeReservationID string `form:"excludeReservationId"`
}

type calendarParams struct {
	RoomTypeID string `form:"roomTypeId"`
	From       string `form:"from" binding:"required,isodate"`
	To         string `form:"to" binding:"required,isodate"`
}

// SearchAvailabilityHandler lists the free units for a stay with their price.
func (h *AvailabilityHandler) SearchAvailabilityHandler(c *gin.Context) {
	var params availabilityParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}
	stay, err := models.ParseDateRange(params.CheckIn, params.CheckOut)
	if err != nil {
		respondBindError(c, err)
		return
	}

	candidates, err := h.Service.FindAvailable(c.Request.Context(), models.AvailabilityQuery{
		HotelID:              c.Param("hotelId"),
		RoomTypeID:           params.RoomTypeID,
		Stay:                 stay,
		Adults:               params.Adults,
		Children:             params.Children,
		ExcludeReservationID: params.ExcludeReservationID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"checkIn":    params.CheckIn,
		"checkOut":   params.CheckOut,
		"nights":     stay.Nights(),
		"candidates": candidates,
	})
}

// CalendarHandler returns per-night free unit counts for each room type.
func (h *AvailabilityHandler) CalendarHandler(c *gin.Context) {
	var params calendarParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}
	rng, err := models.ParseDateRange(params.From, params.To)
	if err != nil {
		respondBindError(c, err)
		return
	}

	calendar, err := h.Service.Calendar(c.Request.Context(), models.CalendarQuery{
		HotelID:    c.Param("hotelId"),
		RoomTypeID: params.RoomTypeID,
		Range:      rng,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomTypes": calendar})
}
