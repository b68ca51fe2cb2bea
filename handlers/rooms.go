package handlers

import (
	"net/http"

	"roomkeeper/models"
	"roomkeeper/services/booking"

	"github.com/gin-gonic/gin"
)

// RoomHandler serves the room catalog and housekeeping events.
type RoomHandler struct {
	Service booking.RoomService
}

func NewRoomHandler(svc booking.RoomService) *RoomHandler {
	return &RoomHandler{Service: svc}
}

type roomEventRequest struct {
	Event models.RoomEvent `json:"event" binding:"required"`
}

func (h *RoomHandler) ListRoomTypesHandler(c *gin.Context) {
	types, err := h.Service.ListRoomTypes(c.Request.Context(), c.Param("hotelId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roomTypes": types})
}

func (h *RoomHandler) CreateRoomTypeHandler(c *gin.Context) {
	var req models.CreateRoomTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	rt, err := h.Service.CreateRoomType(c.Request.Context(), c.Param("hotelId"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rt)
}

func (h *RoomHandler) GetUnitHandler(c *gin.Context) {
	unit, err := h.Service.GetUnit(c.Request.Context(), c.Param("hotelId"), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}

// ApplyRoomEventHandler moves a unit through housekeeping or maintenance.
func (h *RoomHandler) ApplyRoomEventHandler(c *gin.Context) {
	var req roomEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	unit, err := h.Service.ApplyRoomEvent(c.Request.Context(), c.Param("hotelId"), c.Param("number"), req.Event, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}
