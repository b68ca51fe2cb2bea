package handlers

import (
	"net/http"
	"strings"

	"roomkeeper/models"
	"roomkeeper/services/booking"
	"roomkeeper/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReservationHandler exposes the reservation lifecycle.
type ReservationHandler struct {
	Service booking.ReservationService
}

func NewReservationHandler(svc booking.ReservationService) *ReservationHandler {
	return &ReservationHandler{Service: svc}
}

type statusChangeRequest struct {
	Status models.ReservationStatus `json:"status" binding:"required"`
}

type listParams struct {
	Status string `form:"status"`
	From   string `form:"from" binding:"omitempty,isodate"`
	To     string `form:"to" binding:"omitempty,isodate"`
}

// CreateReservationHandler books rooms for a guest. Only staff may create a
// reservation directly as confirmed or checked_in.
func (h *ReservationHandler) CreateReservationHandler(c *gin.Context) {
	var req models.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Status != "" && req.Status != models.StatusPending && !isStaff(c) {
		c.JSON(http.StatusForbidden, utils.ErrorResponse{
			Message: "Only staff can create a reservation as " + string(req.Status),
		})
		return
	}
	if !isStaff(c) {
		// Members book for themselves; anonymous callers book as walk-ins.
		if subject := c.GetString("actorID"); subject != "" {
			req.Customer.MemberID = subject
		} else if req.Customer.MemberID != "" {
			c.JSON(http.StatusUnauthorized, utils.ErrorResponse{Message: "Sign in to book as a member"})
			return
		}
	}

	res, err := h.Service.CreateReservation(c.Request.Context(), c.Param("hotelId"), req, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// authorizeOwner lets staff through and restricts guests to their own reservations.
// It writes the error response and returns false when the caller may not proceed.
func (h *ReservationHandler) authorizeOwner(c *gin.Context, id string) (*models.Reservation, bool) {
	res, err := h.Service.GetReservation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if !isStaff(c) && (res.Customer.MemberID == "" || res.Customer.MemberID != c.GetString("actorID")) {
		getLogger(c).Warn("reservation access denied", zap.String("reservationId", id), zap.String("actor", actorFrom(c)))
		c.JSON(http.StatusForbidden, utils.ErrorResponse{Message: "You can only access your own reservations"})
		return nil, false
	}
	return res, true
}

func (h *ReservationHandler) GetReservationHandler(c *gin.Context) {
	res, ok := h.authorizeOwner(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListReservationsHandler lists a hotel's reservations, optionally filtered by a
// comma separated status list and a date window the stays must overlap.
func (h *ReservationHandler) ListReservationsHandler(c *gin.Context) {
	var params listParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	filter := models.ReservationFilter{HotelID: c.Param("hotelId")}
	if params.Status != "" {
		for _, s := range strings.Split(params.Status, ",") {
			filter.Statuses = append(filter.Statuses, models.ReservationStatus(strings.TrimSpace(s)))
		}
	}
	if params.From != "" {
		filter.From, _ = models.ParseDay(params.From)
	}
	if params.To != "" {
		filter.To, _ = models.ParseDay(params.To)
	}

	list, err := h.Service.ListReservations(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": list, "count": len(list)})
}

// UpdateReservationHandler applies a partial edit. Status changes through an edit
// follow the same staff rule as the status endpoint, and guests may neither edit
// someone else's reservation nor hand theirs to another member.
func (h *ReservationHandler) UpdateReservationHandler(c *gin.Context) {
	var req models.UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.Status != "" && !isStaff(c) {
		c.JSON(http.StatusForbidden, utils.ErrorResponse{Message: "Only staff can change reservation status"})
		return
	}
	current, ok := h.authorizeOwner(c, c.Param("id"))
	if !ok {
		return
	}
	if !isStaff(c) && req.Customer != nil {
		if req.Customer.MemberID == "" {
			req.Customer.MemberID = current.Customer.MemberID
		} else if req.Customer.MemberID != current.Customer.MemberID {
			c.JSON(http.StatusForbidden, utils.ErrorResponse{Message: "Only staff can move a reservation to another member"})
			return
		}
	}

	res, err := h.Service.UpdateReservation(c.Request.Context(), c.Param("id"), req, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ReservationHandler) ChangeStatusHandler(c *gin.Context) {
	var req statusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.Service.ChangeStatus(c.Request.Context(), c.Param("id"), req.Status, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// DeleteReservationHandler removes a reservation outright. Administrators only.
func (h *ReservationHandler) DeleteReservationHandler(c *gin.Context) {
	id := c.Param("id")
	actor := actorFrom(c)
	if err := h.Service.DeleteReservation(c.Request.Context(), id, actor); err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Info("reservation deleted", zap.String("reservationId", id), zap.String("actor", actor))
	c.JSON(http.StatusOK, gin.H{"message": "Reservation deleted", "id": id})
}
