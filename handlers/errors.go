package handlers

import (
	"net/http"

	"roomkeeper/services/booking"
	"roomkeeper/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func statusFor(kind booking.ErrorKind) int {
	switch kind {
	case booking.KindValidation:
		return http.StatusBadRequest
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindInvalidTransition, booking.KindInvalidRoomState, booking.KindConflict:
		return http.StatusConflict
	case booking.KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes err as an ErrorResponse carrying the engine error kind.
func respondError(c *gin.Context, err error) {
	logger := getLogger(c)
	kind := booking.KindOf(err)
	status := statusFor(kind)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		logger.Info("request rejected", zap.String("path", c.FullPath()), zap.String("kind", string(kind)), zap.Error(err))
	}

	resp := utils.ErrorResponse{
		Message:   err.Error(),
		Kind:      string(kind),
		Retryable: kind == booking.KindUnavailable,
	}
	if kind == "" {
		resp.Message = "Internal Server Error"
	}
	c.JSON(status, resp)
}

// respondBindError answers a request body or query that failed binding.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, utils.ErrorResponse{
		Message: "Invalid request",
		Details: err.Error(),
		Kind:    string(booking.KindValidation),
	})
}
