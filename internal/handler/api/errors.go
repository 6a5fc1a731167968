package api

import (
	"errors"
	"net/http"

	resdto "parkgate/internal/handler/dto/response"
	"parkgate/internal/handler/httperr"
	"parkgate/internal/infra"
	"parkgate/internal/pkg/errs"
	"parkgate/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

// respondError translates usecase errors to HTTP. Slot conflicts carry the
// advisory alternatives in the body; everything else maps to a status and a
// stable message.
func respondError(c *gin.Context, err error) {
	var conflict *commands.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, resdto.ConflictResponse{
			Message:      "Requested interval overlaps an existing reservation",
			SlotID:       conflict.SlotID,
			Alternatives: conflict.Alternatives,
		})
		return
	}

	switch {
	case errors.Is(err, errs.ErrReservationNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Reservation not found", nil)
	case errors.Is(err, errs.ErrSlotNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Slot not found", nil)
	case errors.Is(err, errs.ErrSlotConflict):
		httperr.AbortWithError(c, http.StatusConflict, err, "Slot is not available", nil)
	case errors.Is(err, errs.ErrSlotIncompatible):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Slot does not accept this vehicle type", nil)
	case errors.Is(err, errs.ErrInvalidInterval):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid time interval", nil)
	case errors.Is(err, errs.ErrOutsideVerifyWindow):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Outside the gate verification window", nil)
	case errors.Is(err, errs.ErrIllegalTransition):
		httperr.AbortWithError(c, http.StatusConflict, err, "Operation not allowed in the current status", nil)
	case errors.Is(err, errs.ErrCodeMismatch):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Secret code does not match", nil)
	case errors.Is(err, errs.ErrCodeNotAssigned):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "No secret code assigned", nil)
	case errors.Is(err, errs.ErrCodeSpaceExhausted):
		httperr.AbortWithError(c, http.StatusServiceUnavailable, err, "Unable to issue a unique code, try again", nil)
	case errors.Is(err, errs.ErrInvalidCoordinates):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid coordinates", nil)
	case errors.Is(err, errs.ErrOutsideGeofence):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Location is outside the facility", nil)
	case errors.Is(err, errs.ErrNotOwner), errors.Is(err, errs.ErrForbidden):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Insufficient permissions", nil)
	case errors.Is(err, errs.ErrDomainValidation):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Domain validation failed", nil)
	case infra.IsKind(err, infra.KindNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Not found", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
