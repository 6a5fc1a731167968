package api

import (
	"net/http"

	reqdto "parkgate/internal/handler/dto/request"
	resdto "parkgate/internal/handler/dto/response"
	"parkgate/internal/handler/httperr"
	"parkgate/internal/handler/middleware"
	"parkgate/internal/pkg/errs"
	"parkgate/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GateHandler serves the staff barrier operations.
type GateHandler struct {
	commands commands.ReservationCommands
}

func NewGateHandler(cmds commands.ReservationCommands) *GateHandler {
	return &GateHandler{commands: cmds}
}

// Verify accepts either a reservation id in the path or a vehicle plate in
// the body when the id segment is "by-plate".
func (h *GateHandler) Verify(c *gin.Context) {
	act, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errs.New("actor missing"), "Internal server error", nil)
		return
	}

	var req reqdto.GateVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	params := commands.GateVerifyParams{VehiclePlate: req.VehiclePlate, Notes: req.Notes}
	if idStr := c.Param("id"); idStr != "by-plate" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid reservation ID format", nil)
			return
		}
		params.ReservationID = &id
	} else if req.VehiclePlate == "" {
		httperr.AbortWithError(c, http.StatusBadRequest, errs.New("vehicle plate required"), "Vehicle plate required for plate lookup", nil)
		return
	}

	res, err := h.commands.GateVerify(c.Request.Context(), act, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromReservation(res))
}

func (h *GateHandler) CheckoutVerify(c *gin.Context) {
	act, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errs.New("actor missing"), "Internal server error", nil)
		return
	}
	id, err := parseID(c)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid reservation ID format", nil)
		return
	}
	var req reqdto.GateCheckoutVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	res, err := h.commands.GateCheckoutVerify(c.Request.Context(), act, commands.GateCheckoutVerifyParams{
		ReservationID: id,
		SecretCode:    req.SecretCode,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromReservation(res))
}
