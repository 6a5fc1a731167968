package api

import (
	"net/http"

	reqdto "parkgate/internal/handler/dto/request"
	resdto "parkgate/internal/handler/dto/response"
	"parkgate/internal/handler/httperr"
	"parkgate/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type FeeHandler struct {
	queries queries.ReservationQueries
}

func NewFeeHandler(qrs queries.ReservationQueries) *FeeHandler {
	return &FeeHandler{queries: qrs}
}

func (h *FeeHandler) Quote(c *gin.Context) {
	var req reqdto.FeeQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request format", nil)
		return
	}

	quote, err := h.queries.QuoteFee(c.Request.Context(), queries.QuoteParams{
		VehicleType: req.VehicleType,
		Zone:        req.Zone,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromFeeQuote(quote))
}
