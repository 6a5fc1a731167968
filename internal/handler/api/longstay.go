package api

import (
	"net/http"

	resdto "parkgate/internal/handler/dto/response"
	"parkgate/internal/handler/httperr"
	"parkgate/internal/handler/middleware"
	"parkgate/internal/pkg/errs"
	"parkgate/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type LongStayHandler struct {
	queries queries.ReservationQueries
}

func NewLongStayHandler(qrs queries.ReservationQueries) *LongStayHandler {
	return &LongStayHandler{queries: qrs}
}

func (h *LongStayHandler) List(c *gin.Context) {
	act, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errs.New("actor missing"), "Internal server error", nil)
		return
	}

	views, err := h.queries.ListLongStays(c.Request.Context(), act)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]resdto.LongStayResponse, len(views))
	for i, v := range views {
		resp[i] = resdto.FromLongStayView(v)
	}
	c.JSON(http.StatusOK, resp)
}
