package handlers

import (
	"net/http"
	"strings"

	"finbridge/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary      List poll history
// @Description  Filter the poll audit trail by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). If 'to' is date-only, it is treated as end-of-day inclusive.
// @Tags         system
// @Produce      json
// @Param        from     query   string  false  "Start of range"  example(2026-08-01)
// @Param        to       query   string  false  "End of range. Date-only treated as end of day."  example(2026-08-31)
// @Param        outcome  query   string  false  "Poll outcome"  Enums(SUCCESS,FAILURE)
// @Success      200      {object}  map[string]interface{}  "count, records"
// @Failure      400      {object}  map[string]string
// @Failure      401      {object}  map[string]string
// @Router       /api/v1/history [get]
// @Security     BearerAuth
func (h *Handler) getHistory(c *gin.Context) {
	from, to, ok := h.parseRangeQuery(c)
	if !ok {
		return
	}
	outcome := strings.ToUpper(strings.TrimSpace(c.Query("outcome")))

	records, err := h.services.History.List(c.Request.Context(), service.HistoryFilter{
		From:    from,
		To:      to,
		Outcome: outcome,
	})
	if err != nil {
		if h.log != nil {
			h.log.Errorw("history_list_failed", "err", err, "from", from, "to", to, "outcome", outcome)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(records),
		"records": records,
	})
}
