package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"finbridge/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK        = "ok"
	statusRefreshed = "refreshed"

	errSensorMissing = "sensor not found"
	errRefresh       = "refresh failed"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List sensor readings
// @Description  Projects every SENSOR query of the current snapshot. Unavailable entities report state "unknown".
// @Tags         entities
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, sensors"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/sensors [get]
// @Security     BearerAuth
func (h *Handler) getSensors(c *gin.Context) {
	readings := h.services.Sensors(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"count":   len(readings),
		"sensors": readings,
	})
}

// @Summary      Get one sensor reading
// @Tags         entities
// @Produce      json
// @Param        id   path      string  true  "Query ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/sensors/{id} [get]
// @Security     BearerAuth
func (h *Handler) getSensor(c *gin.Context) {
	reading, err := h.services.Sensor(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrSensorNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": errSensorMissing})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load sensor", "sensor_get_failed", err, "id", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, reading)
}

// @Summary      List calendar events
// @Description  Events overlapping [from, to]. Accepts RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'; a date-only 'to' is end-of-day inclusive. Open bounds when omitted.
// @Tags         entities
// @Produce      json
// @Param        from  query   string  false  "Start of range"  example(2026-08-01)
// @Param        to    query   string  false  "End of range. Date-only treated as end of day."  example(2026-08-31)
// @Success      200   {object}  map[string]interface{}  "count, events"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/calendar [get]
// @Security     BearerAuth
func (h *Handler) getCalendar(c *gin.Context) {
	from, to, ok := h.parseRangeQuery(c)
	if !ok {
		return
	}

	events, err := h.services.Calendar(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// @Summary      Next calendar event
// @Tags         entities
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "event, found"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/calendar/next [get]
// @Security     BearerAuth
func (h *Handler) getNextEvent(c *gin.Context) {
	event, found := h.services.NextEvent(c.Request.Context())
	if !found {
		c.JSON(http.StatusOK, gin.H{"found": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"found": true, "event": event})
}

// @Summary      Refresh loop status
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/status [get]
// @Security     BearerAuth
func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Status(c.Request.Context()))
}

// @Summary      Trigger a manual refresh
// @Description  Coalesces with any refresh already in flight; both callers get the same outcome.
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/refresh [post]
// @Security     BearerAuth
func (h *Handler) refresh(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Refresh(ctx); err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errRefresh, "manual_refresh_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": statusRefreshed,
		"state":  h.services.Status(ctx),
	})
}

// parseRangeQuery reads optional from/to query params; a date-only 'to'
// becomes end-of-day inclusive. Writes the 400 itself on bad input.
func (h *Handler) parseRangeQuery(c *gin.Context) (from, to time.Time, ok bool) {
	var err error
	if qs := c.Query("from"); qs != "" {
		from, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errFromInvalid})
			return time.Time{}, time.Time{}, false
		}
	}
	if qs := c.Query("to"); qs != "" {
		to, err = parseQueryTime(qs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": errToInvalid})
			return time.Time{}, time.Time{}, false
		}
		if isDateOnly(qs) {
			to = to.Add(24*time.Hour - time.Nanosecond).UTC()
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'from' must be <= 'to'"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

// isDateOnly reports whether the query string represents a date without time component.
func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

func parseQueryTime(s string) (time.Time, error) {
	// Try multiple accepted formats, normalizing to UTC.
	for _, layout := range []string{time.RFC3339, layoutDateTime, layoutDate} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.New("unsupported time format: " + s)
}
