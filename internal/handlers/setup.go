package handlers

import (
	"net/http"

	"finbridge/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary      Test a backend connection
// @Description  Validates candidate connection parameters with one health probe. Nothing is persisted; field errors come back as {"valid":false,"errors":{field:code}}.
// @Tags         system
// @Accept       json
// @Produce      json
// @Param        body  body   service.ConnectionParams  true  "Connection parameters"
// @Success      200   {object}  map[string]interface{}  "valid, errors"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/setup/test [post]
// @Security     BearerAuth
func (h *Handler) testSetup(c *gin.Context) {
	var params service.ConnectionParams
	if ok := h.bindJSONOrBadRequest(c, &params); !ok {
		return
	}

	errs := h.services.Setup.Validate(c.Request.Context(), params)
	if !errs.OK() {
		if h.log != nil {
			h.log.Infow("setup_test_rejected", "host", params.Host, "errors", errs)
		}
		c.JSON(http.StatusOK, gin.H{"valid": false, "errors": errs})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}
