package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// validate-rule accepts up to this much raw rule text.
const maxRuleBody = 16 << 10

// @Summary      System status
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/status [get]
func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitoring.Status())
}

// @Summary      Sensor snapshot
// @Description  Latest cached readings; absent hardware reports null
// @Tags         sensors
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/sensors [get]
func (h *Handler) getSensors(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Sensors.Snapshot())
}

// @Summary      Validate a rule
// @Description  Body is raw rule text. Compiles and trial-runs it without touching any relay.
// @Tags         rules
// @Accept       plain
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "success, message or error"
// @Router       /api/validate-rule [post]
func (h *Handler) validateRule(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRuleBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "failed to read body"})
		return
	}
	msg, err := h.services.Rules.Check(string(body))
	if err != nil {
		// Invalid rule text is a normal outcome for this endpoint, not a
		// request failure.
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

// @Summary      Restart the controller
// @Description  Acknowledges and then shuts the process down so the supervisor restarts it
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/restart [post]
func (h *Handler) postRestart(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "restarting"})
	if h.restart != nil {
		select {
		case h.restart <- struct{}{}:
		default:
		}
	}
	if h.log != nil {
		h.log.Infow("restart requested over http")
	}
}
