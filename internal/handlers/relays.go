package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"homenode/internal/models"
	"homenode/internal/relays"

	"github.com/gin-gonic/gin"
)

const (
	errLoadConfig    = "failed to load relay configuration"
	errReplaceConfig = "failed to persist relay configuration"
	errControlRelay  = "failed to switch relay"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Request DTO for manual relay control.
type controlRequest struct {
	Label string `json:"label" binding:"required"`
	State *bool  `json:"state" binding:"required"`
}

// ControlRequest is an exported model for Swagger docs of the control payload.
type ControlRequest struct {
	// Relay label as declared in the configuration
	Label string `json:"label" example:"heater"`
	// Desired logical state
	State bool `json:"state" example:"true"`
}

// @Summary      Get relay configuration
// @Description  Declared relays with live runtime state (value, auto, last_error)
// @Tags         relays
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, relays"
// @Router       /api/relays/config [get]
func (h *Handler) getRelayConfig(c *gin.Context) {
	list := h.services.Relays.List()
	c.JSON(http.StatusOK, gin.H{
		"count":  len(list),
		"relays": list,
	})
}

// @Summary      Replace relay configuration
// @Description  Full replace: validates labels, pins and rules, persists, rebinds GPIO lines
// @Tags         relays
// @Accept       json
// @Produce      json
// @Param        body  body   []models.Relay  true  "Complete relay list"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/relays/config [post]
func (h *Handler) replaceRelayConfig(c *gin.Context) {
	var list []models.Relay
	if ok := h.bindJSONOrBadRequest(c, &list); !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.services.Relays.Replace(ctx, list); err != nil {
		if errors.Is(err, relays.ErrInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logAndJSONError(c, http.StatusInternalServerError, errReplaceConfig, "relay_config_replace_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"count":  len(list),
	})
}

// @Summary      Control a relay
// @Description  Manual switching always drops the relay out of auto mode
// @Tags         relays
// @Accept       json
// @Produce      json
// @Param        body  body   ControlRequest  true  "Control payload"
// @Success      200   {object}  map[string]string  "status, message"
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/relays/control [post]
func (h *Handler) controlRelay(c *gin.Context) {
	var req controlRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.services.Relays.Control(ctx, req.Label, *req.State); err != nil {
		switch {
		case errors.Is(err, relays.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("relay %q not found", req.Label)})
		default:
			h.logAndJSONError(c, http.StatusInternalServerError, errControlRelay, "relay_control_failed",
				err, "label", req.Label)
		}
		return
	}
	state := "off"
	if *req.State {
		state = "on"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": fmt.Sprintf("relay %q switched %s", req.Label, state),
	})
}

// @Summary      List available GPIO pins
// @Description  Board pins minus reserved pins minus pins already claimed by relays
// @Tags         gpio
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "pins"
// @Router       /api/gpio/available [get]
func (h *Handler) getAvailablePins(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"pins": h.services.Relays.AvailablePins(),
	})
}
