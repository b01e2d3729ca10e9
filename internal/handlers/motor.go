package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pump-control-backend/internal/models"
	"pump-control-backend/internal/service"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK      = "ok"
	statusIssued  = "issued"
	statusSet     = "override_set"
	statusChecked = "checked"

	errGetState        = "failed to load motor state"
	errIssueCommand    = "failed to issue command"
	errForceCheck      = "sensor check failed"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// commandRequest is the operator command payload. device_id defaults to the
// configured primary device, source to "api".
type commandRequest struct {
	DeviceID    string   `json:"device_id,omitempty"`
	Action      string   `json:"action" binding:"required"` // start | stop | target | auto | manual | reset_protection
	TargetLevel *float64 `json:"target_level,omitempty"`    // required when action=target
	Reason      string   `json:"reason,omitempty"`
	Source      string   `json:"source,omitempty"` // mobile | api
}

type overrideRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
	Enabled  *bool  `json:"enabled" binding:"required"`
	Reason   string `json:"reason,omitempty"`
}

type sensorCheckRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
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

// @Summary      Get motor state
// @Tags         motor
// @Produce      json
// @Param        device_id  query  string  false  "Device id (defaults to primary)"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/motor/state [get]
// @Security     BearerAuth
func (h *Handler) getMotorState(c *gin.Context) {
	st, err := h.services.Monitoring.GetMotorState(c.Request.Context(), c.Query("device_id"))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "motor_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Get all motor states
// @Tags         motor
// @Produce      json
// @Success      200  {array}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/motor/states [get]
// @Security     BearerAuth
func (h *Handler) getAllMotorStates(c *gin.Context) {
	states, err := h.services.Monitoring.GetAllMotorStates(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "motor_get_states_failed", err)
		return
	}
	c.JSON(http.StatusOK, states)
}

// @Summary      Issue motor command
// @Description  target requires a positive target_level; start/target require the device online and protection inactive
// @Tags         motor
// @Accept       json
// @Produce      json
// @Param        body  body   commandRequest  true  "Command payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/motor/command [post]
// @Security     BearerAuth
func (h *Handler) issueCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	st, err := h.services.Commands.IssueCommand(c.Request.Context(), service.CommandParams{
		DeviceID:    req.DeviceID,
		Action:      models.CommandAction(req.Action),
		TargetLevel: req.TargetLevel,
		Reason:      req.Reason,
		Source:      models.CommandSource(req.Source),
	})
	if err != nil {
		h.respondCommandError(c, err, req.Action)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusIssued, "state": st})
}

// respondCommandError maps the command taxonomy onto HTTP statuses.
func (h *Handler) respondCommandError(c *gin.Context, err error, action string) {
	if h.log != nil {
		h.log.Infow("motor_command_rejected", "err", err, "action", action)
	}
	switch {
	case service.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case service.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case service.IsUnavailable(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errIssueCommand, "motor_command_failed", err, "action", action)
	}
}

// @Summary      Set interlock override
// @Tags         motor
// @Accept       json
// @Produce      json
// @Param        body  body   overrideRequest  true  "Override payload"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/motor/override [post]
// @Security     BearerAuth
func (h *Handler) setOverride(c *gin.Context) {
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Overrides.SetOverride(c.Request.Context(), req.DeviceID, *req.Enabled, req.Reason); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to set override", "override_set_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSet})
}

// @Summary      Force a sensor-safety check for one device
// @Tags         motor
// @Accept       json
// @Produce      json
// @Param        body  body   sensorCheckRequest  true  "Device id"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/motor/sensor-check [post]
// @Security     BearerAuth
func (h *Handler) forceSensorCheck(c *gin.Context) {
	var req sensorCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Interlock.ForceCheck(c.Request.Context(), req.DeviceID); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errForceCheck, "force_sensor_check_failed", err, "device_id", req.DeviceID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusChecked, "checked_at": time.Now().UTC().Format(time.RFC3339)})
}

// @Summary      Get sensor pause status
// @Tags         motor
// @Produce      json
// @Param        device_id  query  string  false  "Device id (defaults to primary)"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/motor/pause-status [get]
// @Security     BearerAuth
func (h *Handler) getPauseStatus(c *gin.Context) {
	rec := h.services.Monitoring.GetSensorPauseStatus(c.Query("device_id"))
	c.JSON(http.StatusOK, gin.H{"paused": rec != nil, "pause": rec})
}
