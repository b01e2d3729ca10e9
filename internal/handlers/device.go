package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pump-control-backend/internal/models"
	"pump-control-backend/internal/service"
)

// ackRequest is the device's report after executing a polled command.
type ackRequest struct {
	CommandID    string `json:"command_id" binding:"required"`
	Success      *bool  `json:"success" binding:"required"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// heartbeatRequest mirrors the MCU's confirmed state report.
type heartbeatRequest struct {
	DeviceID           string   `json:"device_id" binding:"required"`
	MotorRunning       bool     `json:"motor_running"`
	ControlMode        string   `json:"control_mode" binding:"required"` // auto | manual
	TargetModeActive   bool     `json:"target_mode_active"`
	CurrentTargetLevel *float64 `json:"current_target_level,omitempty"`
	TargetDescription  string   `json:"target_description,omitempty"`
	ProtectionActive   bool     `json:"protection_active"`
	CurrentAmps        float64  `json:"current_amps"`
	PowerWatts         float64  `json:"power_watts"`
	RuntimeMinutes     int      `json:"runtime_minutes"`
	TotalRuntimeHours  float64  `json:"total_runtime_hours"`
}

// sensorReport carries both tanks' readings from the ingestion path.
type sensorReport struct {
	Ground tankReport `json:"ground"`
	Roof   tankReport `json:"roof"`
}

type tankReport struct {
	Connected    bool     `json:"connected"`
	Working      bool     `json:"working"`
	LevelPercent *float64 `json:"level_percent,omitempty"`
}

// @Summary      Poll the pending command
// @Description  Returns 204 when no command is waiting. Polling marks the command retrieved and shortens its remaining lifetime.
// @Tags         device
// @Produce      json
// @Param        device_id  path  string  true  "Device id"
// @Success      200  {object}  map[string]interface{}
// @Success      204  "no pending command"
// @Router       /device/{device_id}/command [get]
func (h *Handler) pollCommand(c *gin.Context) {
	cmd, err := h.services.Commands.PollPendingCommand(c.Request.Context(), c.Param("device_id"))
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to poll command", "device_poll_failed", err)
		return
	}
	if cmd == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, cmd)
}

// @Summary      Acknowledge a command
// @Description  Acknowledging a superseded or expired command is a no-op.
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        device_id  path  string      true  "Device id"
// @Param        body       body  ackRequest  true  "Ack payload"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /device/{device_id}/command/ack [post]
func (h *Handler) ackCommand(c *gin.Context) {
	var req ackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Commands.AcknowledgeCommand(c.Request.Context(), service.AckParams{
		DeviceID:     c.Param("device_id"),
		CommandID:    req.CommandID,
		Success:      *req.Success,
		ErrorMessage: req.ErrorMessage,
	}); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to acknowledge command", "device_ack_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "acknowledged"})
}

// @Summary      Device heartbeat
// @Description  The reported state is ground truth and overwrites any optimistic preview.
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body  heartbeatRequest  true  "Heartbeat payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /device/heartbeat [post]
func (h *Handler) heartbeat(c *gin.Context) {
	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	st, err := h.services.Telemetry.HandleHeartbeat(c.Request.Context(), service.HeartbeatParams{
		DeviceID:           req.DeviceID,
		MotorRunning:       req.MotorRunning,
		ControlMode:        models.ControlMode(req.ControlMode),
		TargetModeActive:   req.TargetModeActive,
		CurrentTargetLevel: req.CurrentTargetLevel,
		TargetDescription:  req.TargetDescription,
		ProtectionActive:   req.ProtectionActive,
		CurrentAmps:        req.CurrentAmps,
		PowerWatts:         req.PowerWatts,
		RuntimeMinutes:     req.RuntimeMinutes,
		TotalRuntimeHours:  req.TotalRuntimeHours,
	})
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to process heartbeat", "device_heartbeat_failed", err, "device_id", req.DeviceID)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Ingest a sensor snapshot
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        device_id  path  string        true  "Device id"
// @Param        body       body  sensorReport  true  "Tank readings"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /device/{device_id}/sensors [post]
func (h *Handler) ingestSensors(c *gin.Context) {
	var req sensorReport
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	snap := models.SensorSnapshot{
		DeviceID: c.Param("device_id"),
		Ground:   models.TankReading{Connected: req.Ground.Connected, Working: req.Ground.Working, LevelPercent: req.Ground.LevelPercent},
		Roof:     models.TankReading{Connected: req.Roof.Connected, Working: req.Roof.Working, LevelPercent: req.Roof.LevelPercent},
	}
	if err := h.services.Telemetry.IngestSensors(c.Request.Context(), snap); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to ingest sensors", "device_sensors_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}
