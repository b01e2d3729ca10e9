package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pump-control-backend/internal/logger"
	"pump-control-backend/internal/models"
	"pump-control-backend/internal/repository"
)

// Outbound command lifetimes. A fresh command waits up to CommandTTL to be
// picked up; once retrieved, the remaining window shrinks to RetrievedTTL so
// an unacknowledged-but-delivered command cannot linger.
const (
	CommandTTL   = 120 * time.Second
	RetrievedTTL = 60 * time.Second
)

// CommandParams describes one operator/automation command.
type CommandParams struct {
	DeviceID    string
	Action      models.CommandAction
	TargetLevel *float64
	Reason      string
	Source      models.CommandSource
}

// AckParams is the device's report of command execution.
type AckParams struct {
	DeviceID     string
	CommandID    string
	Success      bool
	ErrorMessage string
}

type CommandService struct {
	repos   *repository.Repository
	log     *logger.Logger
	notify  Notifier
	locks   *deviceLocks
	primary string
}

func NewCommandService(repos *repository.Repository, log *logger.Logger, notify Notifier, locks *deviceLocks, primaryDevice string) *CommandService {
	return &CommandService{repos: repos, log: log, notify: notify, locks: locks, primary: primaryDevice}
}

// stateDelta is the expected outcome of a command, used both as the
// optimistic preview and as the pending shadow a heartbeat reconciles against.
type stateDelta struct {
	motorRunning  *bool
	controlMode   *models.ControlMode
	targetActive  *bool
	targetLevel   *float64
	protectionOff bool
}

func expectedDelta(action models.CommandAction, targetLevel *float64) stateDelta {
	on, off := true, false
	switch action {
	case models.ActionStart:
		return stateDelta{motorRunning: &on, targetActive: &off}
	case models.ActionStop:
		return stateDelta{motorRunning: &off, targetActive: &off}
	case models.ActionTarget:
		return stateDelta{motorRunning: &on, targetActive: &on, targetLevel: targetLevel}
	case models.ActionSetAuto:
		m := models.ControlModeAuto
		return stateDelta{controlMode: &m}
	case models.ActionSetManual:
		m := models.ControlModeManual
		return stateDelta{controlMode: &m}
	case models.ActionResetProtection:
		return stateDelta{protectionOff: true}
	}
	return stateDelta{}
}

func applyDelta(st *models.MotorState, d stateDelta) {
	if d.motorRunning != nil {
		st.MotorRunning = *d.motorRunning
	}
	if d.controlMode != nil {
		st.ControlMode = *d.controlMode
	}
	if d.targetActive != nil {
		st.TargetModeActive = *d.targetActive
		if !*d.targetActive {
			st.CurrentTargetLevel = nil
			st.TargetDescription = ""
		}
	}
	if d.targetLevel != nil {
		lvl := *d.targetLevel
		st.CurrentTargetLevel = &lvl
		st.TargetDescription = fmt.Sprintf("fill to %g%%", lvl)
	}
	if d.protectionOff {
		st.ProtectionActive = false
	}
}

func stampPending(st *models.MotorState, d stateDelta, commandID string, now time.Time) {
	st.PendingMotorRunning = d.motorRunning
	st.PendingControlMode = d.controlMode
	st.PendingTargetActive = d.targetActive
	st.PendingTargetLevel = d.targetLevel
	st.PendingProtectionActive = nil
	if d.protectionOff {
		off := false
		st.PendingProtectionActive = &off
	}
	st.PendingCommandID = commandID
	st.PendingCommandAt = &now
}

func (s *CommandService) validate(st models.MotorState, p CommandParams) error {
	switch p.Action {
	case models.ActionStart, models.ActionTarget:
		if st.ProtectionActive {
			return ErrProtectionActive
		}
		if p.Action == models.ActionTarget && (p.TargetLevel == nil || *p.TargetLevel <= 0) {
			return ErrTargetLevelRequired
		}
		if !st.MCUOnline {
			return ErrDeviceOffline
		}
	case models.ActionStop, models.ActionSetAuto, models.ActionSetManual, models.ActionResetProtection:
		// always allowed
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, p.Action)
	}
	return nil
}

// IssueCommand validates the command against the device's current state,
// replaces the device's outbound slot, applies the optimistic preview to the
// confirmed fields and stamps the pending shadow. The state-store write and
// the outbound slot are the only must-succeed steps; audit and notification
// failures are logged and swallowed.
func (s *CommandService) IssueCommand(ctx context.Context, p CommandParams) (models.MotorState, error) {
	if p.DeviceID == "" {
		p.DeviceID = s.primary
	}
	if p.Source == "" {
		p.Source = models.SourceAPI
	}

	unlock := s.locks.Lock(p.DeviceID)
	defer unlock()

	now := time.Now().UTC()
	st, err := loadOrInit(ctx, s.repos.Motor, p.DeviceID, now)
	if err != nil {
		return models.MotorState{}, err
	}

	if err := s.validate(st, p); err != nil {
		return models.MotorState{}, err
	}

	cmd := models.OutboundCommand{
		CommandID:   uuid.NewString(),
		DeviceID:    p.DeviceID,
		Action:      p.Action,
		TargetLevel: p.TargetLevel,
		Reason:      p.Reason,
		Source:      p.Source,
		IssuedAt:    now,
	}
	// Last writer wins: any live command for this device is superseded.
	s.repos.Commands.Put(p.DeviceID, cmd, CommandTTL)

	delta := expectedDelta(p.Action, p.TargetLevel)
	applyDelta(&st, delta)
	stampPending(&st, delta, cmd.CommandID, now)
	st.LastCommandSource = p.Source
	st.LastCommandReason = p.Reason
	st.UpdatedAt = now

	if err := s.repos.Motor.Save(ctx, st); err != nil {
		// The slot would deliver a command whose preview never landed;
		// drop it so the device does not act on a half-issued command.
		s.repos.Commands.Delete(p.DeviceID)
		return models.MotorState{}, err
	}

	s.audit(ctx, models.DeviceEvent{
		DeviceID: p.DeviceID,
		Type:     models.EventCommandIssued,
		Severity: models.SeverityInfo,
		Message:  fmt.Sprintf("command %s issued by %s", p.Action, p.Source),
		Metadata: map[string]any{
			"command_id":   cmd.CommandID,
			"action":       string(p.Action),
			"target_level": p.TargetLevel,
			"reason":       p.Reason,
		},
	})
	s.notify.Publish(Notification{Kind: NotifyRefresh, DeviceID: p.DeviceID, At: now})

	return st, nil
}

// PollPendingCommand returns the device's live command, if any. The first
// retrieval marks the command retrieved and shortens its remaining lifetime
// to RetrievedTTL; later polls re-deliver without extending it, so an
// unacknowledged command expires on schedule no matter how often the device
// polls. The slot read-modify-write runs under the device lock so a racing
// IssueCommand cannot be overwritten by the stale re-Put.
func (s *CommandService) PollPendingCommand(ctx context.Context, deviceID string) (*models.OutboundCommand, error) {
	unlock := s.locks.Lock(deviceID)
	defer unlock()

	cmd, ok := s.repos.Commands.Get(deviceID)
	if !ok {
		return nil, nil
	}
	if cmd.RetrievedAt == nil {
		now := time.Now().UTC()
		cmd.RetrievedAt = &now
		s.repos.Commands.Put(deviceID, cmd, RetrievedTTL)
	}
	return &cmd, nil
}

// AcknowledgeCommand deletes the matching live command and records the
// outcome. Acknowledging a superseded, expired or already-acknowledged
// command is a no-op, not an error. Pending shadow fields on MotorState are
// left for heartbeat reconciliation or the pending sweep. The id check and
// delete run under the device lock so an ack cannot remove a command issued
// between the two steps.
func (s *CommandService) AcknowledgeCommand(ctx context.Context, p AckParams) error {
	unlock := s.locks.Lock(p.DeviceID)
	defer unlock()

	cmd, ok := s.repos.Commands.Get(p.DeviceID)
	if !ok || cmd.CommandID != p.CommandID {
		s.log.Infow("command_ack_stale", "device_id", p.DeviceID, "command_id", p.CommandID)
		return nil
	}
	s.repos.Commands.Delete(p.DeviceID)

	ev := models.DeviceEvent{
		DeviceID: p.DeviceID,
		Type:     models.EventCommandAck,
		Severity: models.SeverityInfo,
		Message:  fmt.Sprintf("command %s acknowledged", cmd.Action),
		Metadata: map[string]any{"command_id": p.CommandID},
	}
	if !p.Success {
		ev.Type = models.EventCommandFailed
		ev.Severity = models.SeverityHigh
		ev.Message = fmt.Sprintf("command %s failed on device: %s", cmd.Action, p.ErrorMessage)
	}
	s.audit(ctx, ev)
	s.notify.Publish(Notification{Kind: NotifyRefresh, DeviceID: p.DeviceID, At: time.Now().UTC()})
	return nil
}

func (s *CommandService) audit(ctx context.Context, e models.DeviceEvent) {
	if err := s.repos.Events.Append(ctx, e); err != nil {
		s.log.Errorw("event_log_append_failed", "err", err, "type", e.Type, "device_id", e.DeviceID)
	}
}

// loadOrInit reads a device's state, creating the safe lazy default when the
// device has never been seen. The default is not persisted here; the caller's
// Save does that.
func loadOrInit(ctx context.Context, repo repository.MotorStateRepo, deviceID string, now time.Time) (models.MotorState, error) {
	st, found, err := repo.Get(ctx, deviceID)
	if err != nil {
		return models.MotorState{}, err
	}
	if !found {
		return models.NewMotorState(deviceID, now), nil
	}
	return st, nil
}
