package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pump-control-backend/internal/models"
)

type MotorSQLite struct {
	db *sql.DB
}

func NewMotorSQLite(db *sql.DB) *MotorSQLite {
	return &MotorSQLite{db: db}
}

const (
	upsertMotorStateSQL = `
		INSERT INTO motor_state (
			device_id, motor_running, control_mode, target_mode_active,
			current_target_level, target_description, protection_active,
			current_amps, power_watts, runtime_minutes, total_runtime_hours,
			mcu_online, last_heartbeat, last_command_source, last_command_reason,
			pending_motor_running, pending_control_mode, pending_target_active,
			pending_target_level, pending_protection_active, pending_command_id,
			pending_command_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			motor_running=excluded.motor_running,
			control_mode=excluded.control_mode,
			target_mode_active=excluded.target_mode_active,
			current_target_level=excluded.current_target_level,
			target_description=excluded.target_description,
			protection_active=excluded.protection_active,
			current_amps=excluded.current_amps,
			power_watts=excluded.power_watts,
			runtime_minutes=excluded.runtime_minutes,
			total_runtime_hours=excluded.total_runtime_hours,
			mcu_online=excluded.mcu_online,
			last_heartbeat=excluded.last_heartbeat,
			last_command_source=excluded.last_command_source,
			last_command_reason=excluded.last_command_reason,
			pending_motor_running=excluded.pending_motor_running,
			pending_control_mode=excluded.pending_control_mode,
			pending_target_active=excluded.pending_target_active,
			pending_target_level=excluded.pending_target_level,
			pending_protection_active=excluded.pending_protection_active,
			pending_command_id=excluded.pending_command_id,
			pending_command_at=excluded.pending_command_at,
			updated_at=excluded.updated_at
	`

	selectMotorStateCols = `
		device_id, motor_running, control_mode, target_mode_active,
		current_target_level, target_description, protection_active,
		current_amps, power_watts, runtime_minutes, total_runtime_hours,
		mcu_online, last_heartbeat, last_command_source, last_command_reason,
		pending_motor_running, pending_control_mode, pending_target_active,
		pending_target_level, pending_protection_active, pending_command_id,
		pending_command_at, created_at, updated_at
	`
)

// Save upserts one device's row keyed by device_id.
func (r *MotorSQLite) Save(ctx context.Context, st models.MotorState) error {
	now := time.Now().UTC()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, upsertMotorStateSQL,
		st.DeviceID,
		st.MotorRunning,
		string(st.ControlMode),
		st.TargetModeActive,
		nullFloat(st.CurrentTargetLevel),
		st.TargetDescription,
		st.ProtectionActive,
		st.CurrentAmps,
		st.PowerWatts,
		st.RuntimeMinutes,
		st.TotalRuntimeHours,
		st.MCUOnline,
		nullTime(st.LastHeartbeat),
		string(st.LastCommandSource),
		st.LastCommandReason,
		nullBool(st.PendingMotorRunning),
		nullMode(st.PendingControlMode),
		nullBool(st.PendingTargetActive),
		nullFloat(st.PendingTargetLevel),
		nullBool(st.PendingProtectionActive),
		st.PendingCommandID,
		nullTime(st.PendingCommandAt),
		st.CreatedAt.UTC(),
		st.UpdatedAt.UTC(),
	)
	return err
}

// Get fetches one device's row. The second return is false when absent.
func (r *MotorSQLite) Get(ctx context.Context, deviceID string) (models.MotorState, bool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+selectMotorStateCols+` FROM motor_state WHERE device_id=?`, deviceID)
	st, err := scanMotorState(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.MotorState{}, false, nil
		}
		return models.MotorState{}, false, err
	}
	return st, true, nil
}

// List returns every known device's row.
func (r *MotorSQLite) List(ctx context.Context) ([]models.MotorState, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectMotorStateCols+` FROM motor_state ORDER BY device_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.MotorState, 0, 8)
	for rows.Next() {
		st, err := scanMotorState(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMotorState(row rowScanner) (models.MotorState, error) {
	var (
		st             models.MotorState
		mode           string
		source         string
		targetLevel    sql.NullFloat64
		lastHeartbeat  sql.NullTime
		pendingRunning sql.NullBool
		pendingMode    sql.NullString
		pendingActive  sql.NullBool
		pendingLevel   sql.NullFloat64
		pendingProt    sql.NullBool
		pendingAt      sql.NullTime
	)

	if err := row.Scan(
		&st.DeviceID,
		&st.MotorRunning,
		&mode,
		&st.TargetModeActive,
		&targetLevel,
		&st.TargetDescription,
		&st.ProtectionActive,
		&st.CurrentAmps,
		&st.PowerWatts,
		&st.RuntimeMinutes,
		&st.TotalRuntimeHours,
		&st.MCUOnline,
		&lastHeartbeat,
		&source,
		&st.LastCommandReason,
		&pendingRunning,
		&pendingMode,
		&pendingActive,
		&pendingLevel,
		&pendingProt,
		&st.PendingCommandID,
		&pendingAt,
		&st.CreatedAt,
		&st.UpdatedAt,
	); err != nil {
		return models.MotorState{}, err
	}

	st.ControlMode = models.ControlMode(mode)
	st.LastCommandSource = models.CommandSource(source)
	if targetLevel.Valid {
		v := targetLevel.Float64
		st.CurrentTargetLevel = &v
	}
	if lastHeartbeat.Valid {
		t := lastHeartbeat.Time.UTC()
		st.LastHeartbeat = &t
	}
	if pendingRunning.Valid {
		v := pendingRunning.Bool
		st.PendingMotorRunning = &v
	}
	if pendingMode.Valid {
		m := models.ControlMode(pendingMode.String)
		st.PendingControlMode = &m
	}
	if pendingActive.Valid {
		v := pendingActive.Bool
		st.PendingTargetActive = &v
	}
	if pendingLevel.Valid {
		v := pendingLevel.Float64
		st.PendingTargetLevel = &v
	}
	if pendingProt.Valid {
		v := pendingProt.Bool
		st.PendingProtectionActive = &v
	}
	if pendingAt.Valid {
		t := pendingAt.Time.UTC()
		st.PendingCommandAt = &t
	}
	st.CreatedAt = st.CreatedAt.UTC()
	st.UpdatedAt = st.UpdatedAt.UTC()
	return st, nil
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullBool(v *bool) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullMode(m *models.ControlMode) any {
	if m == nil {
		return nil
	}
	return string(*m)
}
