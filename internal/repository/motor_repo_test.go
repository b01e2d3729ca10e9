// motor_repo_test.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"pump-control-backend/internal/models"
)

func newMockMotorRepo(t *testing.T) (*MotorSQLite, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	repo := NewMotorSQLite(db)
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	}
	return repo, mock, cleanup
}

var motorStateCols = []string{
	"device_id", "motor_running", "control_mode", "target_mode_active",
	"current_target_level", "target_description", "protection_active",
	"current_amps", "power_watts", "runtime_minutes", "total_runtime_hours",
	"mcu_online", "last_heartbeat", "last_command_source", "last_command_reason",
	"pending_motor_running", "pending_control_mode", "pending_target_active",
	"pending_target_level", "pending_protection_active", "pending_command_id",
	"pending_command_at", "created_at", "updated_at",
}

func TestMotorSQLite_Save_Upserts(t *testing.T) {
	repo, mock, cleanup := newMockMotorRepo(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(upsertMotorStateSQL)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	st := models.NewMotorState("pump-01", time.Now().UTC())
	st.MotorRunning = true
	if err := repo.Save(context.Background(), st); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
}

func TestMotorSQLite_Save_ExecError(t *testing.T) {
	repo, mock, cleanup := newMockMotorRepo(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(upsertMotorStateSQL)).
		WillReturnError(errors.New("db exec failed"))

	err := repo.Save(context.Background(), models.NewMotorState("pump-01", time.Now().UTC()))
	if err == nil {
		t.Fatalf("expected exec error to surface")
	}
}

func TestMotorSQLite_Get_MapsNullableColumns(t *testing.T) {
	repo, mock, cleanup := newMockMotorRepo(t)
	defer cleanup()

	now := time.Now().UTC().Truncate(time.Second)
	hb := now.Add(-30 * time.Second)

	rows := sqlmock.NewRows(motorStateCols).AddRow(
		"pump-01", true, "auto", true,
		80.0, "fill to 80%", false,
		4.5, 1100.0, 12, 340.5,
		true, hb, "api", "evening fill",
		true, nil, true,
		80.0, nil, "cmd-1",
		now, now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + selectMotorStateCols + ` FROM motor_state WHERE device_id=?`)).
		WithArgs("pump-01").
		WillReturnRows(rows)

	st, found, err := repo.Get(context.Background(), "pump-01")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !found {
		t.Fatalf("expected row to be found")
	}
	if st.CurrentTargetLevel == nil || *st.CurrentTargetLevel != 80 {
		t.Fatalf("current_target_level not mapped, got %v", st.CurrentTargetLevel)
	}
	if st.LastHeartbeat == nil || !st.LastHeartbeat.Equal(hb) {
		t.Fatalf("last_heartbeat not mapped, got %v", st.LastHeartbeat)
	}
	if st.PendingMotorRunning == nil || !*st.PendingMotorRunning {
		t.Fatalf("pending_motor_running not mapped")
	}
	if st.PendingControlMode != nil {
		t.Fatalf("NULL pending_control_mode should map to nil, got %v", st.PendingControlMode)
	}
	if st.PendingProtectionActive != nil {
		t.Fatalf("NULL pending_protection_active should map to nil, got %v", st.PendingProtectionActive)
	}
	if st.PendingCommandID != "cmd-1" {
		t.Fatalf("pending_command_id not mapped, got %q", st.PendingCommandID)
	}
	if st.LastCommandSource != models.SourceAPI {
		t.Fatalf("last_command_source not mapped, got %q", st.LastCommandSource)
	}
}

func TestMotorSQLite_Get_AbsentRowIsNotAnError(t *testing.T) {
	repo, mock, cleanup := newMockMotorRepo(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + selectMotorStateCols + ` FROM motor_state WHERE device_id=?`)).
		WithArgs("never-seen").
		WillReturnError(sql.ErrNoRows)

	st, found, err := repo.Get(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("absent row should not be an error, got %v", err)
	}
	if found {
		t.Fatalf("expected found=false, got state %+v", st)
	}
}

func TestMotorSQLite_List_ReturnsAllRows(t *testing.T) {
	repo, mock, cleanup := newMockMotorRepo(t)
	defer cleanup()

	now := time.Now().UTC().Truncate(time.Second)
	rows := sqlmock.NewRows(motorStateCols).
		AddRow("pump-01", false, "auto", false, nil, "", false,
			0.0, 0.0, 0, 0.0, false, nil, "", "",
			nil, nil, nil, nil, nil, "", nil, now, now).
		AddRow("pump-02", true, "manual", false, nil, "", false,
			3.2, 780.0, 5, 12.0, true, now, "mcu", "",
			nil, nil, nil, nil, nil, "", nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + selectMotorStateCols + ` FROM motor_state ORDER BY device_id ASC`)).
		WillReturnRows(rows)

	states, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(states))
	}
	if states[0].DeviceID != "pump-01" || states[1].DeviceID != "pump-02" {
		t.Fatalf("unexpected order: %q, %q", states[0].DeviceID, states[1].DeviceID)
	}
	if !states[1].MCUOnline || states[1].ControlMode != models.ControlModeManual {
		t.Fatalf("second row not mapped, got %+v", states[1])
	}
}
