package service

import (
	"context"
	"time"

	"pump-control-backend/internal/models"
	"pump-control-backend/internal/repository"
)

type MonitoringService struct {
	repos   *repository.Repository
	primary string
}

func NewMonitoringService(repos *repository.Repository, primaryDevice string) *MonitoringService {
	return &MonitoringService{repos: repos, primary: primaryDevice}
}

// GetMotorState returns the device's state, or the safe default snapshot for
// a device that has never commanded or heartbeated. The default is not
// persisted; creation happens lazily on the first write path.
func (s *MonitoringService) GetMotorState(ctx context.Context, deviceID string) (models.MotorState, error) {
	if deviceID == "" {
		deviceID = s.primary
	}
	st, found, err := s.repos.Motor.Get(ctx, deviceID)
	if err != nil {
		return models.MotorState{}, err
	}
	if !found {
		return models.NewMotorState(deviceID, time.Now().UTC()), nil
	}
	return st, nil
}

// GetAllMotorStates returns every known device's state.
func (s *MonitoringService) GetAllMotorStates(ctx context.Context) ([]models.MotorState, error) {
	return s.repos.Motor.List(ctx)
}

// GetSensorPauseStatus returns the device's active sensor pause, if any.
func (s *MonitoringService) GetSensorPauseStatus(deviceID string) *models.SensorPauseRecord {
	if deviceID == "" {
		deviceID = s.primary
	}
	rec, ok := s.repos.Pauses.Get(deviceID)
	if !ok {
		return nil
	}
	return &rec
}
