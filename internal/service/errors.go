package service

import "errors"

// Command rejection taxonomy. Validation errors are malformed requests and
// are never retried; conflicts are state-dependent refusals; unavailable
// means the device cannot receive a delivery-requiring command right now and
// the caller may retry later.
var (
	ErrUnknownAction       = errors.New("unknown command action")
	ErrTargetLevelRequired = errors.New("target command requires a positive target level")
	ErrProtectionActive    = errors.New("protection is active; reset it before starting the motor")
	ErrDeviceOffline       = errors.New("device is offline; command cannot be delivered")
)

func IsValidation(err error) bool {
	return errors.Is(err, ErrUnknownAction) || errors.Is(err, ErrTargetLevelRequired)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrProtectionActive)
}

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrDeviceOffline)
}
