package service

import "sync"

// deviceLocks serializes read-modify-write cycles on one device's MotorState
// across the command, heartbeat, sweep and interlock paths. Lock granularity
// is per device; different devices proceed in parallel.
type deviceLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newDeviceLocks() *deviceLocks {
	return &deviceLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the device's mutex and returns its unlock func.
func (d *deviceLocks) Lock(deviceID string) func() {
	d.mu.Lock()
	l, ok := d.locks[deviceID]
	if !ok {
		l = &sync.Mutex{}
		d.locks[deviceID] = l
	}
	d.mu.Unlock()

	l.Lock()
	return l.Unlock
}
