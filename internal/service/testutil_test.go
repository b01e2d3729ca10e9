package service

import (
	"context"
	"sync"
	"time"

	"pump-control-backend/internal/logger"
	"pump-control-backend/internal/models"
	"pump-control-backend/internal/repository"
)

// In-memory fakes for the repository interfaces. Error fields inject
// failures; call slices record what the service under test did.

type fakeMotorRepo struct {
	mu      sync.Mutex
	states  map[string]models.MotorState
	getErr  error
	saveErr error
	listErr error
}

func newFakeMotorRepo() *fakeMotorRepo {
	return &fakeMotorRepo{states: make(map[string]models.MotorState)}
}

func (f *fakeMotorRepo) Get(ctx context.Context, deviceID string) (models.MotorState, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return models.MotorState{}, false, f.getErr
	}
	st, ok := f.states[deviceID]
	return st, ok, nil
}

func (f *fakeMotorRepo) Save(ctx context.Context, st models.MotorState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.states[st.DeviceID] = st
	return nil
}

func (f *fakeMotorRepo) List(ctx context.Context) ([]models.MotorState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.MotorState, 0, len(f.states))
	for _, st := range f.states {
		out = append(out, st)
	}
	return out, nil
}

func (f *fakeMotorRepo) put(st models.MotorState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[st.DeviceID] = st
}

type fakeEventRepo struct {
	mu        sync.Mutex
	appended  []models.DeviceEvent
	appendErr error
	listResp  []models.DeviceEvent
	listErr   error
	lastList  repository.EventFilter
}

func (f *fakeEventRepo) Append(ctx context.Context, e models.DeviceEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, e)
	return nil
}

func (f *fakeEventRepo) List(ctx context.Context, flt repository.EventFilter) ([]models.DeviceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList = flt
	return f.listResp, f.listErr
}

func (f *fakeEventRepo) events() []models.DeviceEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.DeviceEvent, len(f.appended))
	copy(out, f.appended)
	return out
}

type fakeCommandStore struct {
	mu      sync.Mutex
	cmds    map[string]models.OutboundCommand
	lastTTL map[string]time.Duration
	puts    int
}

func newFakeCommandStore() *fakeCommandStore {
	return &fakeCommandStore{
		cmds:    make(map[string]models.OutboundCommand),
		lastTTL: make(map[string]time.Duration),
	}
}

func (f *fakeCommandStore) Put(deviceID string, cmd models.OutboundCommand, ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds[deviceID] = cmd
	f.lastTTL[deviceID] = ttl
	f.puts++
}

func (f *fakeCommandStore) Get(deviceID string) (models.OutboundCommand, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd, ok := f.cmds[deviceID]
	return cmd, ok
}

func (f *fakeCommandStore) Delete(deviceID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cmds, deviceID)
}

func (f *fakeCommandStore) ttl(deviceID string) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastTTL[deviceID]
}

func (f *fakeCommandStore) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

type fakePauseStore struct {
	mu   sync.Mutex
	recs map[string]models.SensorPauseRecord
}

func newFakePauseStore() *fakePauseStore {
	return &fakePauseStore{recs: make(map[string]models.SensorPauseRecord)}
}

func (f *fakePauseStore) Put(rec models.SensorPauseRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs[rec.DeviceID] = rec
}

func (f *fakePauseStore) Get(deviceID string) (models.SensorPauseRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[deviceID]
	return rec, ok
}

func (f *fakePauseStore) Delete(deviceID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.recs, deviceID)
}

type fakeOverrideStore struct {
	mu   sync.Mutex
	recs map[string]models.OverrideRecord
}

func newFakeOverrideStore() *fakeOverrideStore {
	return &fakeOverrideStore{recs: make(map[string]models.OverrideRecord)}
}

func (f *fakeOverrideStore) Put(rec models.OverrideRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs[rec.DeviceID] = rec
}

func (f *fakeOverrideStore) Get(deviceID string) (models.OverrideRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[deviceID]
	return rec, ok
}

func (f *fakeOverrideStore) Delete(deviceID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.recs, deviceID)
}

type fakeSensorStore struct {
	mu    sync.Mutex
	snaps map[string]models.SensorSnapshot
}

func newFakeSensorStore() *fakeSensorStore {
	return &fakeSensorStore{snaps: make(map[string]models.SensorSnapshot)}
}

func (f *fakeSensorStore) Put(snap models.SensorSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snaps[snap.DeviceID] = snap
}

func (f *fakeSensorStore) Latest(deviceID string) (models.SensorSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.snaps[deviceID]
	return snap, ok
}

// recordNotifier captures every published notification.
type recordNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *recordNotifier) Publish(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordNotifier) kinds() []NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]NotificationKind, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Kind)
	}
	return out
}

// testRepos bundles the fakes behind a *repository.Repository.
type testRepos struct {
	repos     *repository.Repository
	motor     *fakeMotorRepo
	events    *fakeEventRepo
	commands  *fakeCommandStore
	pauses    *fakePauseStore
	overrides *fakeOverrideStore
	sensors   *fakeSensorStore
}

func newTestRepos() *testRepos {
	motor := newFakeMotorRepo()
	events := &fakeEventRepo{}
	commands := newFakeCommandStore()
	pauses := newFakePauseStore()
	overrides := newFakeOverrideStore()
	sensors := newFakeSensorStore()
	return &testRepos{
		repos: &repository.Repository{
			Motor:     motor,
			Events:    events,
			Commands:  commands,
			Pauses:    pauses,
			Overrides: overrides,
			Sensors:   sensors,
		},
		motor:     motor,
		events:    events,
		commands:  commands,
		pauses:    pauses,
		overrides: overrides,
		sensors:   sensors,
	}
}

func testLogger() *logger.Logger {
	return logger.Get(logger.ErrorLevel)
}

func fptr(v float64) *float64 { return &v }
