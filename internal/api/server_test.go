package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homepulse/homepulse/internal/collector"
	"github.com/homepulse/homepulse/internal/config"
	"github.com/homepulse/homepulse/internal/digest"
	"github.com/homepulse/homepulse/internal/hass"
	"github.com/homepulse/homepulse/internal/model"
	"github.com/homepulse/homepulse/internal/scheduler"
	"github.com/homepulse/homepulse/internal/store"
	"github.com/homepulse/homepulse/internal/store/sqlite"
)

type fakeDigestService struct {
	record *model.DigestRecord
	err    error
	types  []model.DigestType
}

func (f *fakeDigestService) Generate(ctx context.Context, t model.DigestType) (*model.DigestRecord, error) {
	f.types = append(f.types, t)
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

func (f *fakeDigestService) Status(ctx context.Context, hour, minute int, digestTime string, apiConfigured bool) (*digest.Status, error) {
	return &digest.Status{DigestTime: digestTime, APIConfigured: apiConfigured}, nil
}

type fakeCollectorService struct {
	result  *collector.Result
	err     error
	deleted int
}

func (f *fakeCollectorService) Collect(ctx context.Context) (*collector.Result, error) {
	return f.result, f.err
}

func (f *fakeCollectorService) Cleanup(ctx context.Context) (int, error) {
	return f.deleted, f.err
}

func (f *fakeCollectorService) Status(ctx context.Context) (*collector.Status, error) {
	return &collector.Status{RecentErrors: []collector.CollectionError{}}, nil
}

type fakeScheduler struct {
	running bool
}

func (f *fakeScheduler) Start(ctx context.Context) error { f.running = true; return nil }
func (f *fakeScheduler) Stop()                           { f.running = false }
func (f *fakeScheduler) Status() scheduler.Status {
	return scheduler.Status{Running: f.running, DigestTime: "07:00"}
}

type fakeStateSource struct {
	states    []hass.EntityState
	statesErr error
	connected bool
}

func (f *fakeStateSource) GetAllStates(ctx context.Context) ([]hass.EntityState, error) {
	return f.states, f.statesErr
}

func (f *fakeStateSource) CheckConnection(ctx context.Context) *hass.ConnectionStatus {
	if !f.connected {
		return &hass.ConnectionStatus{Error: "connection refused"}
	}
	return &hass.ConnectionStatus{Connected: true, Version: "2024.6.1"}
}

type fakeNotifySender struct {
	digests []*model.DigestRecord
	tests   int
	err     error
}

func (f *fakeNotifySender) SendDigest(ctx context.Context, d *model.DigestRecord) error {
	f.digests = append(f.digests, d)
	return f.err
}

func (f *fakeNotifySender) SendTest(ctx context.Context) error {
	f.tests++
	return f.err
}

type testEnv struct {
	store     store.Store
	digests   *fakeDigestService
	collector *fakeCollectorService
	scheduler *fakeScheduler
	ha        *fakeStateSource
	notifier  *fakeNotifySender
	server    *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, sqlite.EnsureSchema(db))
	t.Cleanup(func() { _ = db.Close() })

	st, err := sqlite.NewWithDB(db)
	require.NoError(t, err)
	env := &testEnv{
		store:     st,
		digests:   &fakeDigestService{record: &model.DigestRecord{ID: "d1", Type: model.DigestOnDemand, Summary: "ok"}},
		collector: &fakeCollectorService{result: &collector.Result{Collected: 3}},
		scheduler: &fakeScheduler{running: true},
		ha:        &fakeStateSource{connected: true},
		notifier:  &fakeNotifySender{},
	}
	cfg := &config.Config{DigestTime: "07:00", GeminiAPIKey: "key"}
	srv := NewServer(cfg, env.store, env.ha, env.digests, env.collector, env.scheduler, env.notifier, zerolog.Nop())
	env.server = httptest.NewServer(srv.Router())
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, "GET", "/api/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestStatusAggregates(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, "GET", "/api/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "homepulse", body["service"])
	assert.Equal(t, true, body["apiConfigured"])
	assert.Equal(t, false, body["profileComplete"])
}

func TestDigestGenerateDefaultsToOnDemand(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, "POST", "/api/digest/generate", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "d1", body["id"])
	require.Len(t, env.digests.types, 1)
	assert.Equal(t, model.DigestOnDemand, env.digests.types[0])
}

func TestDigestGenerateExplicitType(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, "POST", "/api/digest/generate", map[string]string{"type": "weekly"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, model.DigestWeekly, env.digests.types[0])
}

func TestDigestGenerateRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, "POST", "/api/digest/generate", map[string]string{"type": "hourly"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDigestGenerateConflictWhenInProgress(t *testing.T) {
	env := newTestEnv(t)
	env.digests.err = model.ErrDigestInProgress
	resp, _ := env.do(t, "POST", "/api/digest/generate", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestDigestGenerateAndNotify(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, "POST", "/api/digest/generate-and-notify", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, body["notified"])
	require.Len(t, env.notifier.digests, 1)
	assert.Equal(t, "d1", env.notifier.digests[0].ID)
}

func TestDigestGenerateAndNotifyNotificationFailureIsNonFatal(t *testing.T) {
	env := newTestEnv(t)
	env.notifier.err = errors.New("push down")
	resp, body := env.do(t, "POST", "/api/digest/generate-and-notify", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, false, body["notified"])
}

func seedDigests(t *testing.T, st store.Store, n int) []*model.DigestRecord {
	t.Helper()
	records := make([]*model.DigestRecord, 0, n)
	for i := 0; i < n; i++ {
		rec, err := st.Digests().Create(context.Background(), &model.DigestRecord{
			Timestamp: time.Now().Add(time.Duration(i) * time.Minute),
			Type:      model.DigestDaily,
			Content:   `{"summary":"s"}`,
			Summary:   fmt.Sprintf("digest %d", i),
		})
		require.NoError(t, err)
		records = append(records, rec)
	}
	return records
}

func TestDigestListAndGet(t *testing.T) {
	env := newTestEnv(t)
	records := seedDigests(t, env.store, 3)

	resp, body := env.do(t, "GET", "/api/digest/list?limit=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["count"])

	resp, body = env.do(t, "GET", "/api/digest/"+records[0].ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, records[0].ID, body["id"])

	resp, _ = env.do(t, "GET", "/api/digest/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDigestLatestRouteNotShadowedByID(t *testing.T) {
	env := newTestEnv(t)
	records := seedDigests(t, env.store, 2)

	resp, body := env.do(t, "GET", "/api/digest/latest", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, records[len(records)-1].ID, body["id"])
}

func TestDigestLatestEmptyStore(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, "GET", "/api/digest/latest", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDigestStatus(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, "GET", "/api/digest/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "07:00", body["digestTimeConfig"])
	assert.Equal(t, true, body["apiConfigured"])
}

func TestTestNotification(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, "POST", "/api/digest/test-notification", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, env.notifier.tests)
}

func TestWarningDismissRestoreRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "POST", "/api/digest/warnings/dismiss", map[string]string{"title": "Low battery: Front Door!"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	key := body["warningKey"].(string)
	assert.Equal(t, "low_battery_front_door", key)

	resp, body = env.do(t, "GET", "/api/digest/warnings/dismissed", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])

	resp, _ = env.do(t, "POST", "/api/digest/warnings/restore", map[string]string{"warningKey": key})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.do(t, "GET", "/api/digest/warnings/dismissed", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["count"])
}

func TestWarningRestoreUnknownKey(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, "POST", "/api/digest/warnings/restore", map[string]string{"warningKey": "never_dismissed"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWarningDismissRequiresTitle(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, "POST", "/api/digest/warnings/dismiss", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNoteLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "POST", "/api/digest/note", map[string]string{
		"title": "Garage sensor offline",
		"note":  "Battery on order, ignore until next week",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := int64(body["id"].(float64))

	resp, body = env.do(t, "PUT", fmt.Sprintf("/api/digest/note/%d", id), map[string]string{"note": "Battery replaced"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Battery replaced", body["note"])

	resp, body = env.do(t, "GET", "/api/digest/notes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])

	resp, _ = env.do(t, "DELETE", fmt.Sprintf("/api/digest/note/%d", id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, "PUT", fmt.Sprintf("/api/digest/note/%d", id), map[string]string{"note": "gone"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProfileRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "POST", "/api/profile", map[string]interface{}{
		"occupants":  "2 adults, 1 dog",
		"schedule":   "home office weekdays",
		"priorities": "energy costs",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["complete"])

	resp, body = env.do(t, "GET", "/api/profile/status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["complete"])
	assert.Empty(t, body["missing"])

	resp, _ = env.do(t, "DELETE", "/api/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = env.do(t, "GET", "/api/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["complete"])
}

func TestProfileQuestions(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, "GET", "/api/profile/questions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	questions := body["questions"].([]interface{})
	assert.GreaterOrEqual(t, len(questions), 3)
}

func TestConnectionStatus(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, "GET", "/api/entities/connection", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["connected"])

	env.ha.connected = false
	resp, _ = env.do(t, "GET", "/api/entities/connection", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func haState(entityID, state, friendlyName string, attrs map[string]interface{}) hass.EntityState {
	if attrs == nil {
		attrs = map[string]interface{}{}
	}
	attrs["friendly_name"] = friendlyName
	return hass.EntityState{EntityID: entityID, State: state, Attributes: attrs}
}

func TestDiscoverAndAutoConfigure(t *testing.T) {
	env := newTestEnv(t)
	env.ha.states = []hass.EntityState{
		haState("sensor.living_room_temp", "21.5", "Living Room Temp", map[string]interface{}{"unit_of_measurement": "°C"}),
		haState("binary_sensor.front_door", "off", "Front Door", map[string]interface{}{"device_class": "door"}),
		haState("input_boolean.guest_mode", "off", "Guest Mode", nil),
	}

	resp, body := env.do(t, "GET", "/api/entities/discover", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["count"])

	resp, body = env.do(t, "POST", "/api/entities/auto-configure", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["configured"])
	assert.Equal(t, float64(3), body["discovered"])

	entities, err := env.store.Entities().List(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, entities, 2)
}

func TestEntitiesSaveValidatesPriority(t *testing.T) {
	env := newTestEnv(t)
	resp, _ := env.do(t, "POST", "/api/entities/save", []map[string]string{
		{"entityId": "sensor.a", "friendlyName": "A", "domain": "sensor", "category": "climate", "priority": "urgent"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSetPriority(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Entities().Upsert(context.Background(), &model.MonitoredEntity{
		EntityID: "sensor.a", FriendlyName: "A", Domain: "sensor", Category: "climate", Priority: "normal",
	}))

	resp, _ := env.do(t, "POST", "/api/entities/sensor.a/priority", map[string]string{"priority": "ignore"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	entities, err := env.store.Entities().List(context.Background(), true)
	require.NoError(t, err)
	assert.Empty(t, entities)

	resp, _ = env.do(t, "POST", "/api/entities/sensor.missing/priority", map[string]string{"priority": "low"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCollectEndpoint(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, "POST", "/api/collector/collect", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(3), body["collected"])

	env.collector.result = &collector.Result{Skipped: true}
	resp, _ = env.do(t, "POST", "/api/collector/collect", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSchedulerControlEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, "POST", "/api/collector/scheduler/stop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["running"])

	resp, body = env.do(t, "POST", "/api/collector/scheduler/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["running"])
}

func TestSnapshotsRange(t *testing.T) {
	env := newTestEnv(t)
	v := 21.5
	require.NoError(t, env.store.Snapshots().AddBatch(context.Background(), []model.Snapshot{
		{EntityID: "sensor.a", Timestamp: time.Now().UTC().Add(-time.Hour), ValueType: "number", ValueNum: &v},
		{EntityID: "sensor.a", Timestamp: time.Now().UTC().Add(-48 * time.Hour), ValueType: "number", ValueNum: &v},
	}))

	resp, body := env.do(t, "GET", "/api/collector/snapshots/sensor.a?hours=24", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])
}
