package collector

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homepulse/homepulse/internal/hass"
	"github.com/homepulse/homepulse/internal/model"
	"github.com/homepulse/homepulse/internal/store"
	"github.com/homepulse/homepulse/internal/store/sqlite"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, sqlite.EnsureSchema(db))
	t.Cleanup(func() { _ = db.Close() })
	st, err := sqlite.NewWithDB(db)
	require.NoError(t, err)
	return st
}

type fakeStates struct {
	states  []hass.EntityState
	err     error
	block   chan struct{}
	calls   int
	callsMu sync.Mutex
}

func (f *fakeStates) GetAllStates(ctx context.Context) ([]hass.EntityState, error) {
	f.callsMu.Lock()
	f.calls++
	f.callsMu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.states, f.err
}

func seedEntities(t *testing.T, st store.Store, entities ...*model.MonitoredEntity) {
	t.Helper()
	for _, e := range entities {
		require.NoError(t, st.Entities().Upsert(context.Background(), e))
	}
}

func TestCollectStoresTypedSnapshots(t *testing.T) {
	st := newTestStore(t)
	seedEntities(t, st,
		&model.MonitoredEntity{EntityID: "sensor.temp", FriendlyName: "Temp", Domain: "sensor", Category: "climate", Priority: "normal"},
		&model.MonitoredEntity{EntityID: "binary_sensor.door", FriendlyName: "Door", Domain: "binary_sensor", Category: "security", Priority: "critical"},
		&model.MonitoredEntity{EntityID: "sensor.gone", FriendlyName: "Gone", Domain: "sensor", Category: "sensors", Priority: "normal"},
		&model.MonitoredEntity{EntityID: "sensor.flaky", FriendlyName: "Flaky", Domain: "sensor", Category: "sensors", Priority: "normal"},
	)

	ha := &fakeStates{states: []hass.EntityState{
		{EntityID: "sensor.temp", State: "21.5", Attributes: map[string]interface{}{"unit_of_measurement": "°C", "irrelevant": true}},
		{EntityID: "binary_sensor.door", State: "off", Attributes: map[string]interface{}{"device_class": "door"}},
		{EntityID: "sensor.flaky", State: "unavailable"},
	}}

	c := New(st, ha, 7, zerolog.Nop())
	result, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.Collected)
	assert.Equal(t, 1, result.Errors) // sensor.gone missing from HA

	now := time.Now()
	snaps, err := st.Snapshots().Range(context.Background(), "sensor.temp", now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "number", snaps[0].ValueType)
	require.NotNil(t, snaps[0].ValueNum)
	assert.Equal(t, 21.5, *snaps[0].ValueNum)

	snaps, err = st.Snapshots().Range(context.Background(), "binary_sensor.door", now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "state", snaps[0].ValueType)
	require.NotNil(t, snaps[0].ValueStr)
	assert.Equal(t, "off", *snaps[0].ValueStr)

	// Both snapshots share the collection timestamp.
	all, err := st.Snapshots().ForAnalysis(context.Background(), now.Add(-time.Minute), now.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Timestamp.Equal(all[1].Timestamp))
}

func TestCollectSkipsIgnoredEntities(t *testing.T) {
	st := newTestStore(t)
	seedEntities(t, st,
		&model.MonitoredEntity{EntityID: "sensor.kept", FriendlyName: "Kept", Domain: "sensor", Category: "sensors", Priority: "normal"},
		&model.MonitoredEntity{EntityID: "sensor.ignored", FriendlyName: "Ignored", Domain: "sensor", Category: "sensors", Priority: "ignore"},
	)
	ha := &fakeStates{states: []hass.EntityState{
		{EntityID: "sensor.kept", State: "1"},
		{EntityID: "sensor.ignored", State: "2"},
	}}

	c := New(st, ha, 7, zerolog.Nop())
	result, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Collected)
}

func TestCollectOverlapNoOps(t *testing.T) {
	st := newTestStore(t)
	seedEntities(t, st,
		&model.MonitoredEntity{EntityID: "sensor.temp", FriendlyName: "Temp", Domain: "sensor", Category: "sensors", Priority: "normal"},
	)
	ha := &fakeStates{
		states: []hass.EntityState{{EntityID: "sensor.temp", State: "1"}},
		block:  make(chan struct{}),
	}
	c := New(st, ha, 7, zerolog.Nop())

	done := make(chan *Result, 1)
	go func() {
		r, _ := c.Collect(context.Background())
		done <- r
	}()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&c.state) == stateCollecting
	}, time.Second, 5*time.Millisecond)

	overlap, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.True(t, overlap.Skipped)

	close(ha.block)
	first := <-done
	assert.False(t, first.Skipped)
	assert.Equal(t, 1, first.Collected)
}

func TestCollectFetchFailure(t *testing.T) {
	st := newTestStore(t)
	seedEntities(t, st,
		&model.MonitoredEntity{EntityID: "sensor.temp", FriendlyName: "Temp", Domain: "sensor", Category: "sensors", Priority: "normal"},
	)
	ha := &fakeStates{err: errors.New("connection refused")}
	c := New(st, ha, 7, zerolog.Nop())

	_, err := c.Collect(context.Background())
	require.Error(t, err)

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.IsCollecting)
	require.Len(t, status.RecentErrors, 1)
	assert.Contains(t, status.RecentErrors[0].Error, "connection refused")
}

func TestCleanupDeletesOldSnapshots(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, 0, -10)
	fresh := time.Now().UTC()
	v := 1.0
	require.NoError(t, st.Snapshots().AddBatch(ctx, []model.Snapshot{
		{EntityID: "sensor.a", Timestamp: old, ValueType: "number", ValueNum: &v},
		{EntityID: "sensor.a", Timestamp: fresh, ValueType: "number", ValueNum: &v},
	}))

	c := New(st, &fakeStates{}, 7, zerolog.Nop())
	deleted, err := c.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	stats, err := st.Snapshots().Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalSnapshots)
}
