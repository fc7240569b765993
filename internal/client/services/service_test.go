package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/smolnikov/tripsync/internal/client/models"
	"github.com/smolnikov/tripsync/internal/common"
	"github.com/smolnikov/tripsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type memStore struct {
	mu      sync.Mutex
	snap    *models.Snapshot
	queue   []models.QueueEntry
	saveErr error
	saves   int
}

func (m *memStore) Save(ctx context.Context, snap models.Snapshot, queue []models.QueueEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	s := snap.Clone()
	m.snap = &s
	m.queue = append([]models.QueueEntry{}, queue...)
	return nil
}

func (m *memStore) Load(ctx context.Context) (models.Snapshot, []models.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	queue := append([]models.QueueEntry{}, m.queue...)
	if m.snap == nil {
		return models.EmptySnapshot(), queue, common.ErrNothingStored
	}
	return m.snap.Clone(), queue, nil
}

type memAssets struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemAssets() *memAssets { return &memAssets{blobs: map[string][]byte{}} }

func (m *memAssets) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	return b, nil
}

func (m *memAssets) Put(ctx context.Context, key string, blob []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = blob
	return nil
}

func (m *memAssets) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *memAssets) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok, nil
}

func (m *memAssets) Rename(ctx context.Context, oldKey, newKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[oldKey]
	if !ok {
		return common.ErrNotFound
	}
	m.blobs[newKey] = b
	delete(m.blobs, oldKey)
	return nil
}

func (m *memAssets) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		out = append(out, k)
	}
	return out
}

type gwCall struct {
	action  string
	method  string
	payload []byte
}

type fakeGateway struct {
	mu      sync.Mutex
	calls   []gwCall
	handler func(action string, payload any) (*models.Snapshot, error)
}

func (g *fakeGateway) Call(ctx context.Context, action string, payload any, method string) (*models.Snapshot, error) {
	raw, _ := json.Marshal(payload)
	g.mu.Lock()
	g.calls = append(g.calls, gwCall{action: action, method: method, payload: raw})
	g.mu.Unlock()
	return g.handler(action, payload)
}

func (g *fakeGateway) actions() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.calls))
	for _, c := range g.calls {
		out = append(out, c.action)
	}
	return out
}

func (g *fakeGateway) countAction(action string) int {
	n := 0
	for _, a := range g.actions() {
		if a == action {
			n++
		}
	}
	return n
}

func unavailable() (*models.Snapshot, error) {
	return nil, fmt.Errorf("test: %w", common.ErrUnavailable)
}

func serverSnapshot() models.Snapshot {
	return models.Snapshot{
		Members:   []string{"ann", "bob"},
		Expenses:  []models.Expense{},
		Itinerary: []models.ItineraryItem{},
		Rates:     map[string]float64{"JPY": 0.2},
	}
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newService(gw *fakeGateway) (*TripService, *memStore, *memAssets) {
	store := &memStore{}
	assets := newMemAssets()
	svc := NewTripService(store, assets, gw, nil, testLogger())
	return svc, store, assets
}

// ---- tests ----

func TestMutateOffline_ThenReconnectAndDrain(t *testing.T) {
	ctx := context.Background()
	server := serverSnapshot()
	gw := &fakeGateway{handler: func(action string, payload any) (*models.Snapshot, error) {
		s := server.Clone()
		return &s, nil
	}}
	svc, _, _ := newService(gw)

	// offline: the mutation lands in the snapshot and the queue, no dispatch
	id, err := svc.AddExpense(ctx, models.Expense{Item: "lunch", Amount: 1000, Currency: "JPY", Payer: "ann"})
	require.NoError(t, err)

	snap := svc.Snapshot()
	require.Len(t, snap.Expenses, 1)
	assert.Equal(t, id, snap.Expenses[0].ID)
	require.Len(t, svc.Queue(), 1)
	assert.True(t, svc.IsPending(id))
	assert.Empty(t, gw.actions())

	// reconnect: the drain confirms the entry and applies the server's data
	svc.SetOnline(true)
	server.Expenses = []models.Expense{{ID: id, Item: "lunch", Amount: 1000, Currency: "JPY", Payer: "ann", AmountTWD: 200}}
	require.NoError(t, svc.DrainOnce(ctx))

	assert.Empty(t, svc.Queue())
	assert.False(t, svc.IsPending(id))
	assert.Equal(t, []string{"ann", "bob"}, svc.Snapshot().Members)
	assert.Equal(t, 1, gw.countAction("addExpense"))
	// emptying the queue triggers a fresh full reload
	assert.Equal(t, 1, gw.countAction("getData"))
}

func TestCancelBeforeConfirm(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{handler: func(string, any) (*models.Snapshot, error) { return unavailable() }}
	svc, _, _ := newService(gw)

	id, err := svc.AddExpense(ctx, models.Expense{Item: "snack", Amount: 50, Currency: "TWD", Payer: "bob"})
	require.NoError(t, err)
	exp := svc.Snapshot().Expenses[0]
	exp.Note = "updated"
	require.NoError(t, svc.EditExpense(ctx, exp))
	require.Len(t, svc.Queue(), 2)

	// deleting the never-confirmed record cancels its queued operations
	// instead of enqueueing a delete the server could not resolve
	require.NoError(t, svc.DeleteExpense(ctx, id))

	assert.Empty(t, svc.Queue())
	assert.Empty(t, svc.Snapshot().Expenses)
	assert.Empty(t, gw.actions())
}

func TestDelete_ConfirmedRecordEnqueuesDeleteRow(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{handler: func(string, any) (*models.Snapshot, error) { return unavailable() }}
	svc, store, _ := newService(gw)

	// a confirmed record exists locally with no queued add
	store.snap = &models.Snapshot{
		Expenses: []models.Expense{{ID: "e1", Item: "bus", Amount: 30, Currency: "TWD"}},
	}
	require.NoError(t, svc.Load(ctx))

	require.NoError(t, svc.DeleteExpense(ctx, "e1"))

	queue := svc.Queue()
	require.Len(t, queue, 1)
	assert.Equal(t, models.OpDelete, queue[0].Op)

	var req models.DeleteRequest
	require.NoError(t, json.Unmarshal(queue[0].Payload, &req))
	assert.Equal(t, "e1", req.ID)
	assert.Equal(t, "Expenses", req.SheetName)
}

func TestDrain_OrderPreservedAndFailuresKept(t *testing.T) {
	ctx := context.Background()
	server := serverSnapshot()

	var failTitles map[string]bool
	gw := &fakeGateway{}
	gw.handler = func(action string, payload any) (*models.Snapshot, error) {
		if action == actionGetData {
			s := server.Clone()
			return &s, nil
		}
		raw, _ := json.Marshal(payload)
		var up models.ItineraryUpload
		_ = json.Unmarshal(raw, &up)
		if failTitles[up.Title] {
			return unavailable()
		}
		s := server.Clone()
		return &s, nil
	}
	svc, _, _ := newService(gw)

	for _, title := range []string{"first", "second", "third"} {
		_, err := svc.AddItinerary(ctx, models.ItineraryItem{Title: title, Date: "2026-09-01"}, nil)
		require.NoError(t, err)
	}
	require.Len(t, svc.Queue(), 3)

	svc.SetOnline(true)
	failTitles = map[string]bool{"second": true}
	require.NoError(t, svc.DrainOnce(ctx))

	// replayed in enqueue order
	assert.Equal(t, 3, gw.countAction("addItinerary"))

	// the failed entry is kept, in place
	queue := svc.Queue()
	require.Len(t, queue, 1)
	var up models.ItineraryUpload
	require.NoError(t, json.Unmarshal(queue[0].Payload, &up))
	assert.Equal(t, "second", up.Title)

	// a second drain replays only the kept entry: confirmed entries are
	// gone from the queue before the next pass begins
	failTitles = nil
	require.NoError(t, svc.DrainOnce(ctx))
	assert.Equal(t, 4, gw.countAction("addItinerary"))
	assert.Empty(t, svc.Queue())
}

func TestDrain_NoopOfflineOrEmpty(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{handler: func(string, any) (*models.Snapshot, error) { return unavailable() }}
	svc, _, _ := newService(gw)

	// empty queue, online
	svc.SetOnline(true)
	require.NoError(t, svc.DrainOnce(ctx))
	assert.Empty(t, gw.actions())

	// non-empty queue, offline
	svc.SetOnline(false)
	_, err := svc.AddExpense(ctx, models.Expense{Item: "x", Amount: 1, Currency: "TWD", Payer: "ann"})
	require.NoError(t, err)
	require.NoError(t, svc.DrainOnce(ctx))
	assert.Empty(t, gw.actions())
}

func TestDrain_SingleFlight(t *testing.T) {
	ctx := context.Background()
	server := serverSnapshot()

	gate := make(chan struct{})
	gw := &fakeGateway{}
	gw.handler = func(action string, payload any) (*models.Snapshot, error) {
		if action != actionGetData {
			<-gate
		}
		s := server.Clone()
		return &s, nil
	}
	svc, _, _ := newService(gw)

	_, err := svc.AddExpense(ctx, models.Expense{Item: "x", Amount: 1, Currency: "TWD", Payer: "ann"})
	require.NoError(t, err)
	svc.SetOnline(true)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = svc.DrainOnce(ctx)
		}()
	}
	close(gate)
	wg.Wait()

	// two concurrent triggers collapse into one effective pass
	assert.Equal(t, 1, gw.countAction("addExpense"))
	assert.Empty(t, svc.Queue())
}

func TestLoad_LocalFastPathThenServerReplace(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{handler: func(string, any) (*models.Snapshot, error) {
		s := serverSnapshot()
		s.Members = []string{"server"}
		return &s, nil
	}}
	svc, store, _ := newService(gw)
	store.snap = &models.Snapshot{Members: []string{"local"}}

	// offline: local state is authoritative
	require.NoError(t, svc.Load(ctx))
	assert.Equal(t, []string{"local"}, svc.Snapshot().Members)
	assert.Empty(t, gw.actions())

	// online: the fetched dataset replaces the snapshot wholesale
	svc.SetOnline(true)
	require.NoError(t, svc.Load(ctx))
	assert.Equal(t, []string{"server"}, svc.Snapshot().Members)
}

func TestLoad_GatewayFailureKeepsLocalState(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{handler: func(string, any) (*models.Snapshot, error) { return unavailable() }}
	svc, store, _ := newService(gw)
	store.snap = &models.Snapshot{Members: []string{"local"}}
	svc.SetOnline(true)

	require.NoError(t, svc.Load(ctx))
	assert.Equal(t, []string{"local"}, svc.Snapshot().Members)
}

func TestPersistenceFailureDegradesDurabilityNotCorrectness(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{handler: func(string, any) (*models.Snapshot, error) { return unavailable() }}
	svc, store, _ := newService(gw)
	store.saveErr = errors.New("quota exceeded")

	id, err := svc.AddExpense(ctx, models.Expense{Item: "x", Amount: 1, Currency: "TWD", Payer: "ann"})
	require.NoError(t, err)
	assert.True(t, svc.IsPending(id))
	require.Len(t, svc.Snapshot().Expenses, 1)
}

func TestSubscribe_NotifiedOnReplacement(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{handler: func(string, any) (*models.Snapshot, error) {
		s := serverSnapshot()
		return &s, nil
	}}
	svc, _, _ := newService(gw)

	var mu sync.Mutex
	notified := 0
	svc.Subscribe(func() { mu.Lock(); notified++; mu.Unlock() })

	_, err := svc.AddExpense(ctx, models.Expense{Item: "x", Amount: 1, Currency: "TWD", Payer: "ann"})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, notified, 0)
}

func TestUpdateRates_AppliedLocallyAndPushed(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{handler: func(string, any) (*models.Snapshot, error) { return unavailable() }}
	svc, _, _ := newService(gw)
	svc.SetOnline(true)

	require.NoError(t, svc.UpdateRates(ctx, map[string]float64{"JPY": 0.22}))
	assert.Equal(t, 0.22, svc.Snapshot().Rates["JPY"])
	// pushed best-effort, not queued even though the push failed
	assert.Equal(t, 1, gw.countAction("updateRates"))
	assert.Empty(t, svc.Queue())
}

func TestPurgeQueue_DropsEntriesAndOrphanedBlobs(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{handler: func(string, any) (*models.Snapshot, error) { return unavailable() }}
	svc, _, assets := newService(gw)

	_, err := svc.AddItinerary(ctx, models.ItineraryItem{Title: "t", Date: "2026-09-01"}, []byte("img"))
	require.NoError(t, err)
	require.Len(t, svc.Queue(), 1)
	require.Len(t, assets.keys(), 1)

	svc.PurgeQueue(ctx)
	assert.Empty(t, svc.Queue())
	assert.Empty(t, assets.keys())
}

func TestAttachAndRemoveImage(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{handler: func(string, any) (*models.Snapshot, error) { return unavailable() }}
	svc, _, assets := newService(gw)

	id, err := svc.AddItinerary(ctx, models.ItineraryItem{Title: "t", Date: "2026-09-01"}, nil)
	require.NoError(t, err)
	require.Empty(t, assets.keys())

	require.NoError(t, svc.AttachImage(ctx, id, []byte("img")))
	require.Len(t, assets.keys(), 1)

	require.NoError(t, svc.RemoveImage(ctx, id))
	// the pending blob from the attach is orphaned only when its queue
	// entry goes; the remove itself clears imgUrl/imgId on the record
	it := svc.Snapshot().Itinerary[0]
	assert.Empty(t, it.ImgID)
	assert.Empty(t, it.ImgURL)

	assert.ErrorIs(t, svc.AttachImage(ctx, "missing", []byte("x")), common.ErrNotFound)
}

func TestValidation_NeverReachesSyncLayer(t *testing.T) {
	ctx := context.Background()
	gw := &fakeGateway{handler: func(string, any) (*models.Snapshot, error) { return unavailable() }}
	svc, _, _ := newService(gw)
	svc.SetOnline(true)

	_, err := svc.AddExpense(ctx, models.Expense{Amount: 10})
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Empty(t, gw.actions())
	assert.Empty(t, svc.Queue())
	assert.Empty(t, svc.Snapshot().Expenses)
}
