// Package services holds the data facade and the sync queue engine. The
// TripService owns the in-memory dataset snapshot and the pending-operation
// queue; the UI layer never mutates either directly.
package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/smolnikov/tripsync/internal/client/models"
	"github.com/smolnikov/tripsync/internal/client/stats"
	"github.com/smolnikov/tripsync/internal/common"
	"github.com/smolnikov/tripsync/internal/logging"
)

const actionGetData = "getData"

// Gateway is the slice of the remote gateway the service needs.
type Gateway interface {
	Call(ctx context.Context, action string, payload any, method string) (*models.Snapshot, error)
}

// StateRepository persists snapshot and queue (see repositories/state).
type StateRepository interface {
	Save(ctx context.Context, snap models.Snapshot, queue []models.QueueEntry) error
	Load(ctx context.Context) (models.Snapshot, []models.QueueEntry, error)
}

// AssetRepository is the binary asset cache (see repositories/assets).
type AssetRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Rename(ctx context.Context, oldKey, newKey string) error
}

// FetchFunc downloads an asset blob from the image host.
type FetchFunc func(ctx context.Context, url string) ([]byte, error)

type TripService struct {
	mu       sync.Mutex
	snapshot models.Snapshot
	queue    []models.QueueEntry

	store  StateRepository
	assets AssetRepository
	gw     Gateway
	fetch  FetchFunc
	log    logging.Logger

	online atomic.Bool
	drain  singleflight.Group

	subMu       sync.Mutex
	subscribers []func()

	now func() time.Time
}

func NewTripService(store StateRepository, assets AssetRepository, gw Gateway, fetch FetchFunc, log logging.Logger) *TripService {
	return &TripService{
		store:    store,
		assets:   assets,
		gw:       gw,
		fetch:    fetch,
		log:      log,
		snapshot: models.EmptySnapshot(),
		queue:    []models.QueueEntry{},
		now:      time.Now,
	}
}

// SetOnline records the current connectivity state, reported by the
// online-status watcher.
func (s *TripService) SetOnline(v bool) { s.online.Store(v) }

func (s *TripService) Online() bool { return s.online.Load() }

// Subscribe registers a callback invoked after every snapshot replacement.
// Callbacks must not call back into the service synchronously.
func (s *TripService) Subscribe(fn func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *TripService) notify() {
	s.subMu.Lock()
	subs := make([]func(), len(s.subscribers))
	copy(subs, s.subscribers)
	s.subMu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Snapshot returns a deep copy of the current dataset.
func (s *TripService) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// Queue returns a copy of the pending operations, in enqueue order.
func (s *TripService) Queue() []models.QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.QueueEntry, len(s.queue))
	copy(out, s.queue)
	return out
}

// IsPending reports whether any queued operation targets the record id.
func (s *TripService) IsPending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, qe := range s.queue {
		if qe.RecordID == id {
			return true
		}
	}
	return false
}

// Load restores the last saved snapshot and queue (fast path), then, when
// online, fetches the full dataset and replaces the snapshot wholesale.
// With no connectivity the local state alone is authoritative for the
// session, so Load never fails on gateway errors.
func (s *TripService) Load(ctx context.Context) error {
	snap, queue, err := s.store.Load(ctx)
	if err != nil && !errors.Is(err, common.ErrNothingStored) {
		s.log.Warn(ctx, "local load failed, starting empty", "err", err)
	}

	s.mu.Lock()
	s.snapshot = snap
	s.queue = queue
	s.mu.Unlock()
	s.notify()

	if !s.online.Load() {
		return nil
	}

	res, err := s.gw.Call(ctx, actionGetData, nil, http.MethodGet)
	if err != nil {
		s.log.Warn(ctx, "full reload failed, keeping local state", "err", err)
		return nil
	}
	s.applySnapshot(ctx, *res)
	return nil
}

// AddExpense applies the expense optimistically and dispatches or enqueues
// it. The assigned record id is returned.
func (s *TripService) AddExpense(ctx context.Context, e models.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("%w: %s", common.ErrValidation, err)
	}
	if e.ID == "" {
		e.ID = models.NewRecordID()
	}
	now := s.now()
	if e.Date == "" {
		e.Date = now.Format("2006-01-02")
	}
	if e.Time == "" {
		e.Time = now.Format("15:04")
	}

	s.mu.Lock()
	e.AmountTWD = stats.ConvertTWD(e.Amount, e.Currency, s.snapshot.Rates)
	s.snapshot.Expenses = append([]models.Expense{e}, s.snapshot.Expenses...)
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.notify()

	return e.ID, s.dispatchOrEnqueue(ctx, models.KindExpense, models.OpAdd, e.ID, e, "")
}

// EditExpense replaces the expense with the same id.
func (s *TripService) EditExpense(ctx context.Context, e models.Expense) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("%w: %s", common.ErrValidation, err)
	}

	s.mu.Lock()
	e.AmountTWD = stats.ConvertTWD(e.Amount, e.Currency, s.snapshot.Rates)
	found := false
	for i := range s.snapshot.Expenses {
		if s.snapshot.Expenses[i].ID == e.ID {
			s.snapshot.Expenses[i] = e
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("expense %s: %w", e.ID, common.ErrNotFound)
	}
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.notify()

	return s.dispatchOrEnqueue(ctx, models.KindExpense, models.OpEdit, e.ID, e, "")
}

// DeleteExpense removes the expense locally and either cancels its
// unconfirmed queued add or dispatches/enqueues a delete.
func (s *TripService) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	kept := s.snapshot.Expenses[:0:0]
	for _, e := range s.snapshot.Expenses {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	s.snapshot.Expenses = kept
	cancelled, orphaned := s.cancelQueuedLocked(models.KindExpense, id)
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.notify()
	s.dropAssets(ctx, orphaned)

	if cancelled {
		return nil
	}
	payload := models.DeleteRequest{ID: id, SheetName: models.SheetName(models.KindExpense)}
	return s.dispatchOrEnqueue(ctx, models.KindExpense, models.OpDelete, id, payload, "")
}

// AddItinerary applies the item optimistically; a non-nil image is cached
// under a pending key until the server confirms the record and assigns an
// asset id.
func (s *TripService) AddItinerary(ctx context.Context, it models.ItineraryItem, image []byte) (string, error) {
	if err := it.Validate(); err != nil {
		return "", fmt.Errorf("%w: %s", common.ErrValidation, err)
	}
	if it.ID == "" {
		it.ID = models.NewRecordID()
	}

	upload := models.ItineraryUpload{ItineraryItem: it}
	assetKey := ""
	if len(image) > 0 {
		assetKey = models.NewPendingAssetKey()
		if err := s.assets.Put(ctx, assetKey, image); err != nil {
			s.log.Warn(ctx, "image cache write failed", "key", assetKey, "err", err)
			assetKey = ""
		} else {
			upload.NewImageBase64 = base64.StdEncoding.EncodeToString(image)
		}
	}

	s.mu.Lock()
	s.snapshot.Itinerary = append(s.snapshot.Itinerary, it)
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.notify()

	return it.ID, s.dispatchOrEnqueue(ctx, models.KindItinerary, models.OpAdd, it.ID, upload, assetKey)
}

// EditItinerary replaces the item with the same id. A non-nil newImage is
// cached under a fresh pending key; removeImage clears the record's image
// and drops the cached blob.
func (s *TripService) EditItinerary(ctx context.Context, it models.ItineraryItem, newImage []byte, removeImage bool) error {
	if err := it.Validate(); err != nil {
		return fmt.Errorf("%w: %s", common.ErrValidation, err)
	}

	upload := models.ItineraryUpload{ItineraryItem: it, DeleteImage: removeImage}
	assetKey := ""
	if removeImage {
		if it.ImgID != "" {
			if err := s.assets.Delete(ctx, models.DriveAssetKey(it.ImgID)); err != nil {
				s.log.Warn(ctx, "image cache delete failed", "imgId", it.ImgID, "err", err)
			}
		}
		it.ImgURL = ""
		it.ImgID = ""
		upload.ItineraryItem = it
	} else if len(newImage) > 0 {
		assetKey = models.NewPendingAssetKey()
		if err := s.assets.Put(ctx, assetKey, newImage); err != nil {
			s.log.Warn(ctx, "image cache write failed", "key", assetKey, "err", err)
			assetKey = ""
		} else {
			upload.NewImageBase64 = base64.StdEncoding.EncodeToString(newImage)
		}
	}

	s.mu.Lock()
	found := false
	for i := range s.snapshot.Itinerary {
		if s.snapshot.Itinerary[i].ID == it.ID {
			s.snapshot.Itinerary[i] = it
			found = true
			break
		}
	}
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("itinerary %s: %w", it.ID, common.ErrNotFound)
	}
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.notify()

	return s.dispatchOrEnqueue(ctx, models.KindItinerary, models.OpEdit, it.ID, upload, assetKey)
}

// DeleteItinerary removes the item locally, drops its cached image, and
// either cancels the unconfirmed queued add or dispatches/enqueues a delete.
func (s *TripService) DeleteItinerary(ctx context.Context, id string) error {
	s.mu.Lock()
	imgID := ""
	kept := s.snapshot.Itinerary[:0:0]
	for _, it := range s.snapshot.Itinerary {
		if it.ID != id {
			kept = append(kept, it)
			continue
		}
		imgID = it.ImgID
	}
	s.snapshot.Itinerary = kept
	cancelled, orphaned := s.cancelQueuedLocked(models.KindItinerary, id)
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.notify()
	s.dropAssets(ctx, orphaned)

	if imgID != "" {
		if err := s.assets.Delete(ctx, models.DriveAssetKey(imgID)); err != nil {
			s.log.Warn(ctx, "image cache delete failed", "imgId", imgID, "err", err)
		}
	}

	if cancelled {
		return nil
	}
	payload := models.DeleteRequest{ID: id, SheetName: models.SheetName(models.KindItinerary)}
	return s.dispatchOrEnqueue(ctx, models.KindItinerary, models.OpDelete, id, payload, "")
}

// AttachImage attaches an image to an existing itinerary item, dispatching
// or enqueueing the resulting edit.
func (s *TripService) AttachImage(ctx context.Context, itemID string, blob []byte) error {
	it, err := s.itineraryByID(itemID)
	if err != nil {
		return err
	}
	return s.EditItinerary(ctx, it, blob, false)
}

// RemoveImage clears an itinerary item's image and drops the cached blob.
func (s *TripService) RemoveImage(ctx context.Context, itemID string) error {
	it, err := s.itineraryByID(itemID)
	if err != nil {
		return err
	}
	return s.EditItinerary(ctx, it, nil, true)
}

func (s *TripService) itineraryByID(id string) (models.ItineraryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.snapshot.Itinerary {
		if it.ID == id {
			return it, nil
		}
	}
	return models.ItineraryItem{}, fmt.Errorf("itinerary %s: %w", id, common.ErrNotFound)
}

// UpdateRates applies the exchange rates locally and pushes them to the
// server on a best-effort basis; rate updates are not queued.
func (s *TripService) UpdateRates(ctx context.Context, rates map[string]float64) error {
	s.mu.Lock()
	s.snapshot.Rates = make(map[string]float64, len(rates))
	for k, v := range rates {
		s.snapshot.Rates[k] = v
	}
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.notify()

	if !s.online.Load() {
		return nil
	}
	if _, err := s.gw.Call(ctx, "updateRates", rates, http.MethodPost); err != nil {
		s.log.Warn(ctx, "rates push failed", "err", err)
	}
	return nil
}

// PurgeQueue discards all pending operations (user-initiated). Cached blobs
// under pending keys lose their owner and are dropped with them.
func (s *TripService) PurgeQueue(ctx context.Context) {
	s.mu.Lock()
	var orphaned []string
	for _, qe := range s.queue {
		if qe.LocalAssetKey != "" {
			orphaned = append(orphaned, qe.LocalAssetKey)
		}
	}
	s.queue = []models.QueueEntry{}
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.notify()

	for _, key := range orphaned {
		if err := s.assets.Delete(ctx, key); err != nil {
			s.log.Warn(ctx, "image cache delete failed", "key", key, "err", err)
		}
	}
}

// Image returns the blob for an itinerary record: cache first (confirmed
// key, then a pending key owned by a queued operation on the record), then
// the network, caching the download for offline viewing.
func (s *TripService) Image(ctx context.Context, it models.ItineraryItem) ([]byte, error) {
	if it.ImgID != "" {
		if blob, err := s.assets.Get(ctx, models.DriveAssetKey(it.ImgID)); err == nil {
			return blob, nil
		}
	}

	s.mu.Lock()
	pendingKey := ""
	for _, qe := range s.queue {
		if qe.RecordID == it.ID && qe.LocalAssetKey != "" {
			pendingKey = qe.LocalAssetKey
		}
	}
	s.mu.Unlock()
	if pendingKey != "" {
		if blob, err := s.assets.Get(ctx, pendingKey); err == nil {
			return blob, nil
		}
	}

	if it.ImgURL == "" || s.fetch == nil || !s.online.Load() {
		return nil, fmt.Errorf("image for %s: %w", it.ID, common.ErrNotFound)
	}
	blob, err := s.fetch(ctx, it.ImgURL)
	if err != nil {
		return nil, fmt.Errorf("image for %s: %w", it.ID, common.ErrUnavailable)
	}
	if it.ImgID != "" {
		if err := s.assets.Put(ctx, models.DriveAssetKey(it.ImgID), blob); err != nil {
			s.log.Warn(ctx, "image cache write failed", "imgId", it.ImgID, "err", err)
		}
	}
	return blob, nil
}

// cancelQueuedLocked drops every queued operation for the record when its
// add has never been confirmed: the server has never seen the record, so a
// delete must not be sent. Reports whether a cancellation happened and
// returns the orphaned pending asset keys for the caller to drop after
// releasing the lock.
func (s *TripService) cancelQueuedLocked(kind models.Kind, id string) (bool, []string) {
	hasQueuedAdd := false
	for _, qe := range s.queue {
		if qe.Kind == kind && qe.RecordID == id && qe.Op == models.OpAdd {
			hasQueuedAdd = true
			break
		}
	}
	if !hasQueuedAdd {
		return false, nil
	}

	var orphaned []string
	kept := s.queue[:0:0]
	for _, qe := range s.queue {
		if qe.Kind == kind && qe.RecordID == id {
			if qe.LocalAssetKey != "" {
				orphaned = append(orphaned, qe.LocalAssetKey)
			}
			continue
		}
		kept = append(kept, qe)
	}
	s.queue = kept
	return true, orphaned
}

func (s *TripService) dropAssets(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.assets.Delete(ctx, key); err != nil {
			s.log.Warn(ctx, "image cache delete failed", "key", key, "err", err)
		}
	}
}

// dispatchOrEnqueue attempts a single direct dispatch when online and falls
// back to the queue, which stays the universal retry path.
func (s *TripService) dispatchOrEnqueue(ctx context.Context, kind models.Kind, op models.Op, recordID string, payload any, assetKey string) error {
	entry, err := models.NewQueueEntry(kind, op, recordID, payload)
	if err != nil {
		return fmt.Errorf("failed to build queue entry: %w", err)
	}
	entry.LocalAssetKey = assetKey

	if s.online.Load() {
		res, err := s.gw.Call(ctx, models.ActionName(kind, op), payload, http.MethodPost)
		if err == nil {
			s.reconcileAsset(ctx, entry, *res)
			s.applySnapshot(ctx, *res)
			return nil
		}
		s.log.Warn(ctx, "direct dispatch failed, queueing",
			"action", models.ActionName(kind, op), "recordId", recordID, "err", err)
	}

	s.mu.Lock()
	s.queue = append(s.queue, entry)
	s.persistLocked(ctx)
	s.mu.Unlock()
	return nil
}

// applySnapshot replaces the dataset wholesale with an authoritative server
// response, persists, notifies observers and hydrates the asset cache.
func (s *TripService) applySnapshot(ctx context.Context, snap models.Snapshot) {
	s.mu.Lock()
	s.snapshot = snap
	s.persistLocked(ctx)
	s.mu.Unlock()
	s.notify()
	s.hydrate(ctx)
}

// persistLocked saves snapshot and queue, swallowing failures: durability is
// best effort, the in-memory state stays authoritative for the session.
func (s *TripService) persistLocked(ctx context.Context) {
	if err := s.store.Save(ctx, s.snapshot, s.queue); err != nil {
		s.log.Warn(ctx, "local save failed", "err", err)
	}
}

// hydrate downloads and caches any confirmed record image not yet cached, so
// the latest confirmed state is viewable offline. Best effort.
func (s *TripService) hydrate(ctx context.Context) {
	if s.fetch == nil || !s.online.Load() {
		return
	}
	for _, it := range s.Snapshot().Itinerary {
		if it.ImgID == "" || it.ImgURL == "" {
			continue
		}
		key := models.DriveAssetKey(it.ImgID)
		ok, err := s.assets.Exists(ctx, key)
		if err != nil || ok {
			continue
		}
		blob, err := s.fetch(ctx, it.ImgURL)
		if err != nil {
			s.log.Debug(ctx, "asset hydration failed", "imgId", it.ImgID, "err", err)
			continue
		}
		if err := s.assets.Put(ctx, key, blob); err != nil {
			s.log.Warn(ctx, "image cache write failed", "imgId", it.ImgID, "err", err)
		}
	}
}
