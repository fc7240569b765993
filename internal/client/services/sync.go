package services

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/smolnikov/tripsync/internal/client/models"
)

// DrainOnce replays the pending queue once. Concurrent callers (a
// connectivity-restored event racing a manual sync) collapse into a single
// effective pass via singleflight. A pass is a no-op when offline or when
// the queue is empty.
//
// Entries replay in enqueue order. A confirmed entry is dropped before the
// next drain can ever see it; a failed entry is kept, preserving its
// relative order among kept entries. When the pass empties the queue, a
// fresh full reload confirms local state matches the server.
//
// The queue may change while a pass is suspended in a gateway call: a
// delete can cancel a queued add, a purge can clear everything, new
// operations can append. The end-of-pass rewrite therefore removes only the
// confirmed entries from the live queue instead of reconstructing it from
// the pre-pass copy, so concurrent removals stay removed.
func (s *TripService) DrainOnce(ctx context.Context) error {
	_, err, _ := s.drain.Do("drain", func() (any, error) {
		return nil, s.drainOnce(ctx)
	})
	return err
}

func (s *TripService) drainOnce(ctx context.Context) error {
	if !s.online.Load() {
		return nil
	}

	s.mu.Lock()
	if len(s.queue) == 0 {
		s.mu.Unlock()
		return nil
	}
	pending := make([]models.QueueEntry, len(s.queue))
	copy(pending, s.queue)
	s.mu.Unlock()

	var confirmed []models.QueueEntry
	for _, qe := range pending {
		action := models.ActionName(qe.Kind, qe.Op)
		res, err := s.gw.Call(ctx, action, json.RawMessage(qe.Payload), http.MethodPost)
		if err != nil {
			s.log.Warn(ctx, "replay failed, keeping entry",
				"action", action, "recordId", qe.RecordID, "err", err)
			continue
		}
		s.reconcileAsset(ctx, qe, *res)
		s.applySnapshot(ctx, *res)
		confirmed = append(confirmed, qe)
	}

	confirmedCount := len(confirmed)

	s.mu.Lock()
	// Remove exactly the confirmed entries from the live queue. Entries
	// cancelled or purged mid-pass are already gone and must stay gone;
	// entries enqueued mid-pass sit at the end and are untouched.
	remaining := s.queue[:0:0]
	for _, qe := range s.queue {
		if i := indexOfEntry(confirmed, qe); i >= 0 {
			confirmed = append(confirmed[:i], confirmed[i+1:]...)
			continue
		}
		remaining = append(remaining, qe)
	}
	s.queue = remaining
	s.persistLocked(ctx)
	kept := len(s.queue)
	empty := kept == 0
	s.mu.Unlock()
	s.notify()

	s.log.Info(ctx, "queue drained", "confirmed", confirmedCount, "kept", kept)

	if empty {
		res, err := s.gw.Call(ctx, actionGetData, nil, http.MethodGet)
		if err != nil {
			s.log.Warn(ctx, "post-drain reload failed", "err", err)
			return nil
		}
		s.applySnapshot(ctx, *res)
	}
	return nil
}

// indexOfEntry returns the position of the first entry in entries equal to
// qe, or -1. Payload bytes participate so two distinct edits of the same
// record never collapse into one.
func indexOfEntry(entries []models.QueueEntry, qe models.QueueEntry) int {
	for i, e := range entries {
		if e.Kind == qe.Kind && e.Op == qe.Op && e.RecordID == qe.RecordID &&
			e.LocalAssetKey == qe.LocalAssetKey && bytes.Equal(e.Payload, qe.Payload) {
			return i
		}
	}
	return -1
}

// reconcileAsset promotes a pending image cache entry to its server-assigned
// key once the record it belongs to has been confirmed. Best effort: an
// unmatched record leaves the pending entry in place.
func (s *TripService) reconcileAsset(ctx context.Context, qe models.QueueEntry, snap models.Snapshot) {
	if qe.Kind != models.KindItinerary || qe.Op == models.OpDelete || qe.LocalAssetKey == "" {
		return
	}

	var upload models.ItineraryUpload
	if err := json.Unmarshal(qe.Payload, &upload); err != nil {
		s.log.Warn(ctx, "reconciliation payload unreadable", "recordId", qe.RecordID, "err", err)
		return
	}

	confirmed, rule, ok := matchItinerary(snap.Itinerary, upload.ItineraryItem)
	if !ok {
		s.log.Warn(ctx, "image reconciliation unmatched",
			"recordId", qe.RecordID, "title", upload.Title, "pendingKey", qe.LocalAssetKey)
		return
	}
	if confirmed.ImgID == "" {
		s.log.Warn(ctx, "confirmed record has no asset id",
			"recordId", qe.RecordID, "title", upload.Title)
		return
	}

	if err := s.assets.Rename(ctx, qe.LocalAssetKey, models.DriveAssetKey(confirmed.ImgID)); err != nil {
		s.log.Warn(ctx, "image promotion failed",
			"pendingKey", qe.LocalAssetKey, "imgId", confirmed.ImgID, "err", err)
		return
	}
	s.log.Debug(ctx, "image reconciled",
		"pendingKey", qe.LocalAssetKey, "imgId", confirmed.ImgID, "rule", rule)
}
