package models

import "encoding/json"

// QueueEntry is an unconfirmed mutation awaiting replay against the server.
// RecordID duplicates the payload's id so the queue can be matched against
// records without decoding payloads.
type QueueEntry struct {
	Kind          Kind            `json:"kind"`
	Op            Op              `json:"op"`
	RecordID      string          `json:"recordId"`
	Payload       json.RawMessage `json:"payload"`
	LocalAssetKey string          `json:"localAssetKey,omitempty"`
}

// ItineraryUpload is the wire payload of addItinerary/editItinerary actions.
// NewImageBase64 carries a freshly attached image for the backend to store;
// DeleteImage asks it to drop the record's current image.
type ItineraryUpload struct {
	ItineraryItem
	NewImageBase64 string `json:"newImageBase64,omitempty"`
	DeleteImage    bool   `json:"deleteImage,omitempty"`
}

// DeleteRequest is the payload shape of a deleteRow action.
type DeleteRequest struct {
	ID        string `json:"id"`
	SheetName string `json:"sheetName"`
}

// NewQueueEntry marshals payload and wraps it into a queue entry.
func NewQueueEntry(kind Kind, op Op, recordID string, payload any) (QueueEntry, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return QueueEntry{}, err
	}
	return QueueEntry{Kind: kind, Op: op, RecordID: recordID, Payload: raw}, nil
}
