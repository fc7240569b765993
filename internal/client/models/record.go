// Package models defines the trip dataset records, the dataset snapshot and
// the pending-operation queue entry shared by the store, gateway and services.
package models

import "github.com/google/uuid"

// Kind identifies which collection of the dataset a record belongs to.
type Kind string

const (
	KindItinerary Kind = "itin"
	KindExpense   Kind = "expense"
)

// Op is a mutation verb applied to a record.
type Op string

const (
	OpAdd    Op = "add"
	OpEdit   Op = "edit"
	OpDelete Op = "delete"
)

// ActionName translates a (kind, op) pair into the backend action name.
// Deletes always map to the single generic "deleteRow" action; add and edit
// map to kind-specific names such as "addItinerary" or "editExpense".
func ActionName(kind Kind, op Op) string {
	if op == OpDelete {
		return "deleteRow"
	}
	suffix := "Expense"
	if kind == KindItinerary {
		suffix = "Itinerary"
	}
	return string(op) + suffix
}

// SheetName returns the backend sheet a kind maps to, carried in delete
// payloads.
func SheetName(kind Kind) string {
	if kind == KindItinerary {
		return "Itinerary"
	}
	return "Expenses"
}

// Asset cache key namespaces. Server-confirmed assets live under "drive:",
// keyed by the server-assigned asset id. Images attached to records that have
// not been confirmed yet live under locally generated "pending:" keys until
// reconciliation promotes them.
const (
	assetPrefixDrive   = "drive:"
	assetPrefixPending = "pending:"
)

// DriveAssetKey returns the cache key for a server-confirmed asset id.
func DriveAssetKey(imgID string) string {
	return assetPrefixDrive + imgID
}

// NewPendingAssetKey returns a fresh cache key for a not-yet-synced upload.
func NewPendingAssetKey() string {
	return assetPrefixPending + uuid.NewString()
}

// NewRecordID returns a globally unique record identifier. Once assigned the
// id is immutable and is the sole key used to match a record across local
// state, the sync queue and server responses.
func NewRecordID() string {
	return uuid.NewString()
}
