// Package cli implements the interactive trip sync console.
//
// The App wires the local database, the backend gateway and the TripService
// together, then runs a read-eval-print loop. A background watcher probes the
// gateway on a fixed interval and flips the app between online and offline
// modes; the offline-to-online transition triggers a drain of the pending
// operation queue.
//
// All data access goes through the TripService. The CLI layer only reads
// input, formats output and keeps a debounced cache of the spend statistics.
package cli
