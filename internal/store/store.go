// Package store exposes the household domain stores. Each store wraps one
// named collection or map of the shared replicated document with typed
// records and the operations the rest of the app is allowed to perform.
//
// All writes are fire-and-forget: they apply to the local document
// immediately and replicate in the background. Invalid operations (rotating
// a chore with no assignees, touching an id another device already deleted)
// are silent no-ops; a stale snapshot racing a concurrent edit is a normal
// condition, not an error.
package store

import (
	"encoding/json"
	"log/slog"
	"time"
)

// Root collection and map names within the shared document.
const (
	choresCollection      = "chores"
	billsCollection       = "bills"
	shoppingCollection    = "shoppingList"
	calendarCollection    = "calendar"
	wellnessCollection    = "wellness"
	messagesCollection    = "messages"
	infinityLogCollection = "infinityLog"
	completionsCollection = "completions"
	usersMap              = "users"
)

// decodeRecords unmarshals a snapshot's raw values, skipping records that
// fail to parse. A malformed record written by a buggy or newer peer must
// not take the rest of the collection down with it.
func decodeRecords[T any](raws [][]byte, logger *slog.Logger, collection string) []T {
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			logger.Warn("skipping malformed record", "collection", collection, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}

// mustJSON marshals a record for storage. Records are plain structs of
// encodable fields, so failure indicates a programming error.
func mustJSON(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

func defaultClock() time.Time { return time.Now() }

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
