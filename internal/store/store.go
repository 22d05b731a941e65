package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KeyValueStore.Get for a key that was never
// set or has been deleted.
var ErrNotFound = errors.New("key not found")

// KeyValueStore is durable blob storage addressed by string key.
// Implementations can back this with memory, files, SQLite, Redis,
// MongoDB, Firestore or any other provider.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keys used by the record store. The names match what earlier clients
// wrote, so existing data loads unchanged.
const (
	KeyCurrentMatch     = "badminton_current_match"
	KeyCurrentTeamMatch = "badminton_current_team_match"
	KeyMatchHistory     = "badminton_match_history"
	KeyTeamMatchHistory = "badminton_team_match_history"
	KeyDrafts           = "badminton_saved_configs"
)

// AllKeys lists every key the record store writes.
var AllKeys = []string{
	KeyCurrentMatch,
	KeyCurrentTeamMatch,
	KeyMatchHistory,
	KeyTeamMatchHistory,
	KeyDrafts,
}
