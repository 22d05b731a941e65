package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"badminton-scoring/internal/models"
)

// Store is the typed record layer over a KeyValueStore. Every key holds one
// JSON document: a single match or team match, or an array of them.
//
// Reads never fail. A missing or unreadable key resolves to its empty
// default and the problem is logged. Writes return the backend error, and
// list rewrites give up when the list cannot be read first. A list element
// that does not decode is hidden from reads but kept on rewrite.
type Store struct {
	mu    sync.Mutex
	kv    KeyValueStore
	now   func() time.Time
	newID func() string
	log   logrus.FieldLogger
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.log = l }
}

func New(kv KeyValueStore, opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		now:   time.Now,
		newID: uuid.NewString,
		log:   logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "store")
	return s
}

// Close releases the underlying backend.
func (s *Store) Close() error {
	return s.kv.Close()
}

// load decodes key into v and reports whether a value was found.
func (s *Store) load(ctx context.Context, key string, v any) bool {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("read failed, using default")
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("skipping corrupt record, using default")
		return false
	}
	return true
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.kv.Set(ctx, key, data)
}

// Current match

func (s *Store) SaveCurrentMatch(ctx context.Context, m models.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, KeyCurrentMatch, m)
}

// CurrentMatch returns the saved live match, or nil.
func (s *Store) CurrentMatch(ctx context.Context) *models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()

	var m *models.Match
	if !s.load(ctx, KeyCurrentMatch, &m) {
		return nil
	}
	return m
}

func (s *Store) ClearCurrentMatch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Delete(ctx, KeyCurrentMatch)
}

// Current team match

func (s *Store) SaveCurrentTeamMatch(ctx context.Context, t models.TeamMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, KeyCurrentTeamMatch, t)
}

// CurrentTeamMatch returns the saved in-flight series, or nil.
func (s *Store) CurrentTeamMatch(ctx context.Context) *models.TeamMatch {
	s.mu.Lock()
	defer s.mu.Unlock()

	var t *models.TeamMatch
	if !s.load(ctx, KeyCurrentTeamMatch, &t) {
		return nil
	}
	return t
}

func (s *Store) ClearCurrentTeamMatch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Delete(ctx, KeyCurrentTeamMatch)
}

// Match history

// AppendMatch stamps m with a fresh id and the current time and adds it
// to the quick-match history. The stored record is returned.
func (s *Store) AppendMatch(ctx context.Context, m models.Match) (models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.listForUpdate(ctx, KeyMatchHistory)
	if err != nil {
		return models.Match{}, err
	}
	rec := m.Clone()
	rec.ID = s.newID()
	rec.Date = s.now()
	if raw, err = appendRecord(raw, rec); err != nil {
		return models.Match{}, err
	}
	if err := s.save(ctx, KeyMatchHistory, raw); err != nil {
		return models.Match{}, err
	}
	return rec, nil
}

// MatchHistory returns quick matches in the order they were saved.
func (s *Store) MatchHistory(ctx context.Context) []models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matches(ctx)
}

// RemoveMatch deletes the history record with id. It reports false when
// no record matched.
func (s *Store) RemoveMatch(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.listForUpdate(ctx, KeyMatchHistory)
	if err != nil {
		return false, err
	}
	kept, removed := removeRecord(raw, id, func(m models.Match) string { return m.ID })
	if !removed {
		return false, nil
	}
	return true, s.save(ctx, KeyMatchHistory, kept)
}

func (s *Store) matches(ctx context.Context) []models.Match {
	return decodeList[models.Match](s.log, KeyMatchHistory, s.listForRead(ctx, KeyMatchHistory))
}

// Team history

// AppendTeamMatch records a finished (or abandoned) series with a fresh id
// and SavedAt stamp.
func (s *Store) AppendTeamMatch(ctx context.Context, t models.TeamMatch) (models.TeamMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.listForUpdate(ctx, KeyTeamMatchHistory)
	if err != nil {
		return models.TeamMatch{}, err
	}
	rec := t.Clone()
	rec.ID = s.newID()
	rec.SavedAt = s.now()
	rec.CurrentMatchIndex = nil
	if raw, err = appendRecord(raw, rec); err != nil {
		return models.TeamMatch{}, err
	}
	if err := s.save(ctx, KeyTeamMatchHistory, raw); err != nil {
		return models.TeamMatch{}, err
	}
	return rec, nil
}

func (s *Store) TeamMatchHistory(ctx context.Context) []models.TeamMatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teamMatches(ctx, KeyTeamMatchHistory)
}

func (s *Store) RemoveTeamMatch(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeTeamMatch(ctx, KeyTeamMatchHistory, id)
}

// Drafts

// UpsertDraft replaces the draft with the same id, or appends t when the
// id is empty or unknown. LastModified is stamped either way.
func (s *Store) UpsertDraft(ctx context.Context, t models.TeamMatch) (models.TeamMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.listForUpdate(ctx, KeyDrafts)
	if err != nil {
		return models.TeamMatch{}, err
	}
	rec := t.Clone()
	if rec.ID == "" {
		rec.ID = s.newID()
	}
	rec.LastModified = s.now()
	data, err := json.Marshal(rec)
	if err != nil {
		return models.TeamMatch{}, fmt.Errorf("encoding draft: %w", err)
	}

	replaced := false
	for i, elem := range raw {
		var d models.TeamMatch
		if json.Unmarshal(elem, &d) == nil && d.ID == rec.ID {
			raw[i] = data
			replaced = true
			break
		}
	}
	if !replaced {
		raw = append(raw, data)
	}

	if err := s.save(ctx, KeyDrafts, raw); err != nil {
		return models.TeamMatch{}, err
	}
	s.log.WithFields(logrus.Fields{"id": rec.ID, "replaced": replaced}).Debug("draft saved")
	return rec, nil
}

func (s *Store) Drafts(ctx context.Context) []models.TeamMatch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teamMatches(ctx, KeyDrafts)
}

func (s *Store) Draft(ctx context.Context, id string) (models.TeamMatch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.teamMatches(ctx, KeyDrafts) {
		if d.ID == id {
			return d, true
		}
	}
	return models.TeamMatch{}, false
}

func (s *Store) DeleteDraft(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeTeamMatch(ctx, KeyDrafts, id)
}

func (s *Store) teamMatches(ctx context.Context, key string) []models.TeamMatch {
	return decodeList[models.TeamMatch](s.log, key, s.listForRead(ctx, key))
}

func (s *Store) removeTeamMatch(ctx context.Context, key, id string) (bool, error) {
	raw, err := s.listForUpdate(ctx, key)
	if err != nil {
		return false, err
	}
	kept, removed := removeRecord(raw, id, func(t models.TeamMatch) string { return t.ID })
	if !removed {
		return false, nil
	}
	return true, s.save(ctx, key, kept)
}

// Lists

var errNotAList = errors.New("value is not a JSON array")

// rawList reads key as a JSON array without decoding its elements.
func (s *Store) rawList(ctx context.Context, key string) ([]json.RawMessage, error) {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errNotAList, key, err)
	}
	return list, nil
}

// listForRead never fails: any problem yields an empty list.
func (s *Store) listForRead(ctx context.Context, key string) []json.RawMessage {
	list, err := s.rawList(ctx, key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("read failed, using default")
		return nil
	}
	return list
}

// listForUpdate reads key ahead of a rewrite. Backend errors abort the
// write. A value that is not an array at all holds no records and is
// replaced.
func (s *Store) listForUpdate(ctx context.Context, key string) ([]json.RawMessage, error) {
	list, err := s.rawList(ctx, key)
	if errors.Is(err, errNotAList) {
		s.log.WithError(err).WithField("key", key).Warn("replacing unreadable list")
		return nil, nil
	}
	return list, err
}

// decodeList decodes each element on its own so one bad record does not
// hide the rest.
func decodeList[T any](log logrus.FieldLogger, key string, raw []json.RawMessage) []T {
	out := make([]T, 0, len(raw))
	for i, elem := range raw {
		var v T
		if err := json.Unmarshal(elem, &v); err != nil {
			log.WithError(err).WithFields(logrus.Fields{"key": key, "index": i}).Warn("skipping corrupt record")
			continue // skip corrupt records
		}
		out = append(out, v)
	}
	return out
}

func appendRecord(raw []json.RawMessage, v any) ([]json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return append(raw, data), nil
}

// removeRecord drops every element whose id matches. Elements that do not
// decode are kept as stored.
func removeRecord[T any](raw []json.RawMessage, id string, idOf func(T) string) ([]json.RawMessage, bool) {
	kept := make([]json.RawMessage, 0, len(raw))
	for _, elem := range raw {
		var v T
		if json.Unmarshal(elem, &v) == nil && idOf(v) == id {
			continue
		}
		kept = append(kept, elem)
	}
	return kept, len(kept) != len(raw)
}
