// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// drafts.go keeps the template editor state in Valkey. Every builder action
// is one read-modify-write of the session's draft, serialized per session so
// two quick clicks cannot overwrite each other.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"safecheck/internal/structure"
)

const (
	// draftKeyPrefix is the Valkey key prefix for builder drafts.
	draftKeyPrefix = "draft:"

	// DefaultDraftTTL is how long an untouched draft is kept.
	DefaultDraftTTL = 2 * time.Hour

	// NewDraftKey identifies the draft of a template being created.
	NewDraftKey = "new"
)

// ErrNoDraft is returned when the session has no draft under the key.
var ErrNoDraft = errors.New("cache: draft not found")

// Draft is the editor state of one template: its metadata form fields and
// the section tree being built.
type Draft struct {
	TemplateID  string              `json:"template_id,omitempty"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Type        string              `json:"type"`
	CategoryID  string              `json:"category_id"`
	Sections    []structure.Section `json:"sections"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// DraftStore manages builder drafts in Valkey.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewDraftStore creates a draft store backed by the given Valkey client.
func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	if ttl == 0 {
		ttl = DefaultDraftTTL
	}
	return &DraftStore{client: client, ttl: ttl, locks: make(map[string]*sessionLock)}
}

func draftKey(sessionID, key string) string {
	return draftKeyPrefix + sessionID + ":" + key
}

// Get returns the draft stored under key for the session, or nil on miss.
func (ds *DraftStore) Get(ctx context.Context, sessionID, key string) (*Draft, error) {
	val, err := ds.client.Get(ctx, draftKey(sessionID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("draft get: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(val, &d); err != nil {
		return nil, fmt.Errorf("draft unmarshal: %w", err)
	}
	return &d, nil
}

// Put stores d under key for the session, replacing any existing draft.
func (ds *DraftStore) Put(ctx context.Context, sessionID, key string, d *Draft) error {
	unlock := ds.lock(sessionID)
	defer unlock()
	return ds.put(ctx, sessionID, key, d)
}

func (ds *DraftStore) put(ctx context.Context, sessionID, key string, d *Draft) error {
	d.UpdatedAt = time.Now()
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("draft marshal: %w", err)
	}
	if err := ds.client.Set(ctx, draftKey(sessionID, key), payload, ds.ttl).Err(); err != nil {
		return fmt.Errorf("draft set: %w", err)
	}
	return nil
}

// Update loads the draft, applies fn and stores the result. When fn fails the
// stored draft is left untouched and the loaded draft is returned along with
// fn's error, so the caller can re-render the unchanged state.
func (ds *DraftStore) Update(ctx context.Context, sessionID, key string, fn func(*Draft) error) (*Draft, error) {
	unlock := ds.lock(sessionID)
	defer unlock()

	d, err := ds.Get(ctx, sessionID, key)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNoDraft
	}

	next := *d
	next.Sections = structure.CloneSections(d.Sections)
	if err := fn(&next); err != nil {
		return d, err
	}
	if err := ds.put(ctx, sessionID, key, &next); err != nil {
		return d, err
	}
	return &next, nil
}

// Submit runs fn on the draft while holding the session lock and deletes the
// draft when fn succeeds. Concurrent submissions of the same session run one
// after another; the second finds no draft and gets ErrNoDraft.
func (ds *DraftStore) Submit(ctx context.Context, sessionID, key string, fn func(*Draft) error) error {
	unlock := ds.lock(sessionID)
	defer unlock()

	d, err := ds.Get(ctx, sessionID, key)
	if err != nil {
		return err
	}
	if d == nil {
		return ErrNoDraft
	}
	if err := fn(d); err != nil {
		return err
	}
	ds.delete(ctx, sessionID, key)
	return nil
}

// Delete removes a draft.
func (ds *DraftStore) Delete(ctx context.Context, sessionID, key string) {
	unlock := ds.lock(sessionID)
	defer unlock()
	ds.delete(ctx, sessionID, key)
}

func (ds *DraftStore) delete(ctx context.Context, sessionID, key string) {
	if err := ds.client.Del(ctx, draftKey(sessionID, key)).Err(); err != nil {
		slog.Warn("draft delete error", "key", key, "error", err)
	}
}

// DeleteSession removes every draft of a session, e.g. on logout.
func (ds *DraftStore) DeleteSession(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := ds.client.Scan(ctx, cursor, draftKeyPrefix+sessionID+":*", 100).Result()
		if err != nil {
			slog.Warn("draft scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := ds.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("draft bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("session drafts cleared", "deleted", deleted)
	}
}

// lock serializes draft writes of one session and returns the release func.
func (ds *DraftStore) lock(sessionID string) func() {
	ds.mu.Lock()
	l, ok := ds.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		ds.locks[sessionID] = l
	}
	l.refs++
	ds.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		ds.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(ds.locks, sessionID)
		}
		ds.mu.Unlock()
	}
}
