// Package cache keeps scope-keyed copies of client collections (orders,
// carts) in the local slot store.
//
// Every scope has a primary slot and a mirrored backup slot. Writes go to
// both; reads fall back to the backup and repair the primary from it. The
// cache is never authoritative, so storage failures are logged and reported
// but callers are free to ignore them.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/ordersync/internal/client/scope"
	"github.com/dmitrijs2005/ordersync/internal/logging"
)

// SchemaVersion is written into every entry. Entries carrying another
// version are treated as unreadable.
const SchemaVersion = 1

const backupSuffix = "#backup"

var ErrSaveFailed = errors.New("cache write failed")

// Store is the raw slot storage under the cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// State tells callers how a Load was satisfied.
type State int

const (
	// Missing: neither slot held a readable entry; the payload is zero.
	Missing State = iota
	Fresh
	// Repaired: the primary was unreadable and was rewritten from the backup.
	Repaired
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Repaired:
		return "repaired"
	default:
		return "missing"
	}
}

type Entry[T any] struct {
	Payload       T         `json:"payload"`
	CapturedAt    time.Time `json:"capturedAt"`
	ScopeKey      string    `json:"scopeKey"`
	SchemaVersion int       `json:"schemaVersion"`
}

type Cache[T any] struct {
	store      Store
	collection string
	log        logging.Logger
	now        func() time.Time
}

func New[T any](store Store, collection string, log logging.Logger) *Cache[T] {
	return &Cache[T]{
		store:      store,
		collection: collection,
		log:        log.With("module", "cache", "collection", collection),
		now:        time.Now,
	}
}

func (c *Cache[T]) primary(key scope.Key) string {
	return c.collection + "/" + key.String()
}

func (c *Cache[T]) backup(key scope.Key) string {
	return c.primary(key) + backupSuffix
}

// Save writes payload to the primary and backup slots of key. On failure it
// evicts the backup and tries once more.
func (c *Cache[T]) Save(ctx context.Context, key scope.Key, payload T) error {
	raw, err := json.Marshal(Entry[T]{
		Payload:       payload,
		CapturedAt:    c.now().UTC(),
		ScopeKey:      key.String(),
		SchemaVersion: SchemaVersion,
	})
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrSaveFailed, c.primary(key), err)
	}

	err = c.write(ctx, key, raw)
	if err == nil {
		return nil
	}

	c.log.Warn(ctx, "cache write failed, evicting backup and retrying", "scope", key.String(), "error", err)
	if derr := c.store.Delete(ctx, c.backup(key)); derr != nil {
		c.log.Warn(ctx, "backup eviction failed", "scope", key.String(), "error", derr)
	}

	if err = c.write(ctx, key, raw); err != nil {
		c.log.Error(ctx, "cache write dropped", "scope", key.String(), "error", err)
		return fmt.Errorf("%w: %s: %w", ErrSaveFailed, c.primary(key), err)
	}
	return nil
}

func (c *Cache[T]) write(ctx context.Context, key scope.Key, raw []byte) error {
	if err := c.store.Set(ctx, c.primary(key), raw); err != nil {
		return err
	}
	return c.store.Set(ctx, c.backup(key), raw)
}

// Load returns the payload stored for key. The zero payload comes back only
// with state Missing.
func (c *Cache[T]) Load(ctx context.Context, key scope.Key) (T, State) {
	e, st := c.LoadEntry(ctx, key)
	return e.Payload, st
}

// LoadEntry is Load with the entry metadata, so callers can tell a cached
// empty collection from one that was never fetched.
func (c *Cache[T]) LoadEntry(ctx context.Context, key scope.Key) (Entry[T], State) {
	if e, _, err := c.read(ctx, key, c.primary(key)); err == nil {
		return e, Fresh
	} else if !errors.Is(err, errAbsent) {
		c.log.Warn(ctx, "primary cache slot unreadable", "scope", key.String(), "error", err)
	}

	e, raw, err := c.read(ctx, key, c.backup(key))
	if err != nil {
		if !errors.Is(err, errAbsent) {
			c.log.Warn(ctx, "backup cache slot unreadable", "scope", key.String(), "error", err)
		}
		return Entry[T]{}, Missing
	}

	if err := c.store.Set(ctx, c.primary(key), raw); err != nil {
		c.log.Warn(ctx, "primary repair failed", "scope", key.String(), "error", err)
	} else {
		c.log.Info(ctx, "primary cache slot repaired from backup", "scope", key.String())
	}
	return e, Repaired
}

var errAbsent = errors.New("slot empty")

func (c *Cache[T]) read(ctx context.Context, key scope.Key, slot string) (Entry[T], []byte, error) {
	raw, err := c.store.Get(ctx, slot)
	if err != nil {
		return Entry[T]{}, nil, err
	}
	if len(raw) == 0 {
		return Entry[T]{}, nil, errAbsent
	}

	var e Entry[T]
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry[T]{}, nil, fmt.Errorf("decode %s: %w", slot, err)
	}
	if e.SchemaVersion != SchemaVersion {
		return Entry[T]{}, nil, fmt.Errorf("%s: schema version %d, want %d", slot, e.SchemaVersion, SchemaVersion)
	}
	if e.ScopeKey != key.String() {
		return Entry[T]{}, nil, fmt.Errorf("%s: entry belongs to scope %q", slot, e.ScopeKey)
	}
	return e, raw, nil
}

// Remove deletes both slots of key.
func (c *Cache[T]) Remove(ctx context.Context, key scope.Key) error {
	return errors.Join(
		c.store.Delete(ctx, c.primary(key)),
		c.store.Delete(ctx, c.backup(key)),
	)
}

// Scopes lists the scopes that hold a primary or backup slot for this
// collection.
func (c *Cache[T]) Scopes(ctx context.Context) ([]scope.Key, error) {
	prefix := c.collection + "/"
	slots, err := c.store.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s scopes: %w", c.collection, err)
	}

	seen := make(map[scope.Key]bool, len(slots))
	var keys []scope.Key
	for _, slot := range slots {
		name := strings.TrimSuffix(strings.TrimPrefix(slot, prefix), backupSuffix)
		key, err := scope.Parse(name)
		if err != nil {
			c.log.Debug(ctx, "skipping foreign slot", "slot", slot)
			continue
		}
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys, nil
}
