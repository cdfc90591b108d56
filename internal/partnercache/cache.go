package partnercache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/partner"
)

const (
	// DefaultCapacity is the maximum number of cached partner entries (spec §4.1).
	DefaultCapacity = 100
	// DefaultTTL is how long an entry stays valid after being written (spec §4.1).
	DefaultTTL = 30 * time.Minute
)

type entry struct {
	key       string
	value     partner.Record
	prev      *entry
	next      *entry
	expiresAt time.Time
}

// Cache is a bounded, TTL-expiring, cache-through store of partner.Record
// keyed by partner id. It uses a doubly-linked list for O(1) LRU ordering
// and a map for O(1) lookup, mirroring tomtom215-cartographus's LRUCache.
type Cache struct {
	mu sync.Mutex
	// writeMu serializes Create/Update/Disable/Refresh with respect to one
	// another (spec §4.1) without blocking concurrent Get/ActivePartners reads.
	writeMu sync.Mutex

	capacity int
	ttl      time.Duration
	repo     Repository
	logger   *slog.Logger

	items map[string]*entry
	head  *entry
	tail  *entry

	// active holds the ids currently known to be active, refreshed wholesale
	// by Refresh/preload and invalidated piecemeal by Create/Update/Disable.
	activeLoaded bool
	activeIDs    []string
}

// New creates a Cache backed by repo. Capacity and ttl fall back to the
// spec §4.1 defaults when non-positive.
func New(repo Repository, capacity int, ttl time.Duration, logger *slog.Logger) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Cache{
		capacity: capacity,
		ttl:      ttl,
		repo:     repo,
		logger:   logger,
		items:    make(map[string]*entry, capacity),
		head:     &entry{},
		tail:     &entry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Preload populates the cache with every active partner from the
// repository, so ActivePartners is correct on the first request. Repository
// errors are logged; the cache keeps whatever it held before (empty at
// first boot).
func (c *Cache) Preload(ctx context.Context) {
	c.Refresh(ctx)
}

// ActivePartners returns a point-in-time copy of every active partner
// known to the cache. Order is stable within a single snapshot but
// otherwise unspecified.
func (c *Cache) ActivePartners() []partner.Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]partner.Record, 0, len(c.activeIDs))
	now := time.Now()
	for _, id := range c.activeIDs {
		if e, ok := c.items[id]; ok && now.Before(e.expiresAt) {
			out = append(out, e.value)
		}
	}
	return out
}

// Get returns the partner for id, consulting the repository on a miss
// (cache-through). found is false when the partner does not exist, is
// disabled, or the repository errored — repository errors never surface
// as exceptions through this path (spec §4.1).
func (c *Cache) Get(ctx context.Context, id string) (partner.Record, bool) {
	c.mu.Lock()
	if e, ok := c.items[id]; ok {
		if time.Now().Before(e.expiresAt) {
			c.moveToFront(e)
			rec := e.value
			c.mu.Unlock()
			return rec, true
		}
		c.removeEntry(e)
	}
	c.mu.Unlock()

	rec, found, err := c.repo.FindByIDAndEnabled(ctx, id)
	if err != nil {
		c.logger.Error("partner cache miss: repository lookup failed",
			slog.String("partner_id", id), slog.Any("error", err))
		return partner.Record{}, false
	}
	if !found {
		return partner.Record{}, false
	}

	c.mu.Lock()
	c.putLocked(id, rec)
	c.mu.Unlock()
	return rec, true
}

// Create writes entity through to the repository, then performs a full
// refresh so ActivePartners reflects the new entry immediately.
func (c *Cache) Create(ctx context.Context, rec partner.Record) (partner.Record, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	stored, err := c.repo.Save(ctx, rec)
	if err != nil {
		return partner.Record{}, err
	}
	c.refreshLocked(ctx)
	return stored, nil
}

// Update writes entity through to the repository, then invalidates its
// single cached entry so the next Get or Refresh reloads it.
func (c *Cache) Update(ctx context.Context, rec partner.Record) (partner.Record, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	stored, err := c.repo.Save(ctx, rec)
	if err != nil {
		return partner.Record{}, err
	}

	c.mu.Lock()
	if e, ok := c.items[rec.ID]; ok {
		c.removeEntry(e)
	}
	c.removeFromActiveLocked(rec.ID)
	if stored.Enabled {
		c.activeIDs = append(c.activeIDs, stored.ID)
	}
	c.mu.Unlock()

	return stored, nil
}

// Disable writes through to the repository, then invalidates the single
// cached entry for id.
func (c *Cache) Disable(ctx context.Context, id string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.repo.SetEnabled(ctx, id, false); err != nil {
		return err
	}

	c.mu.Lock()
	if e, ok := c.items[id]; ok {
		c.removeEntry(e)
	}
	c.removeFromActiveLocked(id)
	c.mu.Unlock()
	return nil
}

// Refresh invalidates every cached entry and repopulates ActivePartners
// from the repository's active-partners query. Repository errors are
// logged and leave the cache with whatever was previously loaded.
func (c *Cache) Refresh(ctx context.Context) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.refreshLocked(ctx)
}

// refreshLocked performs the refresh body; callers must hold writeMu.
func (c *Cache) refreshLocked(ctx context.Context) {
	recs, err := c.repo.FindActive(ctx)
	if err != nil {
		c.logger.Error("partner cache refresh failed", slog.Any("error", err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*entry, c.capacity)
	c.head.next = c.tail
	c.tail.prev = c.head
	c.activeIDs = c.activeIDs[:0]

	for _, rec := range recs {
		c.putLocked(rec.ID, rec)
		c.activeIDs = append(c.activeIDs, rec.ID)
	}
	c.activeLoaded = true
}

func (c *Cache) removeFromActiveLocked(id string) {
	for i, existing := range c.activeIDs {
		if existing == id {
			c.activeIDs = append(c.activeIDs[:i], c.activeIDs[i+1:]...)
			return
		}
	}
}

func (c *Cache) putLocked(id string, rec partner.Record) {
	now := time.Now()
	expiresAt := now.Add(c.ttl)

	if e, ok := c.items[id]; ok {
		e.value = rec
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: id, value: rec, expiresAt: expiresAt}
	c.addToFront(e)
	c.items[id] = e

	for len(c.items) > c.capacity {
		c.evictOldest()
	}
}

func (c *Cache) addToFront(e *entry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *Cache) moveToFront(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	c.addToFront(e)
}

func (c *Cache) removeEntry(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	delete(c.items, e.key)
}

func (c *Cache) evictOldest() {
	oldest := c.tail.prev
	if oldest == c.head {
		return
	}
	c.removeEntry(oldest)
}

// Len returns the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
