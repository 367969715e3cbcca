package history

import (
	"sync"

	"github.com/google/uuid"

	"github.com/geralexgit/ai-hr-bot-sub001/internal/db"
)

// maxCachedEntries bounds the per-candidate cache; older entries are evicted
// first. The durable log keeps the full history.
const maxCachedEntries = 200

// memoryCache holds the recent dialogue entries per candidate. It is a
// possibly-stale accelerator, never ground truth when multiple instances run.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]db.DialogueEntry
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[uuid.UUID][]db.DialogueEntry)}
}

// append adds one entry to the candidate's cached stream, evicting the oldest
// entries beyond the cap.
func (c *memoryCache) append(candidateID uuid.UUID, entry db.DialogueEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := append(c.entries[candidateID], entry)
	if len(entries) > maxCachedEntries {
		entries = entries[len(entries)-maxCachedEntries:]
	}
	c.entries[candidateID] = entries
}

// get returns the cached stream for a candidate and whether the key is warm.
// The returned slice is a copy; callers may not mutate cache internals.
func (c *memoryCache) get(candidateID uuid.UUID) ([]db.DialogueEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries, ok := c.entries[candidateID]
	if !ok {
		return nil, false
	}
	out := make([]db.DialogueEntry, len(entries))
	copy(out, entries)
	return out, true
}

// replace swaps the candidate's cached stream wholesale, used by read-through
// refreshes.
func (c *memoryCache) replace(candidateID uuid.UUID, entries []db.DialogueEntry) {
	if len(entries) > maxCachedEntries {
		entries = entries[len(entries)-maxCachedEntries:]
	}
	stored := make([]db.DialogueEntry, len(entries))
	copy(stored, entries)

	c.mu.Lock()
	c.entries[candidateID] = stored
	c.mu.Unlock()
}

// drop forgets the candidate's cached stream. Dropping an absent key is a
// no-op.
func (c *memoryCache) drop(candidateID uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, candidateID)
	c.mu.Unlock()
}
