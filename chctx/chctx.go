// Package chctx implements the chain context: an insertion-ordered,
// mutex-guarded, memory-capped store of reference-counted values that is
// the sole communication channel between chain phases.
package chctx

import (
	"fmt"
	"sync"

	"github.com/danshapiro/coretiny/corerr"
	"github.com/danshapiro/coretiny/refval"
)

// Bounds mirror the runtime's documented capacity limits.
const (
	MaxEntries   = 512
	MaxMemory    = 10 * 1024 * 1024 // 10 MiB
	MaxKeyLength = 256
)

const perEntryOverhead = 48 // approximate fixed overhead per entry, for the memory accounting model

type entry struct {
	key   string
	value *refval.Value
}

// Context is the ordered keyed store threaded through a chain's phases.
// All exported methods lock internally and are safe for concurrent use.
type Context struct {
	mu          sync.Mutex
	entries     []entry
	index       map[string]int
	memoryBytes int
}

// New returns an empty Context.
func New() *Context {
	return &Context{
		index:       make(map[string]int),
		memoryBytes: 0,
	}
}

// Set installs value under key with no cleanup callback.
func (c *Context) Set(key string, value any) error {
	return c.SetWithCleanup(key, value, nil)
}

// SetWithCleanup installs value under key, invoking cleanup when the
// value's last reference is released. If key already exists, the previous
// value is released (its own cleanup may fire) and replaced.
func (c *Context) SetWithCleanup(key string, value any, cleanup refval.Cleanup) error {
	if key == "" {
		return corerr.New(corerr.NullPointer, corerr.DetailFull, "context set: empty key")
	}
	if len(key) > MaxKeyLength {
		return corerr.New(corerr.KeyTooLong, corerr.DetailFull, fmt.Sprintf("context set: key %q exceeds max length %d", key, MaxKeyLength))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	additional := len(key) + perEntryOverhead
	if idx, ok := c.index[key]; ok {
		// Updating an existing entry adds no new key-storage, only swaps the value.
		newValue := refval.New(value, cleanup)
		old := c.entries[idx].value
		c.entries[idx].value = newValue
		_ = old.Release()
		return nil
	}

	if c.memoryBytes+additional > MaxMemory {
		return corerr.New(corerr.MemoryLimitExceeded, corerr.DetailFull, "context set: memory limit exceeded")
	}
	if len(c.entries) >= MaxEntries {
		return corerr.New(corerr.CapacityExceeded, corerr.DetailFull, "context set: capacity exceeded")
	}

	newValue := refval.New(value, cleanup)
	c.entries = append(c.entries, entry{key: key, value: newValue})
	c.index[key] = len(c.entries) - 1
	c.memoryBytes += additional
	return nil
}

// Get returns the raw payload for key without retaining it. The returned
// value remains valid only while the entry stays live in the context.
func (c *Context) Get(key string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.index[key]
	if !ok {
		return nil, corerr.New(corerr.NotFound, corerr.DetailFull, fmt.Sprintf("context get: key %q not found", key))
	}
	return c.entries[idx].value.Data(), nil
}

// GetRef returns a retained reference to the value stored under key; the
// caller owns one reference and must call Release on it.
func (c *Context) GetRef(key string) (*refval.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.index[key]
	if !ok {
		return nil, corerr.New(corerr.NotFound, corerr.DetailFull, fmt.Sprintf("context get_ref: key %q not found", key))
	}
	v := c.entries[idx].value
	if err := v.Retain(); err != nil {
		return nil, err
	}
	return v, nil
}

// Has reports whether key is present. When constantTime is true, every
// entry is compared rather than stopping at the first match, and each
// comparison scans every byte of both keys instead of stopping at the first
// difference; this is documented behavior, not a timing-safety guarantee.
func (c *Context) Has(key string, constantTime bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !constantTime {
		_, ok := c.index[key]
		return ok
	}
	found := false
	for _, e := range c.entries {
		if constantTimeEqual(e.key, key) {
			found = true
		}
	}
	return found
}

func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		// still scan to approximate the source's fixed iteration count
		n := len(a)
		if len(b) > n {
			n = len(b)
		}
		var diff byte
		for i := 0; i < n; i++ {
			var ca, cb byte
			if i < len(a) {
				ca = a[i]
			}
			if i < len(b) {
				cb = b[i]
			}
			diff |= ca ^ cb
		}
		return false
	}
	var diff byte
	for i := 0; i < len(a); i++ {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}

// Remove releases the value under key and deletes it, shifting subsequent
// entries left to preserve insertion order.
func (c *Context) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx, ok := c.index[key]
	if !ok {
		return corerr.New(corerr.NotFound, corerr.DetailFull, fmt.Sprintf("context remove: key %q not found", key))
	}

	removed := c.entries[idx]
	_ = removed.value.Release()
	c.memoryBytes -= len(removed.key) + perEntryOverhead

	c.entries = append(c.entries[:idx], c.entries[idx+1:]...)
	delete(c.index, key)
	for i := idx; i < len(c.entries); i++ {
		c.index[c.entries[i].key] = i
	}
	return nil
}

// Count returns the number of live entries.
func (c *Context) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// MemoryUsage returns the tracked cumulative byte usage.
func (c *Context) MemoryUsage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memoryBytes
}

// Clear releases every entry and resets the context to empty.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		_ = e.value.Release()
	}
	c.entries = nil
	c.index = make(map[string]int)
	c.memoryBytes = 0
}

// Destroy releases every entry. After Destroy a Context must not be reused;
// it exists to mirror the source's explicit destroy lifecycle call even
// though Go's GC would reclaim the struct regardless.
func (c *Context) Destroy() {
	c.Clear()
}
