package sitegen

import (
	"os"
	"sync"
	"time"
)

// TemplateCache is an in-memory cache of template files keyed by path. An
// entry is reloaded when the file's size or modification time changes, so
// edits are picked up without an explicit Invalidate.
type TemplateCache struct {
	mu      sync.RWMutex
	entries map[string]templateEntry
}

type templateEntry struct {
	text    string
	modTime time.Time
	size    int64
}

func (e templateEntry) valid(info os.FileInfo) bool {
	return e.size == info.Size() && e.modTime.Equal(info.ModTime())
}

// NewTemplateCache creates an empty TemplateCache.
func NewTemplateCache() *TemplateCache {
	return &TemplateCache{entries: make(map[string]templateEntry)}
}

// Get returns the text of the template at path. It tries a read lock first;
// only takes a write lock if the file must be (re)loaded.
func (c *TemplateCache) Get(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	c.mu.RLock()
	e, ok := c.entries[path]
	c.mu.RUnlock()
	if ok && e.valid(info) {
		return e.text, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[path]; ok && e.valid(info) {
		return e.text, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	c.entries[path] = templateEntry{
		text:    string(data),
		modTime: info.ModTime(),
		size:    info.Size(),
	}
	return string(data), nil
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *TemplateCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]templateEntry)
	c.mu.Unlock()
}

// Len reports the number of cached templates.
func (c *TemplateCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
