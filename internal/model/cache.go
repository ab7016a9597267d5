package model

import (
	"sync"
)

// Well-known artifact names.
const (
	ArtifactRegressor  = "random_forest_multioutput"
	ArtifactClassifier = "svm_classifier"
	ArtifactKNN        = "knn_do"
	ArtifactUrgency    = "decision_urgency"
)

// Cache loads artifacts from a directory lazily, exactly once per name, and
// holds them read-only afterwards. Safe for unsynchronized concurrent reads
// of loaded artifacts. Constructed once at startup and injected; there is no
// ambient global model state.
type Cache struct {
	dir string

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	art  *Artifact
	err  error
}

// NewCache creates an artifact cache rooted at dir.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir, entries: make(map[string]*cacheEntry)}
}

// Get returns the named artifact, loading it on first use. A load failure is
// cached and reported as ErrModelUnavailable on every call.
func (c *Cache) Get(name string) (*Artifact, error) {
	c.mu.Lock()
	e, ok := c.entries[name]
	if !ok {
		e = &cacheEntry{}
		c.entries[name] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.art, e.err = loadArtifact(c.dir, name)
	})
	return e.art, e.err
}

// Preload attempts to load every named artifact and reports which loaded.
func (c *Cache) Preload(names ...string) map[string]error {
	out := make(map[string]error, len(names))
	for _, n := range names {
		_, err := c.Get(n)
		out[n] = err
	}
	return out
}
