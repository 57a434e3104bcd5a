package artifact

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hejijunhao/teller/internal/model"
)

// Observer is notified after every load attempt.
type Observer func(key Key, elapsed time.Duration, err error)

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithObserver registers fn to be called after each load attempt.
func WithObserver(fn Observer) CacheOption {
	return func(c *Cache) { c.observer = fn }
}

// entry is one key's load. done is closed once value or err is set; both
// are read-only afterwards.
type entry struct {
	done  chan struct{}
	value any
	err   error
}

// Cache memoizes artifacts per key. The first caller for a key performs the
// load while concurrent callers for the same key wait on it; later callers
// get the same instance without touching storage. A failed load is reported
// to every caller that was waiting on it and then forgotten, so the key is
// loaded again on its next access.
type Cache struct {
	loader   Loader
	observer Observer

	mu      sync.Mutex
	entries map[Key]*entry
}

// NewCache creates an empty cache backed by loader.
func NewCache(loader Loader, opts ...CacheOption) *Cache {
	c := &Cache{
		loader:  loader,
		entries: make(map[Key]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Vectorizer returns the vectorizer for ds.
func (c *Cache) Vectorizer(ds model.Dataset) (Vectorizer, error) {
	key := Key{Dataset: ds, Kind: KindVectorizer}
	v, err := c.get(key, func() (any, error) {
		vec, err := c.loader.LoadVectorizer(ds)
		if err != nil {
			return nil, err
		}
		if vec == nil {
			return nil, errors.New("loader returned no vectorizer")
		}
		return vec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Vectorizer), nil
}

// Decoder returns the label decoder for ds. The decoder must hold exactly
// the dataset's canonical category count.
func (c *Cache) Decoder(ds model.Dataset) (Decoder, error) {
	key := Key{Dataset: ds, Kind: KindDecoder}
	v, err := c.get(key, func() (any, error) {
		dec, err := c.loader.LoadDecoder(ds)
		if err != nil {
			return nil, err
		}
		if dec == nil {
			return nil, errors.New("loader returned no decoder")
		}
		if want := ds.CategoryCount(); want > 0 && dec.Len() != want {
			return nil, fmt.Errorf("decoder has %d labels, %s has %d categories", dec.Len(), ds, want)
		}
		return dec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Decoder), nil
}

// Classifier returns the classifier for (ds, variant).
func (c *Cache) Classifier(ds model.Dataset, variant model.Variant) (Classifier, error) {
	key := Key{Dataset: ds, Kind: KindClassifier, Variant: variant}
	v, err := c.get(key, func() (any, error) {
		cls, err := c.loader.LoadClassifier(ds, variant)
		if err != nil {
			return nil, err
		}
		if cls == nil {
			return nil, errors.New("loader returned no classifier")
		}
		return cls, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Classifier), nil
}

// Loaded returns the number of keys currently held.
func (c *Cache) Loaded() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		select {
		case <-e.done:
			if e.err == nil {
				n++
			}
		default:
		}
	}
	return n
}

// Keys returns the keys currently held, in no particular order.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]Key, 0, len(c.entries))
	for k, e := range c.entries {
		select {
		case <-e.done:
			if e.err == nil {
				keys = append(keys, k)
			}
		default:
		}
	}
	return keys
}

// Close releases artifacts that hold native resources and empties the
// cache.
func (c *Cache) Close() error {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[Key]*entry)
	c.mu.Unlock()

	var errs []error
	for _, e := range entries {
		<-e.done
		if closer, ok := e.value.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (c *Cache) get(key Key, load func() (any, error)) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		c.mu.Unlock()
		<-e.done
		return e.value, e.err
	}
	e = &entry{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	c.fill(key, e, load)
	return e.value, e.err
}

func (c *Cache) fill(key Key, e *entry, load func() (any, error)) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.value, e.err = nil, loadErr(key, "", fmt.Errorf("panic during load: %v", r))
		}
		elapsed := time.Since(start)
		if e.err != nil {
			c.forget(key, e)
			slog.Warn("artifact load failed", "key", key.String(), "duration", elapsed, "error", e.err)
		} else {
			slog.Info("artifact loaded", "key", key.String(), "duration", elapsed)
		}
		close(e.done)
		if c.observer != nil {
			c.observer(key, elapsed, e.err)
		}
	}()

	v, err := load()
	if err != nil {
		e.err = asLoadError(key, err)
		return
	}
	e.value = v
}

func (c *Cache) forget(key Key, e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[key] == e {
		delete(c.entries, key)
	}
}
