// Package cache adds a read-through cache in front of a store collection.
//
// Get and FindOne results are cached by id; Find is always served by the
// underlying collection. Writes through the cache evict the affected id, so
// the cache is only safe when this process is the sole writer.
package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/jinzhu/copier"

	"github.com/digitalrsvp/rsvp-server/internal/domain"
	"github.com/digitalrsvp/rsvp-server/internal/store"
)

// Collection wraps a store.Collection with an unbounded id cache.
type Collection[T any] struct {
	store.Collection[T]

	mu      sync.RWMutex
	byID    map[string]*T
	byField map[lookupKey]string
	idOf    func(*T) string

	// gen counts evictions. A read that overlapped one is not cached, since
	// it may have fetched the document from before the write.
	gen uint64
}

type lookupKey struct {
	field string
	value string
}

// New wraps c. idOf extracts the id from a cached document.
func New[T any](c store.Collection[T], idOf func(*T) string) *Collection[T] {
	return &Collection[T]{
		Collection: c,
		byID:       map[string]*T{},
		byField:    map[lookupKey]string{},
		idOf:       idOf,
	}
}

// Get implements store.Collection.
func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	c.mu.RLock()
	doc, ok := c.byID[id]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		return clone(doc)
	}

	doc, err := c.Collection.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.put(doc, nil, gen)
	return clone(doc)
}

// FindOne implements store.Collection.
func (c *Collection[T]) FindOne(ctx context.Context, field, value string) (*T, error) {
	key := lookupKey{field: field, value: value}

	c.mu.RLock()
	id, ok := c.byField[key]
	var doc *T
	if ok {
		doc, ok = c.byID[id]
	}
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		return clone(doc)
	}

	doc, err := c.Collection.FindOne(ctx, field, value)
	if err != nil {
		return nil, err
	}
	c.put(doc, &key, gen)
	return clone(doc)
}

// Update implements store.Collection.
func (c *Collection[T]) Update(ctx context.Context, id string, patch store.Patch) (*T, error) {
	c.evict(id)
	doc, err := c.Collection.Update(ctx, id, patch)
	c.evict(id)
	return doc, err
}

// Delete implements store.Collection.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	c.evict(id)
	err := c.Collection.Delete(ctx, id)
	c.evict(id)
	return err
}

// Len returns the number of cached documents.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// put caches doc unless an eviction happened after the read began at gen.
func (c *Collection[T]) put(doc *T, key *lookupKey, gen uint64) {
	stored, err := clone(doc)
	if err != nil {
		return
	}
	id := c.idOf(stored)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.byID[id] = stored
	if key != nil {
		c.byField[*key] = id
	}
}

func (c *Collection[T]) evict(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	delete(c.byID, id)
	for k, v := range c.byField {
		if v == id {
			delete(c.byField, k)
		}
	}
}

func clone[T any](doc *T) (*T, error) {
	var out T
	if err := copier.CopyWithOption(&out, doc, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copy cached document: %w", err)
	}
	return &out, nil
}

// Wrap puts a cache in front of every collection of a backend.
func Wrap(cols *store.Collections) *store.Collections {
	return &store.Collections{
		Events:      New(cols.Events, eventID),
		Invitations: New(cols.Invitations, invitationID),
		Guests:      New(cols.Guests, guestID),
	}
}

func eventID(e *domain.Event) string           { return e.ID }
func invitationID(i *domain.Invitation) string { return i.ID }
func guestID(g *domain.Guest) string           { return g.ID }
