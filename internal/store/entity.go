package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Entity provides generic document operations for any domain type on Badger.
// It satisfies Collection[T].
type Entity[T any] struct {
	store   *Store
	prefix  string
	indexes []Index[T]
	now     func() time.Time
}

// Index defines a secondary index on an entity.
type Index[T any] struct {
	name            string
	unique          bool
	keyGen          func(*T) []string
	lookupTransform func(string) string // Optional transformation for lookups
}

// NewEntity creates a new Entity instance for type T.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{
		store:   s,
		prefix:  prefix,
		indexes: make([]Index[T], 0),
		now:     time.Now,
	}
}

// WithUniqueIndex adds a unique secondary index. Inserting a second document
// with the same key fails with ErrAlreadyExists.
func (e *Entity[T]) WithUniqueIndex(name string, keyGen func(*T) []string, lookupTransform func(string) string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{
		name:            name,
		unique:          true,
		keyGen:          keyGen,
		lookupTransform: lookupTransform,
	})
	return e
}

// WithIndex adds a non-unique secondary index.
func (e *Entity[T]) WithIndex(name string, keyGen func(*T) []string) *Entity[T] {
	e.indexes = append(e.indexes, Index[T]{
		name:   name,
		keyGen: keyGen,
	})
	return e
}

func (e *Entity[T]) index(name string) (Index[T], bool) {
	for _, idx := range e.indexes {
		if idx.name == name {
			return idx, true
		}
	}
	return Index[T]{}, false
}

func (idx Index[T]) keys(prefix, id string, entity *T) [][]byte {
	values := idx.keyGen(entity)
	keys := make([][]byte, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if idx.unique {
			keys = append(keys, indexKey(prefix, idx.name, v))
		} else {
			keys = append(keys, multiIndexKey(prefix, idx.name, v, id))
		}
	}
	return keys
}

// Insert stores a new entity with the given ID.
// Returns ErrAlreadyExists if the ID or a unique index key is taken.
func (e *Entity[T]) Insert(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	err = e.store.update(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get(docKey(e.prefix, id))
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}

		for _, idx := range e.indexes {
			if !idx.unique {
				continue
			}
			for _, k := range idx.keys(e.prefix, id, entity) {
				_, err := txn.Get(k)
				if err == nil {
					return fmt.Errorf("index %s conflict on key %s: %w", idx.name, k, ErrAlreadyExists)
				}
				if !errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("failed to check index key: %w", err)
				}
			}
		}

		if err := txn.Set(docKey(e.prefix, id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		return e.setIndexes(txn, id, entity)
	})

	return mapBadgerError(err)
}

// Get retrieves an entity by ID.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity *T
	err := e.store.db.View(func(txn *badger.Txn) error {
		var err error
		entity, err = e.get(txn, id)
		return err
	})
	if err != nil {
		return nil, mapBadgerError(err)
	}
	return entity, nil
}

func (e *Entity[T]) get(txn *badger.Txn, id string) (*T, error) {
	data, err := e.raw(txn, id)
	if err != nil {
		return nil, err
	}
	var entity T
	if err := json.Unmarshal(data, &entity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return &entity, nil
}

func (e *Entity[T]) raw(txn *badger.Txn, id string) ([]byte, error) {
	item, err := txn.Get(docKey(e.prefix, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	return item.ValueCopy(nil)
}

// FindOne returns the first entity whose field equals value.
// Indexed fields are served from the index; other fields fall back to a scan.
func (e *Entity[T]) FindOne(ctx context.Context, field, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if field == FieldID {
		return e.Get(ctx, value)
	}
	if err := CheckField(field); err != nil {
		return nil, err
	}

	idx, ok := e.index(field)
	if !ok {
		found, err := e.Find(ctx, Filter{field: value})
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, ErrNotFound
		}
		return found[0], nil
	}

	if idx.lookupTransform != nil {
		value = idx.lookupTransform(value)
	}

	var entity *T
	err := e.store.db.View(func(txn *badger.Txn) error {
		ids, err := e.lookup(txn, idx, value, 1)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return ErrNotFound
		}
		entity, err = e.get(txn, ids[0])
		return err
	})
	if err != nil {
		return nil, mapBadgerError(err)
	}
	return entity, nil
}

// lookup resolves index entries to document ids. limit <= 0 means no limit.
func (e *Entity[T]) lookup(txn *badger.Txn, idx Index[T], value string, limit int) ([]string, error) {
	if idx.unique {
		item, err := txn.Get(indexKey(e.prefix, idx.name, value))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		return []string{string(id)}, nil
	}

	prefix := multiIndexPrefix(e.prefix, idx.name, value)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		ids = append(ids, string(it.Item().Key()[len(prefix):]))
		if limit > 0 && len(ids) >= limit {
			break
		}
	}
	return ids, nil
}

// Find returns every entity matching the filter. When one of the filter
// fields is indexed the index narrows the candidates before matching.
func (e *Entity[T]) Find(ctx context.Context, filter Filter) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for field := range filter {
		if err := CheckField(field); err != nil {
			return nil, err
		}
	}

	var result []*T
	err := e.store.db.View(func(txn *badger.Txn) error {
		for field, value := range filter {
			idx, ok := e.index(field)
			if !ok {
				continue
			}
			if idx.lookupTransform != nil {
				value = idx.lookupTransform(value)
			}
			ids, err := e.lookup(txn, idx, value, 0)
			if err != nil {
				return err
			}
			for _, id := range ids {
				data, err := e.raw(txn, id)
				if errors.Is(err, ErrNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				if err := e.collect(data, filter, &result); err != nil {
					return err
				}
			}
			return nil
		}

		return e.scan(ctx, txn, func(data []byte) error {
			return e.collect(data, filter, &result)
		})
	})
	if err != nil {
		return nil, mapBadgerError(err)
	}
	return result, nil
}

func (e *Entity[T]) collect(data []byte, filter Filter, result *[]*T) error {
	ok, err := MatchesFilter(data, filter)
	if err != nil || !ok {
		return err
	}
	var entity T
	if err := json.Unmarshal(data, &entity); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	*result = append(*result, &entity)
	return nil
}

// scan visits every document under the entity prefix, skipping index keys.
func (e *Entity[T]) scan(ctx context.Context, txn *badger.Txn, fn func(data []byte) error) error {
	prefix := []byte(e.prefix)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = true

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.HasPrefix(string(it.Item().Key()[len(prefix):]), indexSegment) {
			continue
		}
		data, err := it.Item().ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := fn(data); err != nil {
			return err
		}
	}
	return nil
}

// Update merges patch into an existing entity and returns the result.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Update(ctx context.Context, id string, patch Patch) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *T
	err := e.store.update(ctx, func(txn *badger.Txn) error {
		current, err := e.raw(txn, id)
		if err != nil {
			return err
		}
		var old T
		if err := json.Unmarshal(current, &old); err != nil {
			return fmt.Errorf("failed to unmarshal old entity: %w", err)
		}

		merged, data, err := MergePatch[T](current, patch, e.now())
		if err != nil {
			return err
		}

		oldKeys := make(map[string]bool)
		for _, idx := range e.indexes {
			for _, k := range idx.keys(e.prefix, id, &old) {
				oldKeys[string(k)] = true
				if err := txn.Delete(k); err != nil {
					return fmt.Errorf("failed to delete old index key: %w", err)
				}
			}
		}

		for _, idx := range e.indexes {
			if !idx.unique {
				continue
			}
			for _, k := range idx.keys(e.prefix, id, merged) {
				if oldKeys[string(k)] {
					continue
				}
				_, err := txn.Get(k)
				if err == nil {
					return fmt.Errorf("index %s conflict on key %s: %w", idx.name, k, ErrAlreadyExists)
				}
				if !errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("failed to check index key: %w", err)
				}
			}
		}

		if err := txn.Set(docKey(e.prefix, id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		if err := e.setIndexes(txn, id, merged); err != nil {
			return err
		}
		updated = merged
		return nil
	})
	if err != nil {
		return nil, mapBadgerError(err)
	}
	return updated, nil
}

func (e *Entity[T]) setIndexes(txn *badger.Txn, id string, entity *T) error {
	for _, idx := range e.indexes {
		for _, k := range idx.keys(e.prefix, id, entity) {
			if err := txn.Set(k, []byte(id)); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}
	}
	return nil
}

// Delete deletes an entity by ID.
// This operation is idempotent - it does not return an error if the entity does not exist.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := e.store.update(ctx, func(txn *badger.Txn) error {
		entity, err := e.get(txn, id)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		for _, idx := range e.indexes {
			for _, k := range idx.keys(e.prefix, id, entity) {
				if err := txn.Delete(k); err != nil {
					return fmt.Errorf("failed to delete index key: %w", err)
				}
			}
		}

		if err := txn.Delete(docKey(e.prefix, id)); err != nil {
			return fmt.Errorf("failed to delete key: %w", err)
		}
		return nil
	})

	return mapBadgerError(err)
}

// List returns an iterator over all entities.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		stopped := errors.New("stopped")
		err := e.store.db.View(func(txn *badger.Txn) error {
			return e.scan(ctx, txn, func(data []byte) error {
				var entity T
				if err := json.Unmarshal(data, &entity); err != nil {
					return fmt.Errorf("failed to unmarshal entity: %w", err)
				}
				if !yield(&entity, nil) {
					return stopped
				}
				return nil
			})
		})
		if err != nil && !errors.Is(err, stopped) {
			yield(nil, mapBadgerError(err))
		}
	}
}

// mapBadgerError turns a closed database into ErrUnavailable and leaves
// every other error untouched.
func mapBadgerError(err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return ErrUnavailable.WithCause(err)
	}
	return err
}
