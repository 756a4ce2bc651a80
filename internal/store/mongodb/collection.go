package mongodb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/digitalrsvp/rsvp-server/internal/store"
)

// Collection stores documents of type T in one MongoDB collection and
// satisfies store.Collection[T]. The document id is kept in _id.
type Collection[T any] struct {
	c   *mongo.Collection
	now func() time.Time
}

func newCollection[T any](c *mongo.Collection) *Collection[T] {
	return &Collection[T]{c: c, now: time.Now}
}

// Insert implements store.Collection.
func (c *Collection[T]) Insert(ctx context.Context, id string, doc *T) error {
	m, err := toBSON(doc)
	if err != nil {
		return err
	}
	delete(m, store.FieldID)
	m["_id"] = id
	if code, ok := m[store.FieldShareCode].(string); ok {
		m[store.FieldShareCode] = strings.ToUpper(code)
	}

	_, err = c.c.InsertOne(ctx, m)
	return mapError(err)
}

// Get implements store.Collection.
func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	raw, err := c.c.FindOne(ctx, bson.M{"_id": id}).Raw()
	if err != nil {
		return nil, mapError(err)
	}
	return fromBSON[T](raw)
}

// FindOne implements store.Collection.
func (c *Collection[T]) FindOne(ctx context.Context, field, value string) (*T, error) {
	if field == store.FieldID {
		return c.Get(ctx, value)
	}
	filter, err := filterDoc(store.Filter{field: value})
	if err != nil {
		return nil, err
	}

	opts := options.FindOne().SetSort(bson.D{{Key: store.FieldCreatedAt, Value: 1}, {Key: "_id", Value: 1}})
	raw, err := c.c.FindOne(ctx, filter, opts).Raw()
	if err != nil {
		return nil, mapError(err)
	}
	return fromBSON[T](raw)
}

// Find implements store.Collection.
func (c *Collection[T]) Find(ctx context.Context, filter store.Filter) ([]*T, error) {
	f, err := filterDoc(filter)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: store.FieldCreatedAt, Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := c.c.Find(ctx, f, opts)
	if err != nil {
		return nil, mapError(err)
	}
	defer cursor.Close(ctx)

	var result []*T
	for cursor.Next(ctx) {
		v, err := fromBSON[T](cursor.Current)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	if err := cursor.Err(); err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

// Update implements store.Collection. The patch is applied with $set so
// concurrent patches touching different fields both survive.
func (c *Collection[T]) Update(ctx context.Context, id string, patch store.Patch) (*T, error) {
	set := make(store.Patch, len(patch)+1)
	for k, v := range patch {
		if k == store.FieldID || k == store.FieldCreatedAt {
			continue
		}
		if err := store.CheckField(k); err != nil {
			return nil, err
		}
		if k == store.FieldShareCode {
			if code, ok := v.(string); ok {
				v = strings.ToUpper(code)
			}
		}
		set[k] = v
	}
	set[store.FieldUpdatedAt] = c.now().UTC()

	values, err := toBSON(set)
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	raw, err := c.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": values}, opts).Raw()
	if err != nil {
		return nil, mapError(err)
	}
	return fromBSON[T](raw)
}

// Delete implements store.Collection.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	_, err := c.c.DeleteOne(ctx, bson.M{"_id": id})
	return mapError(err)
}

// toBSON encodes v as JSON and parses it as relaxed extended JSON, so whole
// numbers land as BSON integers and nested objects as embedded documents.
func toBSON(v any) (bson.M, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var m bson.M
	if err := bson.UnmarshalExtJSON(data, false, &m); err != nil {
		return nil, fmt.Errorf("convert document: %w", err)
	}
	return m, nil
}

func fromBSON[T any](raw bson.Raw) (*T, error) {
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("convert document: %w", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	m[store.FieldID] = m["_id"]
	delete(m, "_id")

	data, err = json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return &v, nil
}

// filterDoc builds a query from a filter. Filter values are text, so each
// field matches the string as well as the boolean or number it spells.
func filterDoc(filter store.Filter) (bson.M, error) {
	f := bson.M{}
	for field, value := range filter {
		if err := store.CheckField(field); err != nil {
			return nil, err
		}
		if field == store.FieldShareCode {
			value = strings.ToUpper(strings.TrimSpace(value))
		}

		key := field
		if field == store.FieldID {
			key = "_id"
		}

		candidates := bson.A{value}
		switch value {
		case "true":
			candidates = append(candidates, true)
		case "false":
			candidates = append(candidates, false)
		default:
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				candidates = append(candidates, n)
			} else if x, err := strconv.ParseFloat(value, 64); err == nil {
				candidates = append(candidates, x)
			}
		}
		f[key] = bson.M{"$in": candidates}
	}
	return f, nil
}
