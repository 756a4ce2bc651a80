package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/digitalrsvp/rsvp-server/internal/store"
)

// columnFields are the document fields mirrored into indexed columns.
var columnFields = map[string]bool{
	store.FieldShareCode:    true,
	store.FieldEventID:      true,
	store.FieldInvitationID: true,
}

// Table stores documents of type T in one SQLite table and satisfies
// store.Collection[T].
type Table[T any] struct {
	db   *sql.DB
	name string
	now  func() time.Time
}

func newTable[T any](db *sql.DB, name string) *Table[T] {
	return &Table[T]{db: db, name: name, now: time.Now}
}

// row is the column projection of a document.
type row struct {
	shareCode    sql.NullString
	eventID      sql.NullString
	invitationID sql.NullString
	createdAt    string
	updatedAt    string
	doc          string
}

func project(data []byte) (row, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return row{}, fmt.Errorf("decode document: %w", err)
	}

	r := row{
		shareCode:    nullString(strings.ToUpper(store.FieldText(fields[store.FieldShareCode]))),
		eventID:      nullString(store.FieldText(fields[store.FieldEventID])),
		invitationID: nullString(store.FieldText(fields[store.FieldInvitationID])),
		doc:          string(data),
	}

	// Timestamps are kept in the document; the columns only order results.
	r.createdAt = stampOf(fields[store.FieldCreatedAt])
	r.updatedAt = stampOf(fields[store.FieldUpdatedAt])
	return r, nil
}

func stampOf(v any) string {
	s, _ := v.(string)
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return formatTime(time.Time{})
	}
	return formatTime(t)
}

// Insert implements store.Collection.
func (t *Table[T]) Insert(ctx context.Context, id string, doc *T) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	r, err := project(data)
	if err != nil {
		return err
	}

	_, err = t.db.ExecContext(ctx, `
		INSERT INTO `+t.name+` (
			id, share_code, event_id, invitation_id, created_at, updated_at, doc
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, r.shareCode, r.eventID, r.invitationID, r.createdAt, r.updatedAt, r.doc,
	)
	return mapError(err)
}

// Get implements store.Collection.
func (t *Table[T]) Get(ctx context.Context, id string) (*T, error) {
	var doc string
	err := t.db.QueryRowContext(ctx, `SELECT doc FROM `+t.name+` WHERE id = ?`, id).Scan(&doc)
	if err != nil {
		return nil, mapError(err)
	}
	return decode[T](doc)
}

// FindOne implements store.Collection.
func (t *Table[T]) FindOne(ctx context.Context, field, value string) (*T, error) {
	if field == store.FieldID {
		return t.Get(ctx, value)
	}
	where, args, err := whereClause(store.Filter{field: value})
	if err != nil {
		return nil, err
	}

	var doc string
	err = t.db.QueryRowContext(ctx,
		`SELECT doc FROM `+t.name+where+` ORDER BY created_at, id LIMIT 1`, args...).Scan(&doc)
	if err != nil {
		return nil, mapError(err)
	}
	return decode[T](doc)
}

// Find implements store.Collection.
func (t *Table[T]) Find(ctx context.Context, filter store.Filter) ([]*T, error) {
	where, args, err := whereClause(filter)
	if err != nil {
		return nil, err
	}

	rows, err := t.db.QueryContext(ctx, `SELECT doc FROM `+t.name+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var result []*T
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, mapError(err)
		}
		v, err := decode[T](doc)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

// Update implements store.Collection. The read and the write share one
// transaction so concurrent patches do not lose fields.
func (t *Table[T]) Update(ctx context.Context, id string, patch store.Patch) (*T, error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, mapError(err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var current string
	if err := tx.QueryRowContext(ctx, `SELECT doc FROM `+t.name+` WHERE id = ?`, id).Scan(&current); err != nil {
		return nil, mapError(err)
	}

	merged, data, err := store.MergePatch[T]([]byte(current), patch, t.now())
	if err != nil {
		return nil, err
	}
	r, err := project(data)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE `+t.name+` SET
			share_code = ?,
			event_id = ?,
			invitation_id = ?,
			updated_at = ?,
			doc = ?
		WHERE id = ?`,
		r.shareCode, r.eventID, r.invitationID, r.updatedAt, r.doc, id,
	)
	if err != nil {
		return nil, mapError(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, mapError(err)
	}
	return merged, nil
}

// Delete implements store.Collection.
func (t *Table[T]) Delete(ctx context.Context, id string) error {
	_, err := t.db.ExecContext(ctx, `DELETE FROM `+t.name+` WHERE id = ?`, id)
	return mapError(err)
}

// whereClause builds a WHERE clause for a filter. Mirrored fields compare
// against their columns; everything else is read from the JSON document and
// compared by its textual form.
func whereClause(filter store.Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}

	fields := make([]string, 0, len(filter))
	for f := range filter {
		if err := store.CheckField(f); err != nil {
			return "", nil, err
		}
		fields = append(fields, f)
	}
	sort.Strings(fields)

	conds := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		value := filter[f]
		switch {
		case f == store.FieldShareCode:
			conds = append(conds, "share_code = ?")
			args = append(args, strings.ToUpper(strings.TrimSpace(value)))
		case columnFields[f]:
			conds = append(conds, f+" = ?")
			args = append(args, value)
		default:
			path := "$." + f
			conds = append(conds, `(CASE json_type(doc, ?)
				WHEN 'true' THEN 'true'
				WHEN 'false' THEN 'false'
				ELSE CAST(json_extract(doc, ?) AS TEXT) END) = ?`)
			args = append(args, path, path, value)
		}
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

func decode[T any](doc string) (*T, error) {
	var v T
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return &v, nil
}
