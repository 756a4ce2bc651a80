package service

import (
	"encoding/json"
	"fmt"

	"github.com/digitalrsvp/rsvp-server/internal/store"
)

// replacementPatch builds a patch that turns the stored document old into
// next. Fields present in old but omitted from next are cleared, so the
// merge behaves like a full replace. id and created_at are left alone.
func replacementPatch(old, next any) (store.Patch, error) {
	oldFields, err := toFields(old)
	if err != nil {
		return nil, err
	}
	patch, err := toFields(next)
	if err != nil {
		return nil, err
	}

	for k := range oldFields {
		if _, ok := patch[k]; !ok {
			patch[k] = nil
		}
	}
	delete(patch, store.FieldID)
	delete(patch, store.FieldCreatedAt)
	delete(patch, store.FieldUpdatedAt)

	return patch, nil
}

func toFields(v any) (store.Patch, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var fields store.Patch
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return fields, nil
}
