package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// MergePatch applies patch to the JSON document current and returns the
// decoded result together with its canonical encoding. The id and created_at
// fields are preserved and updated_at is set to now. Keys unknown to T are
// dropped by the round trip through T.
func MergePatch[T any](current []byte, patch Patch, now time.Time) (*T, []byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(current, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to decode document: %w", err)
	}

	for k, v := range patch {
		if k == FieldID || k == FieldCreatedAt {
			continue
		}
		if err := CheckField(k); err != nil {
			return nil, nil, err
		}
		doc[k] = v
	}
	doc[FieldUpdatedAt] = now.UTC()

	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode patch: %w", err)
	}

	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return nil, nil, fmt.Errorf("failed to apply patch: %w", err)
	}

	data, err := json.Marshal(&out)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	return &out, data, nil
}

// PatchValues converts a patch into plain JSON values (strings, float64,
// bool, maps, slices) so backends that cannot encode domain types directly
// can persist it.
func PatchValues(patch Patch) (map[string]any, error) {
	data, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patch: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode patch: %w", err)
	}
	return out, nil
}

// MatchesFilter reports whether the top-level fields of a JSON document equal
// every value in filter. Non-string fields are compared by their textual form.
func MatchesFilter(data []byte, filter Filter) (bool, error) {
	if len(filter) == 0 {
		return true, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("failed to decode document: %w", err)
	}

	for field, want := range filter {
		got, ok := doc[field]
		if !ok || FieldText(got) != want {
			return false, nil
		}
	}
	return true, nil
}

// FieldText renders a decoded JSON scalar the way it is compared in filters.
func FieldText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
