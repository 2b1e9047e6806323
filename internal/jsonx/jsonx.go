// Package jsonx contains helpers for JSON records that must round-trip
// unknown fields. The memory store files are an interchange format shared
// with external tools, so parsing may not drop keys it does not recognize.
package jsonx

import (
	"encoding/json"
	"fmt"
)

// DecodeKnown unmarshals data into a raw key map, decodes each known key
// into its destination pointer, and returns the leftover unrecognized keys.
// Explicit nulls on known keys are treated as absent.
func DecodeKnown(data []byte, known map[string]any) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for key, dst := range known {
		v, ok := raw[key]
		if !ok || string(v) == "null" {
			delete(raw, key)
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		delete(raw, key)
	}
	if len(raw) == 0 {
		raw = nil
	}
	return raw, nil
}

// EncodeKnown merges known fields over the preserved extras and marshals
// the result. Known fields win on key collision.
func EncodeKnown(extra map[string]json.RawMessage, known map[string]any) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(extra)+len(known))
	for k, v := range extra {
		out[k] = v
	}
	for k, v := range known {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = b
	}
	return json.Marshal(out)
}
