package rules

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/unicode/norm"
)

// fingerprintDomain prefixes the hash input for domain separation. The
// version suffix leaves room for algorithm migration without colliding
// with receipts written by older builds.
const fingerprintDomain = "premise/rule/v1"

// Fingerprint computes a stable content-addressed identity for a rule.
//
// Rules carry no explicit IDs, so the firing-receipt store keys receipts by
// this hash of the rule's defining content. Mutable execution state
// (executed, lastExecuted) is excluded: editing a rule's condition or action
// produces a new identity, flipping its flags does not.
func (r Rule) Fingerprint() (string, error) {
	encoded, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("fingerprint: marshal rule: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return "", fmt.Errorf("fingerprint: decode rule: %w", err)
	}
	delete(m, "executed")
	delete(m, "lastExecuted")

	canonical, err := marshalCanonical(m)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(fingerprintDomain))
	h.Write([]byte{0x00}) // null separator prevents domain/data ambiguity
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// marshalCanonical produces deterministic JSON for hashing: sorted object
// keys, NFC-normalized strings, no HTML escaping. Unlike a strict canonical
// form it tolerates null and float values, because rule files are authored
// by external tools and must never fail to fingerprint.
func marshalCanonical(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case bool:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case string:
		return marshalCanonicalString(val)
	case json.Number:
		return []byte(val.String()), nil
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := marshalCanonical(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := marshalCanonicalString(k)
			if err != nil {
				return nil, fmt.Errorf("object key %q: %w", k, err)
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := marshalCanonical(val[k])
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
}

// marshalCanonicalString NFC-normalizes and encodes a string without HTML
// escaping, so "<", ">" and "&" hash the same regardless of encoder quirks.
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
