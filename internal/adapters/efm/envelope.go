package efm

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// The EFM API wraps every response in a "data" envelope, but the inner shape
// differs per endpoint: bulk exports return {"data":{"<resource>":[...]}}
// while company-scoped listings return {"data":[...]}. Both shapes are
// normalized here in one place; anything else is a decode error rather than
// a silent empty page.

// decodeRecords extracts and unmarshals the record array for the named
// collection from either envelope shape.
func decodeRecords[T any](body []byte, collection string) ([]T, error) {
	inner, err := envelopeData(body)
	if err != nil {
		return nil, err
	}

	if inner[0] == '[' {
		var records []T
		if err := json.Unmarshal(inner, &records); err != nil {
			return nil, fmt.Errorf("decode %s records: %w", collection, err)
		}
		return records, nil
	}

	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(inner, &keyed); err != nil {
		return nil, fmt.Errorf("decode %s envelope: %w", collection, err)
	}
	raw, ok := keyed[collection]
	if !ok {
		return nil, fmt.Errorf("envelope has no %q collection", collection)
	}

	var records []T
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %s records: %w", collection, err)
	}
	return records, nil
}

// decodeObject extracts a single object from the "data" envelope, falling
// back to a bare object body (the discount-code write endpoints return both
// shapes depending on API version).
func decodeObject[T any](body []byte) (T, error) {
	var zero T

	inner, err := envelopeData(body)
	if err != nil {
		// Not enveloped - try the bare object
		inner = bytes.TrimSpace(body)
		if len(inner) == 0 {
			return zero, err
		}
	}

	var obj T
	if err := json.Unmarshal(inner, &obj); err != nil {
		return zero, fmt.Errorf("decode object: %w", err)
	}
	return obj, nil
}

// envelopeData returns the raw "data" payload of an EFM response.
func envelopeData(body []byte) (json.RawMessage, error) {
	var outer struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &outer); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	inner := bytes.TrimSpace(outer.Data)
	if len(inner) == 0 || bytes.Equal(inner, []byte("null")) {
		return nil, fmt.Errorf("envelope has no data field")
	}
	return inner, nil
}
