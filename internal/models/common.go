// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB is the wire shape of every record held by the remote store: a flat
// JSON-serializable object keyed by field name.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// RecordKind selects one of the two managed collections.
type RecordKind string

const (
	KindWatches      RecordKind = "watches"
	KindTestimonials RecordKind = "testimonials"
)

// Kinds lists every managed record kind, in tab order.
var Kinds = []RecordKind{KindWatches, KindTestimonials}

func (k RecordKind) Valid() bool {
	return k == KindWatches || k == KindTestimonials
}

// Collection is the store key partition backing the kind.
func (k RecordKind) Collection() string {
	return string(k)
}

func ParseRecordKind(s string) (RecordKind, error) {
	k := RecordKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown record kind %q", s)
	}
	return k, nil
}

func encodeRecord(v interface{}) (JSONB, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}

	var out JSONB
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return out, nil
}

func decodeRecord(rec JSONB, v interface{}) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}
