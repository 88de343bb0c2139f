// internal/domain/jsonb.go
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap maps a JSONB column to a Go map.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = JSONMap{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("jsonb: unsupported source type %T", src)
	}
	out := JSONMap{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("jsonb: %w", err)
		}
	}
	*m = out
	return nil
}

// String returns the value under key when it is a string.
func (m JSONMap) String(key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}
