package models

import (
	"encoding/json"
	"fmt"
)

// encodeJSON renders v for a JSON text column; nil maps and slices become
// their empty form so columns never hold SQL NULL
func encodeJSON(v any, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}

// decodeJSON parses a JSON text column into dst; empty columns leave dst untouched
func decodeJSON(column, raw string, dst any) error {
	if raw == "" || raw == "null" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode %s column: %w", column, err)
	}
	return nil
}
