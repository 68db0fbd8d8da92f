package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// JSON column helpers. Several entities carry a nested document (lesson
// content, performance metrics, message pronunciation feedback, activity
// metadata) that we store as a TEXT column rather than exploding into side
// tables; the server never filters on their contents.

// encodeJSON marshals v for storage. A nil map or pointer becomes "{}" or
// NULL at the call site, not here; callers decide nullability.
func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding JSON column: %w", err)
	}
	return string(b), nil
}

// decodeJSON unmarshals a column value into dst. Empty text decodes to the
// zero value so rows written before a column gained content stay readable.
func decodeJSON(data string, dst any) error {
	if data == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return fmt.Errorf("decoding JSON column: %w", err)
	}
	return nil
}

// decodeNullableJSON handles NULL-able JSON columns scanned into a
// sql.NullString.
func decodeNullableJSON(data sql.NullString, dst any) error {
	if !data.Valid || data.String == "" {
		return nil
	}
	return decodeJSON(data.String, dst)
}
