package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
)

func encode(fields map[string]any) (string, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(b), nil
}

func decode(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	fields := map[string]any{}
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return fields, nil
}

// normalize round-trips fields through JSON so in-memory documents hold
// the same value shapes as stored ones.
func normalize(fields map[string]any) (map[string]any, error) {
	s, err := encode(fields)
	if err != nil {
		return nil, err
	}
	return decode([]byte(s))
}

// textValue renders a top-level value the way Postgres' ->> operator does
// for scalars. ok is false for null and for nested values.
func textValue(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case bool:
		if x {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}
