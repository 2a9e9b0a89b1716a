package directory

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Filter selects directory entries by a nested field. An entry matches when
// it is a JSON object whose Field member is an object containing SubField,
// and the string form of that value equals Match ignoring case.
type Filter struct {
	Field    string
	SubField string
	Match    string
}

// Apply returns the matching entries in their original order. The result is
// never nil.
func (f Filter) Apply(entries []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, 0)
	for _, entry := range entries {
		if f.matches(entry) {
			out = append(out, entry)
		}
	}
	return out
}

func (f Filter) matches(entry json.RawMessage) bool {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(entry, &obj); err != nil || obj == nil {
		return false
	}

	var nested map[string]json.RawMessage
	if err := json.Unmarshal(obj[f.Field], &nested); err != nil || nested == nil {
		return false
	}

	value, ok := nested[f.SubField]
	if !ok {
		return false
	}
	return strings.EqualFold(stringForm(value), f.Match)
}

// stringForm renders a JSON value for comparison: strings are unquoted,
// everything else compares as its literal JSON text.
func stringForm(value json.RawMessage) string {
	value = bytes.TrimSpace(value)
	if len(value) > 0 && value[0] == '"' {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			return s
		}
	}
	return string(value)
}
