package types

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ModuleID is the runtime identifier of a chunk item. It is either a string
// or a non-negative number; both forms serialize to their natural JSON value.
type ModuleID struct {
	value   string
	numeric bool
}

// StringModuleID creates a string module id.
func StringModuleID(s string) ModuleID {
	return ModuleID{value: s}
}

// NumberModuleID creates a numeric module id.
func NumberModuleID(n uint64) ModuleID {
	return ModuleID{value: strconv.FormatUint(n, 10), numeric: true}
}

// IsNumber reports whether the id has the numeric form.
func (m ModuleID) IsNumber() bool {
	return m.numeric
}

// IsZero reports whether the id was never assigned.
func (m ModuleID) IsZero() bool {
	return m.value == "" && !m.numeric
}

func (m ModuleID) String() string {
	return m.value
}

// MarshalJSON implements json.Marshaler.
func (m ModuleID) MarshalJSON() ([]byte, error) {
	if m.numeric {
		return []byte(m.value), nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m.value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
