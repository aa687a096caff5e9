package config

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/xerrors"
)

const (
	TypeInt     = "int"
	TypeStrings = "string[]"
)

// Value is a resolved raw configuration string with typed views. The raw
// string never changes after construction.
type Value struct {
	raw string
}

// NewValue wraps raw.
func NewValue(raw string) Value { return Value{raw: raw} }

// String returns the raw string.
func (v Value) String() string { return v.raw }

// Int parses the raw string as a base-10 signed 32-bit integer. Surrounding
// whitespace, fractions and exponents are rejected.
func (v Value) Int() (int, error) {
	n, err := strconv.ParseInt(v.raw, 10, 32)
	if err != nil {
		return 0, &ConversionError{Type: TypeInt, Raw: v.raw, Err: err}
	}
	return int(n), nil
}

// Bool reports whether the raw string equals "true", ignoring case.
func (v Value) Bool() bool { return strings.EqualFold(v.raw, "true") }

// Strings parses the raw string as a JSON array of strings. Objects, scalars,
// malformed JSON and arrays holding anything but strings are rejected.
func (v Value) Strings() ([]string, error) {
	if !gjson.Valid(v.raw) {
		return nil, &ConversionError{Type: TypeStrings, Raw: v.raw, Err: xerrors.New("malformed json")}
	}
	parsed := gjson.Parse(v.raw)
	if !parsed.IsArray() {
		return nil, &ConversionError{Type: TypeStrings, Raw: v.raw, Err: xerrors.New("not a json array")}
	}
	items := parsed.Array()
	out := make([]string, 0, len(items))
	for i, item := range items {
		if item.Type != gjson.String {
			return nil, &ConversionError{Type: TypeStrings, Raw: v.raw, Err: xerrors.Errorf("element %d is %s, not a string", i, item.Type)}
		}
		out = append(out, item.Str)
	}
	return out, nil
}
