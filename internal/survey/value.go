package survey

import (
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// ValueKind tags the runtime type of an answer value.
type ValueKind int

const (
	// KindEmpty is the zero Value: no answer.
	KindEmpty ValueKind = iota
	// KindString is a text answer.
	KindString
	// KindNumber is a numeric answer (scores, ratings, scales).
	KindNumber
	// KindList is a multi-choice answer.
	KindList
)

// Value is an answer to one question: a string, a number, or a list of
// strings depending on the question type. The zero Value means "unanswered".
//
// Values serialize to their raw JSON forms (a JSON string, number, or array)
// so the outbound submission body matches the authored contract.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	list []string
}

// String returns a text Value. The text is NFC-normalized so that equal
// answers compare and persist identically regardless of input composition.
func String(s string) Value {
	return Value{kind: KindString, str: norm.NFC.String(s)}
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// List returns a multi-choice Value. Entries are NFC-normalized.
func List(items ...string) Value {
	normalized := make([]string, len(items))
	for i, item := range items {
		normalized[i] = norm.NFC.String(item)
	}
	return Value{kind: KindList, list: normalized}
}

// Kind returns the value's type tag.
func (v Value) Kind() ValueKind { return v.kind }

// Text returns the string form. Valid only for KindString.
func (v Value) Text() string { return v.str }

// Num returns the numeric form. Valid only for KindNumber.
func (v Value) Num() float64 { return v.num }

// Items returns the list form. Valid only for KindList.
func (v Value) Items() []string { return v.list }

// IsEmpty reports whether the value counts as "no answer" for required-field
// gating: the zero Value, an empty string, or an empty list.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindEmpty:
		return true
	case KindString:
		return v.str == ""
	case KindList:
		return len(v.list) == 0
	default:
		return false
	}
}

// Equal reports deep equality of two values.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if v.list[i] != other.list[i] {
				return false
			}
		}
	}
	return true
}

// MarshalJSON encodes the raw underlying form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindEmpty:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindList:
		return json.Marshal(v.list)
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

// UnmarshalJSON decodes a JSON string, number, or string array.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// FromAny converts a dynamically-typed value (JSON or YAML decode output)
// into a Value. Accepts nil, string, float64, int, and []any of strings.
func FromAny(raw any) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return Value{}, nil
	case string:
		return String(val), nil
	case float64:
		return Number(val), nil
	case int:
		return Number(float64(val)), nil
	case int64:
		return Number(float64(val)), nil
	case []any:
		items := make([]string, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return Value{}, fmt.Errorf("list value entry %d: expected string, got %T", i, item)
			}
			items[i] = s
		}
		return List(items...), nil
	case []string:
		return List(val...), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}
