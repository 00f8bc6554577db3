package score

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind enumerates the variants a Value can hold.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindString
	KindBool
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a single attribute or response value: a number, a string, a boolean,
// a list of those, or null. The zero Value is null, so a missing map key reads as null.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
	list []Value
}

func Null() Value { return Value{} }

func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

func String(s string) Value { return Value{kind: KindString, str: s} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Strings builds a list of string values.
func Strings(items ...string) Value {
	list := make([]Value, len(items))
	for i, s := range items {
		list[i] = String(s)
	}
	return List(list...)
}

// ValueOf converts a decoded Go value into a Value. Unsupported types
// (maps, structs, channels) become null.
func ValueOf(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case *Value:
		if x == nil {
			return Null()
		}
		return *x
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int8:
		return Number(float64(x))
	case int16:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint8:
		return Number(float64(x))
	case uint16:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return String(x.String())
		}
		return Number(n)
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case []Value:
		return List(x...)
	case []any:
		list := make([]Value, len(x))
		for i, item := range x {
			list[i] = ValueOf(item)
		}
		return List(list...)
	case []string:
		return Strings(x...)
	case []float64:
		list := make([]Value, len(x))
		for i, n := range x {
			list[i] = Number(n)
		}
		return List(list...)
	case []int:
		list := make([]Value, len(x))
		for i, n := range x {
			list[i] = Number(float64(n))
		}
		return List(list...)
	}
	return Null()
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the number held by v.
func (v Value) Float() (float64, bool) { return v.num, v.kind == KindNumber }

// Text returns the string held by v.
func (v Value) Text() (string, bool) { return v.str, v.kind == KindString }

// Boolean returns the boolean held by v.
func (v Value) Boolean() (bool, bool) { return v.b, v.kind == KindBool }

// Items returns the elements of a list value.
func (v Value) Items() ([]Value, bool) { return v.list, v.kind == KindList }

// StrictEqual reports whether v and o are the same kind holding the same scalar.
// Lists are never strictly equal to anything, including other lists.
func (v Value) StrictEqual(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindNumber:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	}
	return false
}

// Contains reports whether v is a list holding an element strictly equal to x.
func (v Value) Contains(x Value) bool {
	if v.kind != KindList {
		return false
	}
	for _, item := range v.list {
		if item.StrictEqual(x) {
			return true
		}
	}
	return false
}

// Truthy follows the usual scripting rules: null, false, 0, NaN and "" are falsy,
// everything else (including an empty list) is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case KindString:
		return v.str != ""
	case KindBool:
		return v.b
	case KindList:
		return true
	}
	return false
}

// Interface returns the plain Go representation of v (nil, float64, string, bool or []any).
func (v Value) Interface() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		return v.str
	case KindBool:
		return v.b
	case KindList:
		items := make([]any, len(v.list))
		for i, item := range v.list {
			items[i] = item.Interface()
		}
		return items
	}
	return nil
}

// toNumber coerces scalars the way loose comparisons do.
func (v Value) toNumber() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, !math.IsNaN(v.num)
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindString:
		s := strings.TrimSpace(v.str)
		if s == "" {
			return 0, true
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(n) {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	return "null"
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber && (math.IsNaN(v.num) || math.IsInf(v.num, 0)) {
		return []byte("null"), nil
	}
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = ValueOf(raw)
	return nil
}

func (v Value) MarshalYAML() (any, error) {
	return v.Interface(), nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	*v = ValueOf(raw)
	return nil
}
