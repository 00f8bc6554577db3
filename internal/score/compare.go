package score

import "strings"

// Comparison operators accepted in a rule condition.
const (
	OpEqual        = "=="
	OpNotEqual     = "!="
	OpGreater      = ">"
	OpLess         = "<"
	OpGreaterEqual = ">="
	OpLessEqual    = "<="
)

// Operators lists every supported comparison operator.
var Operators = []string{OpEqual, OpNotEqual, OpGreater, OpLess, OpGreaterEqual, OpLessEqual}

// compareValues applies operator between value and target. Equality is loose:
// numbers, numeric strings and booleans are coerced before comparing. Ordering
// compares two strings lexically and anything else numerically. A null operand
// or an unknown operator never compares true.
func compareValues(value Value, operator string, target Value) bool {
	if value.IsNull() || target.IsNull() {
		return false
	}

	switch operator {
	case OpEqual:
		return looseEqual(value, target)
	case OpNotEqual:
		return !looseEqual(value, target)
	case OpGreater, OpLess, OpGreaterEqual, OpLessEqual:
		c, ok := order(value, target)
		if !ok {
			return false
		}
		switch operator {
		case OpGreater:
			return c > 0
		case OpLess:
			return c < 0
		case OpGreaterEqual:
			return c >= 0
		default:
			return c <= 0
		}
	}

	return false
}

func looseEqual(a, b Value) bool {
	if a.kind == KindList || b.kind == KindList {
		return false
	}
	if a.kind == b.kind {
		return a.StrictEqual(b)
	}
	x, okA := a.toNumber()
	y, okB := b.toNumber()
	return okA && okB && x == y
}

func order(a, b Value) (int, bool) {
	if a.kind == KindList || b.kind == KindList {
		return 0, false
	}
	if a.kind == KindString && b.kind == KindString {
		return strings.Compare(a.str, b.str), true
	}
	x, okA := a.toNumber()
	y, okB := b.toNumber()
	if !okA || !okB {
		return 0, false
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}
