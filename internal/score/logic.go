package score

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a logic payload field by field. A field of the wrong
// shape is left absent, so the rule compiles to a matcher that never matches
// instead of failing the whole document.
func (l *Logic) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*l = logicFrom(raw)
	return nil
}

// UnmarshalJSON is the JSON counterpart of UnmarshalYAML.
func (l *Logic) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = logicFrom(raw)
	return nil
}

func logicFrom(raw any) Logic {
	fields, ok := raw.(map[string]any)
	if !ok {
		return Logic{}
	}

	var l Logic
	if condition, ok := fields["condition"].(map[string]any); ok {
		l.Condition = &Condition{Value: ValueOf(condition["value"])}
		l.Condition.Operator, _ = condition["operator"].(string)
	}
	if items, ok := ValueOf(fields["range"]).Items(); ok {
		l.Range = numbers(items)
	}
	l.Threshold = number(fields["threshold"])
	l.MaxDistance = number(fields["maxDistance"])
	if w := number(fields["weight"]); w != nil {
		l.Weight = *w
	}
	if d, ok := fields["direction"].(string); ok {
		l.Direction = Direction(d)
	}
	return l
}

func number(raw any) *float64 {
	n, ok := ValueOf(raw).Float()
	if !ok {
		return nil
	}
	return &n
}

// numbers returns nil unless every item is numeric.
func numbers(items []Value) []float64 {
	out := make([]float64, len(items))
	for i, item := range items {
		n, ok := item.Float()
		if !ok {
			return nil
		}
		out[i] = n
	}
	return out
}
