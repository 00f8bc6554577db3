package score

import (
	"log/slog"
	"math"
)

// defaultMaxDistance is used by preference_weight rules that do not set a positive maxDistance.
const defaultMaxDistance = 10

// outcome is the result of evaluating one rule for one product.
type outcome struct {
	matched bool
	points  float64
}

var noMatch = outcome{}

// matcher is a compiled rule body. Each rule kind has its own implementation
// holding only the fields it needs; malformed payloads compile to neverMatch.
type matcher interface {
	match(response, product Value) outcome
}

// newMatcher compiles the payload of r. It never fails: a payload that cannot
// be evaluated yields a matcher that never matches.
func newMatcher(r Rule) matcher {
	weight := r.Logic.Weight
	if weight < 0 || math.IsNaN(weight) {
		weight = 0
	}

	var gate Value
	if r.Logic.Condition != nil {
		gate = r.Logic.Condition.Value
	}

	switch r.Type {
	case RuleExactMatch:
		if gate.IsNull() {
			return neverMatch{}
		}
		operator := OpEqual
		if r.Logic.Condition.Operator != "" {
			operator = r.Logic.Condition.Operator
		}
		return exactMatch{want: gate, operator: operator, weight: weight}

	case RuleRange:
		if len(r.Logic.Range) != 2 {
			return neverMatch{}
		}
		return rangeMatch{lo: r.Logic.Range[0], hi: r.Logic.Range[1], weight: weight}

	case RuleThreshold:
		if r.Logic.Threshold == nil {
			return neverMatch{}
		}
		return thresholdMatch{gate: gate, threshold: *r.Logic.Threshold, above: true, weight: weight}

	case RuleInverseThreshold:
		if r.Logic.Threshold == nil {
			return neverMatch{}
		}
		above := r.Logic.Direction != "" && r.Logic.Direction != DirectionBelow
		return thresholdMatch{gate: gate, threshold: *r.Logic.Threshold, above: above, weight: weight}

	case RulePreferenceWeight:
		maxDistance := float64(defaultMaxDistance)
		if r.Logic.MaxDistance != nil && *r.Logic.MaxDistance > 0 {
			maxDistance = *r.Logic.MaxDistance
		}
		return preferenceMatch{maxDistance: maxDistance, weight: weight}

	case RuleContains:
		return containsMatch{weight: weight}

	case RuleMultiMatch:
		return multiMatch{weight: weight}
	}

	slog.Warn("Unknown rule type", "rule", r.ID, "type", r.Type)
	return neverMatch{}
}

// exactMatch fires when the response is exactly the condition value and the
// product value satisfies the operator against it.
type exactMatch struct {
	want     Value
	operator string
	weight   float64
}

func (m exactMatch) match(response, product Value) outcome {
	if !response.StrictEqual(m.want) {
		return noMatch
	}
	if !compareValues(product, m.operator, m.want) {
		return noMatch
	}
	return outcome{matched: true, points: m.weight}
}

// rangeMatch fires when a numeric product value lies in [lo, hi].
type rangeMatch struct {
	lo, hi float64
	weight float64
}

func (m rangeMatch) match(_, product Value) outcome {
	n, ok := product.Float()
	if !ok || n < m.lo || n > m.hi {
		return noMatch
	}
	return outcome{matched: true, points: m.weight}
}

// thresholdMatch serves both threshold (above) and inverse_threshold rules.
// A non-null gate must equal the response before the product is tested.
type thresholdMatch struct {
	gate      Value
	threshold float64
	above     bool
	weight    float64
}

func (m thresholdMatch) match(response, product Value) outcome {
	n, ok := product.Float()
	if !ok {
		return noMatch
	}
	if !m.gate.IsNull() && !response.StrictEqual(m.gate) {
		return noMatch
	}

	matched := n <= m.threshold
	if m.above {
		matched = n >= m.threshold
	}
	if !matched {
		return noMatch
	}
	return outcome{matched: true, points: m.weight}
}

// preferenceMatch decays linearly with the distance between the wanted and
// the actual number.
type preferenceMatch struct {
	maxDistance float64
	weight      float64
}

func (m preferenceMatch) match(response, product Value) outcome {
	want, ok := response.Float()
	if !ok {
		return noMatch
	}
	got, ok := product.Float()
	if !ok {
		return noMatch
	}

	normalized := math.Max(0, 1-math.Abs(got-want)/m.maxDistance)
	if !(normalized > 0) {
		return noMatch
	}
	return outcome{matched: true, points: roundHalfUp(normalized * m.weight)}
}

// containsMatch fires when the product list holds the response.
type containsMatch struct {
	weight float64
}

func (m containsMatch) match(response, product Value) outcome {
	if !product.Contains(response) {
		return noMatch
	}
	return outcome{matched: true, points: m.weight}
}

// multiMatch scores the share of selected answers found on the product.
type multiMatch struct {
	weight float64
}

func (m multiMatch) match(response, product Value) outcome {
	wanted, ok := response.Items()
	if !ok || len(wanted) == 0 || product.IsNull() {
		return noMatch
	}

	count := 0
	_, productIsList := product.Items()
	for _, w := range wanted {
		if productIsList {
			if product.Contains(w) {
				count++
			}
		} else if product.StrictEqual(w) {
			count++
		}
	}
	if count == 0 {
		return noMatch
	}

	share := float64(count) / float64(len(wanted))
	return outcome{matched: true, points: roundHalfUp(share * m.weight)}
}

type neverMatch struct{}

func (neverMatch) match(_, _ Value) outcome { return noMatch }

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
