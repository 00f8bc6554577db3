package score

// Attributes is the open attribute bag of a product.
type Attributes map[string]Value

// Get returns the attribute stored under key, or null.
func (a Attributes) Get(key string) Value { return a[key] }

func (a Attributes) native() map[string]any {
	out := make(map[string]any, len(a))
	for k, v := range a {
		out[k] = v.Interface()
	}
	return out
}

// Responses maps quiz response keys to answers. Multi-select answers are lists.
type Responses map[string]Value

// Get returns the answer stored under key, or null.
func (r Responses) Get(key string) Value { return r[key] }

func (r Responses) native() map[string]any {
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[k] = v.Interface()
	}
	return out
}

// Product is a catalog item being recommended. Rules only read Attributes;
// PriceCents is conventionally duplicated into Attributes["priceCents"].
type Product struct {
	ID            string            `json:"id" yaml:"id"`
	Name          string            `json:"name" yaml:"name"`
	Brand         string            `json:"brand" yaml:"brand"`
	PriceCents    int64             `json:"priceCents" yaml:"priceCents"`
	ImageURL      string            `json:"imageUrl,omitempty" yaml:"imageUrl"`
	AffiliateURLs map[string]string `json:"affiliateUrls,omitempty" yaml:"affiliateUrls"`
	Attributes    Attributes        `json:"attributes" yaml:"attributes"`
}

// RuleType names one of the rule kinds understood by the engine.
type RuleType string

const (
	RuleExactMatch       RuleType = "exact_match"
	RuleRange            RuleType = "range"
	RuleThreshold        RuleType = "threshold"
	RuleInverseThreshold RuleType = "inverse_threshold"
	RulePreferenceWeight RuleType = "preference_weight"
	RuleContains         RuleType = "contains"
	RuleMultiMatch       RuleType = "multi_match"
)

// RuleTypes lists every supported rule kind.
var RuleTypes = []RuleType{
	RuleExactMatch,
	RuleRange,
	RuleThreshold,
	RuleInverseThreshold,
	RulePreferenceWeight,
	RuleContains,
	RuleMultiMatch,
}

// Direction selects the comparison of an inverse_threshold rule.
type Direction string

const (
	DirectionBelow Direction = "below"
	DirectionAbove Direction = "above"
)

// Condition is the response-side gate of a rule. For exact_match the operator
// is also applied between the product value and Value.
type Condition struct {
	Value    Value  `json:"value" yaml:"value"`
	Operator string `json:"operator,omitempty" yaml:"operator"`
}

// Logic is the type-dependent payload of a rule. Only the fields relevant
// to the rule type are read. Decoding is permissive (see logic.go): a field
// of the wrong type decodes as absent.
type Logic struct {
	Condition   *Condition `json:"condition,omitempty" yaml:"condition"`
	Range       []float64  `json:"range,omitempty" yaml:"range"`
	Threshold   *float64   `json:"threshold,omitempty" yaml:"threshold"`
	Weight      float64    `json:"weight" yaml:"weight"`
	MaxDistance *float64   `json:"maxDistance,omitempty" yaml:"maxDistance"`
	Direction   Direction  `json:"direction,omitempty" yaml:"direction"`
}

// Rule is one unit of scoring logic.
type Rule struct {
	ID               string   `json:"id,omitempty" yaml:"id"`
	Type             RuleType `json:"type" yaml:"type"`
	ResponseKey      string   `json:"responseKey" yaml:"responseKey"`
	ProductAttribute string   `json:"productAttribute" yaml:"productAttribute"`
	Logic            Logic    `json:"logic" yaml:"logic"`
	Reasoning        string   `json:"reasoning,omitempty" yaml:"reasoning"`
	// Enabled defaults to true when omitted.
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled"`
	// When is an optional CEL predicate over responses, attributes and priceCents.
	When string `json:"when,omitempty" yaml:"when"`
}

// IsEnabled reports whether the rule takes part in scoring.
func (r Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Config is the full rule set for one recommendation context.
type Config struct {
	Rules    []Rule   `json:"rules" yaml:"rules"`
	MaxScore float64  `json:"maxScore" yaml:"maxScore"`
	MinScore *float64 `json:"minScore,omitempty" yaml:"minScore"`
}

// RuleMatch records the outcome of one enabled rule.
type RuleMatch struct {
	RuleID  string  `json:"ruleId,omitempty"`
	Matched bool    `json:"matched"`
	Points  float64 `json:"points"`
}

// Result is the score of one product.
type Result struct {
	Score       float64     `json:"score"`
	Reasons     []string    `json:"reasons"`
	RuleMatches []RuleMatch `json:"ruleMatches"`
}

// Recommendation is a product annotated with its score and match reasons.
type Recommendation struct {
	Product
	Score        float64  `json:"score"`
	MatchReasons []string `json:"matchReasons"`
}

// RuleBreakdown is the explain view of one enabled rule.
type RuleBreakdown struct {
	Rule          Rule    `json:"rule"`
	Matched       bool    `json:"matched"`
	Points        float64 `json:"points"`
	ResponseValue Value   `json:"responseValue"`
	ProductValue  Value   `json:"productValue"`
}

// Explanation is a debugging view of a product's score.
type Explanation struct {
	TotalScore float64         `json:"totalScore"`
	MaxScore   float64         `json:"maxScore"`
	Percentage int             `json:"percentage"`
	Breakdown  []RuleBreakdown `json:"breakdown"`
}

// RecommendOptions tunes Recommend. A non-positive Limit means DefaultLimit;
// a nil MinScore falls back to the config floor.
type RecommendOptions struct {
	Limit    int
	MinScore *float64
}

// Recommender is what transports need from the engine.
type Recommender interface {
	Score(product Product, responses Responses) Result
	Recommend(products []Product, responses Responses, opts RecommendOptions) []Recommendation
	Explain(product Product, responses Responses) Explanation
}
