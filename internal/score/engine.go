package score

import (
	"errors"
	"log/slog"
	"math"
	"runtime"
	"slices"

	"github.com/google/cel-go/cel"
)

var (
	// ErrNoRules is returned by NewEngine for a config without rules.
	ErrNoRules = errors.New("scoring config must have at least one rule")
	// ErrNonPositiveMaxScore is returned by NewEngine when MaxScore is not positive.
	ErrNonPositiveMaxScore = errors.New("scoring config must have a positive maxScore")
)

// compiledRule is an enabled rule ready for evaluation.
type compiledRule struct {
	rule    Rule
	matcher matcher
	guard   cel.Program
}

// Engine scores products against quiz responses using a fixed rule config.
// It is immutable after construction and safe for concurrent use.
type Engine struct {
	config    Config
	rules     []compiledRule
	hasGuards bool
	workers   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds the number of goroutines Recommend uses on large catalogs.
// 1 keeps scoring on the calling goroutine; non-positive values keep the
// GOMAXPROCS default.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewEngine validates config and compiles its enabled rules.
//
// Only an empty rule set and a non-positive MaxScore are rejected. Rules with
// unknown types, malformed payloads or guards that do not compile are kept
// but never match, so one bad rule cannot break scoring for a whole catalog.
func NewEngine(config Config, opts ...Option) (*Engine, error) {
	if len(config.Rules) == 0 {
		return nil, ErrNoRules
	}
	if !(config.MaxScore > 0) {
		return nil, ErrNonPositiveMaxScore
	}

	config.Rules = slices.Clone(config.Rules)
	engine := Engine{
		config:  config,
		rules:   make([]compiledRule, 0, len(config.Rules)),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(&engine)
	}

	var env *cel.Env
	for _, rule := range config.Rules {
		if !rule.IsEnabled() {
			continue
		}

		compiled := compiledRule{rule: rule, matcher: newMatcher(rule)}
		if rule.When != "" {
			program, err := compileGuard(&env, rule)
			if err != nil {
				slog.Warn("Rule guard does not compile, rule will never match", "rule", rule.ID, "when", rule.When, "error", err)
				compiled.matcher = neverMatch{}
			} else {
				compiled.guard = program
				engine.hasGuards = true
			}
		}
		engine.rules = append(engine.rules, compiled)
	}

	return &engine, nil
}

func compileGuard(env **cel.Env, rule Rule) (cel.Program, error) {
	if *env == nil {
		e, err := NewGuardEnv()
		if err != nil {
			return nil, err
		}
		*env = e
	}
	return rule.CompileGuard(*env)
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.config
}

// evaluation is one enabled rule applied to one product.
type evaluation struct {
	rule     *Rule
	response Value
	product  Value
	outcome  outcome
}

// evaluate applies every enabled rule in config order and hands each result
// to visit. Score and Explain are both folds over this walk.
func (e *Engine) evaluate(product Product, responses Responses, visit func(evaluation)) {
	var activation map[string]any

	for i := range e.rules {
		compiled := &e.rules[i]
		ev := evaluation{
			rule:     &compiled.rule,
			response: responses.Get(compiled.rule.ResponseKey),
			product:  product.Attributes.Get(compiled.rule.ProductAttribute),
		}

		if !ev.response.IsNull() {
			allowed := true
			if compiled.guard != nil {
				if activation == nil {
					activation = guardActivation(product, responses)
				}
				allowed = guardAllows(compiled.guard, activation)
			}
			if allowed {
				ev.outcome = compiled.matcher.match(ev.response, ev.product)
			}
		}

		visit(ev)
	}
}

// Score evaluates every enabled rule against product and caps the total at MaxScore.
func (e *Engine) Score(product Product, responses Responses) Result {
	var total float64
	result := Result{
		Reasons:     []string{},
		RuleMatches: make([]RuleMatch, 0, len(e.rules)),
	}

	e.evaluate(product, responses, func(ev evaluation) {
		result.RuleMatches = append(result.RuleMatches, RuleMatch{
			RuleID:  ev.rule.ID,
			Matched: ev.outcome.matched,
			Points:  ev.outcome.points,
		})
		if !ev.outcome.matched {
			return
		}
		total += ev.outcome.points
		if ev.rule.Reasoning != "" {
			result.Reasons = append(result.Reasons, ev.rule.Reasoning)
		}
	})

	result.Score = e.capped(total)
	return result
}

// Explain returns the per-rule breakdown of a product's score, including rules
// that did not match.
func (e *Engine) Explain(product Product, responses Responses) Explanation {
	var total float64
	explanation := Explanation{
		MaxScore:  e.config.MaxScore,
		Breakdown: make([]RuleBreakdown, 0, len(e.rules)),
	}

	e.evaluate(product, responses, func(ev evaluation) {
		if ev.outcome.matched {
			total += ev.outcome.points
		}
		explanation.Breakdown = append(explanation.Breakdown, RuleBreakdown{
			Rule:          *ev.rule,
			Matched:       ev.outcome.matched,
			Points:        ev.outcome.points,
			ResponseValue: ev.response,
			ProductValue:  ev.product,
		})
	})

	explanation.TotalScore = e.capped(total)
	explanation.Percentage = int(roundHalfUp(explanation.TotalScore / e.config.MaxScore * 100))
	return explanation
}

func (e *Engine) capped(total float64) float64 {
	return math.Min(total, e.config.MaxScore)
}
