package score

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// NewGuardEnv returns the CEL environment rule guards are compiled in.
//
//	responses  map(string, dyn)  quiz answers
//	attributes map(string, dyn)  product attribute bag
//	priceCents int               product price
func NewGuardEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("responses", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("attributes", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("priceCents", cel.IntType),
	)
	if err != nil {
		return nil, err
	}
	return env, nil
}

// CompileGuard compiles the When expression of r into an executable program.
// The expression must be boolean.
func (r Rule) CompileGuard(env *cel.Env) (cel.Program, error) {
	ast, iss := env.Parse(r.When)
	if iss.Err() != nil {
		return nil, iss.Err()
	}

	checked, iss := env.Check(ast)
	if iss.Err() != nil {
		return nil, iss.Err()
	}

	if !checked.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("guard must be a boolean expression, got %s", checked.OutputType())
	}

	return env.Program(checked)
}

// guardActivation exposes a product and the responses to guard programs.
func guardActivation(product Product, responses Responses) map[string]any {
	return map[string]any{
		"responses":  responses.native(),
		"attributes": product.Attributes.native(),
		"priceCents": product.PriceCents,
	}
}

// guardAllows runs a guard program. Evaluation errors, such as a missing
// map key, count as false.
func guardAllows(program cel.Program, activation map[string]any) bool {
	result, _, err := program.Eval(activation)
	if err != nil {
		return false
	}
	allowed, ok := result.Value().(bool)
	return ok && allowed
}
