package rule

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"quizrec/internal/score"

	"github.com/google/cel-go/cel"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed preset.schema.json
var presetSchemaJSON string

var printer = message.NewPrinter(language.English)

var presetSchema = mustCompileSchema(presetSchemaJSON, "preset.schema.json")

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	schema, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return schema
}

// Lint checks a preset document strictly and returns one "/path: message"
// line per problem. A nil result means the preset is clean.
//
// Beyond the schema it rejects duplicate rule ids and guards that do not
// compile, both of which the engine would otherwise tolerate silently.
func Lint(data []byte) []string {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []string{fmt.Sprintf("/: YAML parse error: %v", err)}
	}

	if errs := validate(doc); len(errs) > 0 {
		return errs
	}

	preset, err := Parse(data)
	if err != nil {
		return []string{fmt.Sprintf("/: %v", err)}
	}
	return lintRules(preset.Scoring.Rules)
}

func validate(doc any) []string {
	err := presetSchema.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{fmt.Sprintf("/: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		*errs = append(*errs, fmt.Sprintf("/%s: %s", strings.Join(ve.InstanceLocation, "/"), ve.ErrorKind.LocalizedString(printer)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

func lintRules(rules []score.Rule) []string {
	var errs []string

	seen := make(map[string]int, len(rules))
	for i, r := range rules {
		if r.ID == "" {
			continue
		}
		if first, ok := seen[r.ID]; ok {
			errs = append(errs, fmt.Sprintf("/scoring/rules/%d/id: duplicate rule id %q, first used by rule %d", i, r.ID, first))
			continue
		}
		seen[r.ID] = i
	}

	var env *cel.Env
	for i, r := range rules {
		if r.When == "" {
			continue
		}
		if env == nil {
			e, err := score.NewGuardEnv()
			if err != nil {
				return append(errs, fmt.Sprintf("/: %v", err))
			}
			env = e
		}
		if _, err := r.CompileGuard(env); err != nil {
			errs = append(errs, fmt.Sprintf("/scoring/rules/%d/when: %v", i, err))
		}
	}

	return errs
}
