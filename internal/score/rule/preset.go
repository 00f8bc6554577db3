// Package rule loads recommendation presets: a scoring config together with
// the quiz response mapping it expects.
package rule

import (
	"errors"
	"fmt"
	"os"

	"quizrec/internal/quiz"
	"quizrec/internal/score"

	"gopkg.in/yaml.v3"
)

var ErrUnnamedPreset = errors.New("preset must have a name")

// Preset bundles everything needed to recommend within one product vertical.
type Preset struct {
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description"`
	Scoring     score.Config `json:"scoring" yaml:"scoring"`
	Responses   quiz.Mapping `json:"responses" yaml:"responses"`
}

// Parse decodes a preset from YAML or JSON. Rule payloads are decoded
// permissively; use Lint for strict structural checks.
func Parse(data []byte) (Preset, error) {
	var preset Preset
	if err := yaml.Unmarshal(data, &preset); err != nil {
		return Preset{}, fmt.Errorf("decode preset: %w", err)
	}
	if preset.Name == "" {
		return Preset{}, ErrUnnamedPreset
	}
	return preset, nil
}

// LoadFromFile reads and parses a preset file.
func LoadFromFile(file string) (Preset, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return Preset{}, err
	}

	preset, err := Parse(content)
	if err != nil {
		return Preset{}, fmt.Errorf("%s: %w", file, err)
	}
	return preset, nil
}

// Engine builds a scoring engine for the preset.
func (p Preset) Engine(opts ...score.Option) (*score.Engine, error) {
	engine, err := score.NewEngine(p.Scoring, opts...)
	if err != nil {
		return nil, fmt.Errorf("preset %s: %w", p.Name, err)
	}
	return engine, nil
}
