// Package quiz translates raw quiz answers into the response keys a scoring
// config expects.
package quiz

import (
	"quizrec/internal/score"
)

// Alias copies the answer stored under From to To. Values optionally renames
// string answers on the way; list answers are renamed item by item.
type Alias struct {
	From   string            `json:"from" yaml:"from"`
	To     string            `json:"to" yaml:"to"`
	Values map[string]string `json:"values,omitempty" yaml:"values"`
}

// Derivation sets Set to Value when the multi-select answer under From holds
// any of AnyOf. With KeepExisting an already mapped value wins.
type Derivation struct {
	From         string      `json:"from" yaml:"from"`
	AnyOf        []string    `json:"anyOf" yaml:"anyOf"`
	Set          string      `json:"set" yaml:"set"`
	Value        score.Value `json:"value" yaml:"value"`
	KeepExisting bool        `json:"keepExisting,omitempty" yaml:"keepExisting"`
}

// Mapping describes how quiz question keys become scoring response keys.
type Mapping struct {
	Aliases []Alias      `json:"aliases,omitempty" yaml:"aliases"`
	Derive  []Derivation `json:"derive,omitempty" yaml:"derive"`
}

// IsEmpty reports whether the mapping has no entries.
func (m Mapping) IsEmpty() bool {
	return len(m.Aliases) == 0 && len(m.Derive) == 0
}

// Apply maps raw answers. An empty mapping copies raw unchanged; otherwise
// only mapped keys are produced. Falsy answers are not carried over.
func (m Mapping) Apply(raw score.Responses) score.Responses {
	mapped := make(score.Responses, len(raw))

	if m.IsEmpty() {
		for k, v := range raw {
			mapped[k] = v
		}
		return mapped
	}

	for _, alias := range m.Aliases {
		if v := raw.Get(alias.From); v.Truthy() {
			mapped[alias.To] = alias.rename(v)
		}
	}

	for _, d := range m.Derive {
		if !d.matches(raw.Get(d.From)) {
			continue
		}
		if d.KeepExisting && mapped.Get(d.Set).Truthy() {
			continue
		}
		mapped[d.Set] = d.Value
	}

	return mapped
}

// rename maps a string answer, or each string item of a list answer,
// through Values.
func (a Alias) rename(v score.Value) score.Value {
	if len(a.Values) == 0 {
		return v
	}
	if items, ok := v.Items(); ok {
		renamed := make([]score.Value, len(items))
		for i, item := range items {
			renamed[i] = a.rename(item)
		}
		return score.List(renamed...)
	}
	s, ok := v.Text()
	if !ok {
		return v
	}
	if renamed, ok := a.Values[s]; ok {
		return score.String(renamed)
	}
	return v
}

func (d Derivation) matches(answer score.Value) bool {
	if _, ok := answer.Items(); !ok {
		return false
	}
	for _, option := range d.AnyOf {
		if answer.Contains(score.String(option)) {
			return true
		}
	}
	return false
}
