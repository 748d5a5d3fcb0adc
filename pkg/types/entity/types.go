// Package entity defines the public data shapes exchanged with the list
// entity extraction engine: entity definitions going in, extraction results
// coming out, and the catalog-file forms that compile into them.
package entity

import (
	"math"
	"strings"

	"github.com/turtacn/ListSense/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fuzzy tolerance
// ─────────────────────────────────────────────────────────────────────────────

// FuzzyTolerance is a named fuzzy threshold.
type FuzzyTolerance string

const (
	ToleranceLoose  FuzzyTolerance = "loose"
	ToleranceMedium FuzzyTolerance = "medium"
	ToleranceStrict FuzzyTolerance = "strict"
)

var toleranceThresholds = map[FuzzyTolerance]float64{
	ToleranceLoose:  0.65,
	ToleranceMedium: 0.8,
	ToleranceStrict: 1.0,
}

// Threshold returns the numeric fuzzy threshold of a named tolerance.
func (t FuzzyTolerance) Threshold() (float64, error) {
	v, ok := toleranceThresholds[FuzzyTolerance(strings.ToLower(string(t)))]
	if !ok {
		return 0, errors.New(errors.ErrCodeUnknownTolerance, "unknown fuzzy tolerance").
			WithDetailf("tolerance=%q, expected loose, medium or strict", string(t))
	}
	return v, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Engine input
// ─────────────────────────────────────────────────────────────────────────────

// SynonymDefinition is one literal surface form, pre-split into sub-tokens
// whose concatenation is matched against the utterance.
type SynonymDefinition struct {
	Tokens []string `json:"tokens" yaml:"tokens"`
}

// Text returns the concatenated surface form.
func (s SynonymDefinition) Text() string {
	return strings.Join(s.Tokens, "")
}

// ValueDefinition is a canonical value and the synonyms that resolve to it.
type ValueDefinition struct {
	Name     string              `json:"name" yaml:"name"`
	Synonyms []SynonymDefinition `json:"synonyms" yaml:"synonyms"`
}

// EntityDefinition is a named list entity. Fuzzy is the minimum fuzzy score
// in [0, 1]; 1 disables fuzzy matching.
type EntityDefinition struct {
	Name   string            `json:"name" yaml:"name"`
	Fuzzy  float64           `json:"fuzzy" yaml:"fuzzy"`
	Values []ValueDefinition `json:"values" yaml:"values"`
}

// Validate checks the invariants the engine relies on.
func (d *EntityDefinition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.InvalidDefinition("entity name is empty")
	}
	if math.IsNaN(d.Fuzzy) || d.Fuzzy < 0 || d.Fuzzy > 1 {
		return errors.InvalidDefinition("fuzzy must be within [0, 1]").
			WithDetailf("entity=%s fuzzy=%v", d.Name, d.Fuzzy)
	}
	for vi, v := range d.Values {
		if v.Name == "" {
			return errors.InvalidDefinition("value name is empty").
				WithDetailf("entity=%s value_index=%d", d.Name, vi)
		}
		for si, s := range v.Synonyms {
			if s.Text() == "" {
				return errors.InvalidDefinition("synonym is empty").
					WithDetailf("entity=%s value=%s synonym_index=%d", d.Name, v.Name, si)
			}
		}
	}
	return nil
}

// SynonymCount returns the number of synonyms across all values.
func (d *EntityDefinition) SynonymCount() int {
	n := 0
	for _, v := range d.Values {
		n += len(v.Synonyms)
	}
	return n
}

// ─────────────────────────────────────────────────────────────────────────────
// Engine output
// ─────────────────────────────────────────────────────────────────────────────

// ExtractionResult is one matched span. CharStart and CharEnd are byte
// offsets into the concatenation of the utterance tokens.
type ExtractionResult struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
	CharStart  int     `json:"char_start"`
	CharEnd    int     `json:"char_end"`
}

// Kind distinguishes list matches from pattern matches.
type Kind string

const (
	KindList    Kind = "list"
	KindPattern Kind = "pattern"
)

// Entity is an ExtractionResult tagged with the extractor kind that produced it.
type Entity struct {
	Type Kind `json:"type"`
	ExtractionResult
}

// ─────────────────────────────────────────────────────────────────────────────
// Catalog forms
// ─────────────────────────────────────────────────────────────────────────────

// ListValueDef is a canonical value with synonyms written as plain text.
type ListValueDef struct {
	Name     string   `json:"name" yaml:"name"`
	Synonyms []string `json:"synonyms" yaml:"synonyms"`
}

// ListEntityDef is the human-authored form of a list entity. Exactly one of
// Tolerance or Fuzzy is expected; Tolerance wins when both are set.
type ListEntityDef struct {
	Name      string         `json:"name" yaml:"name"`
	Tolerance FuzzyTolerance `json:"tolerance,omitempty" yaml:"tolerance,omitempty"`
	Fuzzy     *float64       `json:"fuzzy,omitempty" yaml:"fuzzy,omitempty"`
	Values    []ListValueDef `json:"values" yaml:"values"`
}

// Compile converts the definition into an EntityDefinition, splitting every
// synonym with tokenize. The result is validated.
func (d ListEntityDef) Compile(tokenize func(string) []string) (EntityDefinition, error) {
	fuzzy := toleranceThresholds[ToleranceMedium]
	switch {
	case d.Tolerance != "":
		v, err := d.Tolerance.Threshold()
		if err != nil {
			return EntityDefinition{}, err
		}
		fuzzy = v
	case d.Fuzzy != nil:
		fuzzy = *d.Fuzzy
	}

	out := EntityDefinition{
		Name:   d.Name,
		Fuzzy:  fuzzy,
		Values: make([]ValueDefinition, 0, len(d.Values)),
	}
	for _, v := range d.Values {
		vd := ValueDefinition{Name: v.Name, Synonyms: make([]SynonymDefinition, 0, len(v.Synonyms))}
		for _, syn := range v.Synonyms {
			vd.Synonyms = append(vd.Synonyms, SynonymDefinition{Tokens: tokenize(syn)})
		}
		out.Values = append(out.Values, vd)
	}
	if err := out.Validate(); err != nil {
		return EntityDefinition{}, err
	}
	return out, nil
}

// PatternEntityDefinition is a regular-expression entity.
type PatternEntityDefinition struct {
	Name      string   `json:"name" yaml:"name"`
	Pattern   string   `json:"pattern" yaml:"pattern"`
	MatchCase bool     `json:"match_case,omitempty" yaml:"match_case,omitempty"`
	Examples  []string `json:"examples,omitempty" yaml:"examples,omitempty"`
	Sensitive bool     `json:"sensitive,omitempty" yaml:"sensitive,omitempty"`
}

//Personal.AI order the ending
