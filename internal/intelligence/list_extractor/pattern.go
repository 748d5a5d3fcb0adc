package list_extractor

import (
	"regexp"
	"strings"

	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

// PatternExtractor matches one regular-expression entity against raw text.
type PatternExtractor struct {
	def entity.PatternEntityDefinition
	re  *regexp.Regexp
}

// NewPatternExtractor compiles def. Matching is case-insensitive unless
// def.MatchCase is set.
func NewPatternExtractor(def entity.PatternEntityDefinition) (*PatternExtractor, error) {
	if strings.TrimSpace(def.Name) == "" {
		return nil, errors.New(errors.ErrCodeInvalidPattern, "pattern entity name is empty")
	}
	if def.Pattern == "" {
		return nil, errors.New(errors.ErrCodeInvalidPattern, "pattern is empty").
			WithDetailf("entity=%s", def.Name)
	}

	expr := def.Pattern
	if !def.MatchCase {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidPattern, "pattern does not compile").
			WithDetailf("entity=%s pattern=%q", def.Name, def.Pattern)
	}
	return &PatternExtractor{def: def, re: re}, nil
}

// Name returns the entity name.
func (p *PatternExtractor) Name() string { return p.def.Name }

// Definition returns the definition the extractor was built from.
func (p *PatternExtractor) Definition() entity.PatternEntityDefinition { return p.def }

// Extract returns every leftmost non-overlapping, non-empty match in text.
func (p *PatternExtractor) Extract(text string) []entity.ExtractionResult {
	results := make([]entity.ExtractionResult, 0)
	for _, loc := range p.re.FindAllStringIndex(text, -1) {
		if loc[0] == loc[1] {
			continue
		}
		match := text[loc[0]:loc[1]]
		results = append(results, entity.ExtractionResult{
			Name:       p.def.Name,
			Value:      match,
			Source:     match,
			Confidence: 1,
			CharStart:  loc[0],
			CharEnd:    loc[1],
		})
	}
	return results
}

// CheckExamples reports the first example that the pattern does not match.
func (p *PatternExtractor) CheckExamples() error {
	for _, ex := range p.def.Examples {
		if !p.re.MatchString(ex) {
			return errors.New(errors.ErrCodeInvalidPattern, "example does not match pattern").
				WithDetailf("entity=%s example=%q", p.def.Name, ex)
		}
	}
	return nil
}

//Personal.AI order the ending
