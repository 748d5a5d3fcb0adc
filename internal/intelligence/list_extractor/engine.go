package list_extractor

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/turtacn/ListSense/pkg/errors"
	"github.com/turtacn/ListSense/pkg/types/entity"
)

// ScoreThreshold is the minimum structural score a surviving candidate needs
// to become an extraction result.
const ScoreThreshold = 0.6

// lengthBoostExponent dampens the length bonus used to rank overlapping
// candidates.
const lengthBoostExponent = 0.2

// flatSynonym is one synonym of one value, carrying everything candidate
// generation needs.
type flatSynonym struct {
	name          string
	fuzzy         float64
	value         string
	tokens        []string
	length        int
	maxSynonymLen int
}

// candidate is a hypothesised match of one synonym at one token position.
type candidate struct {
	structScore float64
	lengthScore float64
	tokenStart  int
	tokenEnd    int
	name        string
	value       string
	source      string
}

func (c *candidate) covers(tokenIdx int) bool {
	return c.tokenStart <= tokenIdx && tokenIdx <= c.tokenEnd
}

// Stats describes the work done by one extraction.
type Stats struct {
	Synonyms   int
	Candidates int
	Eliminated int
	Results    int
}

func (s *Stats) add(o Stats) {
	s.Synonyms += o.Synonyms
	s.Candidates += o.Candidates
	s.Eliminated += o.Eliminated
	s.Results += o.Results
}

// ─────────────────────────────────────────────────────────────────────────────
// Public entry points
// ─────────────────────────────────────────────────────────────────────────────

// ExtractSingle returns the non-overlapping spans of tokens that match def.
// The definition is assumed valid (see entity.EntityDefinition.Validate).
func ExtractSingle(tokens []string, def entity.EntityDefinition) ([]entity.ExtractionResult, error) {
	results, _, err := extractSingle(ToTokens(tokens), def)
	return results, err
}

// ExtractMultiple runs ExtractSingle for every definition and concatenates
// the results in definition order. Spans of different entities may overlap.
func ExtractMultiple(tokens []string, defs []entity.EntityDefinition) ([]entity.ExtractionResult, error) {
	results, _, err := extractMultiple(ToTokens(tokens), defs)
	return results, err
}

func extractMultiple(utt []Token, defs []entity.EntityDefinition) ([]entity.ExtractionResult, Stats, error) {
	var (
		all   []entity.ExtractionResult
		total Stats
	)
	for _, def := range defs {
		results, stats, err := extractSingle(utt, def)
		if err != nil {
			return nil, total, err
		}
		all = append(all, results...)
		total.add(stats)
	}
	if all == nil {
		all = []entity.ExtractionResult{}
	}
	return all, total, nil
}

// extractSingle converts an index panic inside the engine into an error for
// this call only.
func extractSingle(utt []Token, def entity.EntityDefinition) (results []entity.ExtractionResult, stats Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = errors.New(errors.ErrCodeExtractionFailed, "extraction engine invariant violated").
				WithDetail(fmt.Sprintf("entity=%s: %v", def.Name, r))
		}
	}()
	results, stats = extractList(utt, def)
	return results, stats, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Pipeline
// ─────────────────────────────────────────────────────────────────────────────

func extractList(utt []Token, def entity.EntityDefinition) ([]entity.ExtractionResult, Stats) {
	synonyms := flattenSynonyms(def)

	candidates := make([]candidate, 0, len(synonyms)*len(utt))
	for i := range synonyms {
		candidates = append(candidates, candidatesForSynonym(utt, &synonyms[i])...)
	}

	eliminated := eliminateOverlaps(len(utt), candidates)
	dropped := 0
	for _, e := range eliminated {
		if e {
			dropped++
		}
	}

	kept := keepConfident(candidates, eliminated)
	results := make([]entity.ExtractionResult, 0, len(kept))
	for _, i := range kept {
		c := &candidates[i]
		results = append(results, entity.ExtractionResult{
			Name:       c.name,
			Value:      c.value,
			Source:     c.source,
			Confidence: c.structScore,
			CharStart:  utt[c.tokenStart].CharStart,
			CharEnd:    utt[c.tokenEnd].CharEnd,
		})
	}

	return results, Stats{
		Synonyms:   len(synonyms),
		Candidates: len(candidates),
		Eliminated: dropped,
		Results:    len(results),
	}
}

// keepConfident returns, in candidate order, the indices of the candidates
// that survived elimination and score at least ScoreThreshold.
func keepConfident(candidates []candidate, eliminated []bool) []int {
	var kept []int
	for i := range candidates {
		if eliminated[i] || candidates[i].structScore < ScoreThreshold {
			continue
		}
		kept = append(kept, i)
	}
	return kept
}

// flattenSynonyms emits one record per synonym in definition order.
// maxSynonymLen is shared by every synonym of the same canonical value name.
func flattenSynonyms(def entity.EntityDefinition) []flatSynonym {
	longest := make(map[string]int, len(def.Values))
	for _, v := range def.Values {
		for _, s := range v.Synonyms {
			if n := len(s.Text()); n > longest[v.Name] {
				longest[v.Name] = n
			}
		}
	}

	flat := make([]flatSynonym, 0, def.SynonymCount())
	for _, v := range def.Values {
		for _, s := range v.Synonyms {
			flat = append(flat, flatSynonym{
				name:          def.Name,
				fuzzy:         def.Fuzzy,
				value:         v.Name,
				tokens:        s.Tokens,
				length:        len(s.Text()),
				maxSynonymLen: longest[v.Name],
			})
		}
	}
	return flat
}

// candidatesForSynonym scores syn at every non-space token position. Every
// position yields a candidate, including zero-score ones, so that weak
// matches still compete during overlap elimination.
func candidatesForSynonym(utt []Token, syn *flatSynonym) []candidate {
	out := make([]candidate, 0, len(utt))
	lowerSyn := lowerAll(syn.tokens)

	for i := range utt {
		if utt[i].IsSpace {
			continue
		}

		window := TakeUntil(utt, i, syn.length)
		if len(window) == 0 {
			continue
		}
		workset := tokenValues(window)
		source := strings.Join(workset, "")

		isFuzzy := syn.fuzzy < 1.0 && len(source) >= 4

		exactFactor := 0.0
		if exactScore(workset, syn.tokens) == 1.0 {
			exactFactor = 1.0
		}

		fuzzyFactor := fuzzyScore(lowerAll(workset), lowerSyn)
		if fuzzyFactor < syn.fuzzy {
			fuzzyFactor = 0
		}

		usedFactor := exactFactor
		if isFuzzy {
			usedFactor = fuzzyFactor
		}

		structScore := usedFactor * structuralScore(workset, syn.tokens)
		usedLength := min(len(source), syn.maxSynonymLen)
		lengthScore := structScore * math.Pow(float64(usedLength), lengthBoostExponent)

		out = append(out, candidate{
			structScore: structScore,
			lengthScore: lengthScore,
			tokenStart:  i,
			tokenEnd:    i + len(window) - 1,
			name:        syn.name,
			value:       syn.value,
			source:      source,
		})
	}
	return out
}

// eliminateOverlaps walks every token position and keeps, among the
// candidates still alive that cover it, only the one with the highest
// lengthScore. Ties go to the candidate generated first. An eliminated
// candidate never comes back, so at most one survivor covers any token.
func eliminateOverlaps(tokenCount int, candidates []candidate) []bool {
	eliminated := make([]bool, len(candidates))
	active := make([]int, 0, 16)

	for t := 0; t < tokenCount; t++ {
		active = active[:0]
		for i := range candidates {
			if !eliminated[i] && candidates[i].covers(t) {
				active = append(active, i)
			}
		}
		if len(active) <= 1 {
			continue
		}

		sort.SliceStable(active, func(a, b int) bool {
			return candidates[active[a]].lengthScore > candidates[active[b]].lengthScore
		})
		for _, loser := range active[1:] {
			eliminated[loser] = true
		}
	}
	return eliminated
}

//Personal.AI order the ending
