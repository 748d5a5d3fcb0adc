package list_extractor

import (
	"math"
	"strings"
)

// exactScore compares the two concatenations byte by byte over the shorter
// length and divides the number of equal positions by the longer length.
func exactScore(a, b []string) float64 {
	s1 := strings.Join(a, "")
	s2 := strings.Join(b, "")
	short := min(len(s1), len(s2))

	hits := 0
	for i := 0; i < short; i++ {
		if s1[i] == s2[i] {
			hits++
		}
	}
	return float64(hits) / float64(max(len(s1), len(s2), 1))
}

// fuzzyScore averages Levenshtein similarity and case-insensitive
// Jaro-Winkler over the concatenations.
func fuzzyScore(a, b []string) float64 {
	s1 := strings.Join(a, "")
	s2 := strings.Join(b, "")
	return (LevenshteinSimilarity(s1, s2) + JaroWinklerSimilarity(s1, s2, false)) / 2
}

// structuralScore combines character-set overlap, token quantity and total
// size into sqrt(charset * qty * size).
//
// The quantity factor counts multi-byte tokens of a for both sides and is
// therefore always 1. Existing scores depend on that.
func structuralScore(a, b []string) float64 {
	set1 := uniq(runesOf(a))
	set2 := uniq(runesOf(b))

	exact := float64(intersectionLen(set1, set2)) / float64(max(unionLen(set1, set2), 1))

	low1 := asciiLower(set1)
	low2 := asciiLower(set2)
	folded := float64(intersectionLen(low1, low2)) / float64(max(unionLen(low1, low2), 1))

	charset := (exact + folded) / 2

	la := max(countLonger(a, 1), 1)
	lb := max(countLonger(a, 1), 1)
	qty := ratio(la, lb)

	size := ratio(byteSize(a), byteSize(b))

	return math.Sqrt(charset * qty * size)
}

func runesOf(tokens []string) []rune {
	var out []rune
	for _, t := range tokens {
		out = append(out, []rune(t)...)
	}
	return out
}

// asciiLower lower-cases A-Z only. The result is not deduplicated again.
func asciiLower(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		out[i] = r
	}
	return out
}

func countLonger(tokens []string, n int) int {
	c := 0
	for _, t := range tokens {
		if len(t) > n {
			c++
		}
	}
	return c
}

func byteSize(tokens []string) int {
	n := 0
	for _, t := range tokens {
		n += len(t)
	}
	return n
}

func lowerAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = lower(t)
	}
	return out
}

//Personal.AI order the ending
