package list_extractor

import "slices"

// uniq returns the elements of arr in first-occurrence order without duplicates.
func uniq[T comparable](arr []T) []T {
	out := make([]T, 0, len(arr))
	for _, x := range arr {
		if !slices.Contains(out, x) {
			out = append(out, x)
		}
	}
	return out
}

// intersectionLen counts the elements of a that also appear in b.
// Duplicates in a are counted once per occurrence.
func intersectionLen[T comparable](a, b []T) int {
	n := 0
	for _, x := range a {
		if slices.Contains(b, x) {
			n++
		}
	}
	return n
}

// unionLen is len(a) plus the elements of b that do not appear in a.
func unionLen[T comparable](a, b []T) int {
	n := len(a)
	for _, x := range b {
		if !slices.Contains(a, x) {
			n++
		}
	}
	return n
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// ratio divides min by max of two non-negative counts, flooring the
// denominator at 1.
func ratio(a, b int) float64 {
	return float64(min(a, b)) / float64(max(a, b, 1))
}

//Personal.AI order the ending
