package list_extractor

import (
	"reflect"
	"testing"
)

func TestExactScore(t *testing.T) {
	tests := []struct {
		a, b []string
		want float64
	}{
		{[]string{"hello"}, []string{"hello"}, 1},
		{[]string{"hel", "lo"}, []string{"hello"}, 1},
		{[]string{"abc"}, []string{"abd"}, 2.0 / 3.0},
		{[]string{"ab"}, []string{"abcd"}, 0.5},
		{[]string{"Hello"}, []string{"hello"}, 0.8},
	}
	for _, tt := range tests {
		if got := exactScore(tt.a, tt.b); !approxEqual(got, tt.want, 1e-9) {
			t.Errorf("exactScore(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFuzzyScore(t *testing.T) {
	if got := fuzzyScore([]string{"testing"}, []string{"tesing"}); !approxEqual(got, 0.9119, 1e-4) {
		t.Errorf("expected ~0.9119, got %f", got)
	}
	if got := fuzzyScore([]string{"water", "meln"}, []string{"water", "melon"}); !approxEqual(got, 0.94, 1e-4) {
		t.Errorf("expected ~0.94, got %f", got)
	}
}

func TestStructuralScore(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"ab"}, []string{"ab"}, 1},
		{"case only", []string{"Blueberries"}, []string{"blueberries"}, 0.968246},
		{"subset", []string{"a", "b"}, []string{"abc"}, 0.666667},
		{"shorter source", []string{"apple"}, []string{"Apple", " ", "Inc"}, 0.481125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := structuralScore(tt.a, tt.b); !approxEqual(got, tt.want, 1e-6) {
				t.Errorf("structuralScore(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestStructuralScore_Range(t *testing.T) {
	inputs := [][]string{{"a"}, {"abc", "def"}, {"Ω"}, {"x", " ", "y"}, {"apple"}}
	for _, a := range inputs {
		for _, b := range inputs {
			got := structuralScore(a, b)
			if got < 0 || got > 1 {
				t.Errorf("structuralScore(%q, %q) = %f out of range", a, b, got)
			}
		}
	}
}

func TestSetHelpers(t *testing.T) {
	if got := uniq([]rune("banana")); !reflect.DeepEqual(got, []rune("ban")) {
		t.Errorf("uniq = %q, want %q", string(got), "ban")
	}
	if got := intersectionLen([]int{1, 1, 2}, []int{1, 3}); got != 2 {
		t.Errorf("intersectionLen = %d, want 2", got)
	}
	if got := unionLen([]int{1, 2}, []int{2, 3, 4}); got != 4 {
		t.Errorf("unionLen = %d, want 4", got)
	}
	if got := ratio(0, 0); got != 0 {
		t.Errorf("ratio(0,0) = %f, want 0", got)
	}
	if got := asciiLower([]rune("AbÉ")); string(got) != "abÉ" {
		t.Errorf("asciiLower = %q, want %q", string(got), "abÉ")
	}
}

//Personal.AI order the ending
