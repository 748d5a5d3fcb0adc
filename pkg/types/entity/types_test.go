package entity

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ListSense/pkg/errors"
)

func splitOnSpace(s string) []string {
	var out []string
	for i, part := range strings.Split(s, " ") {
		if i > 0 {
			out = append(out, " ")
		}
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func TestFuzzyTolerance_Threshold(t *testing.T) {
	tests := []struct {
		in   FuzzyTolerance
		want float64
	}{
		{ToleranceLoose, 0.65},
		{ToleranceMedium, 0.8},
		{ToleranceStrict, 1.0},
		{"MEDIUM", 0.8},
	}
	for _, tc := range tests {
		got, err := tc.in.Threshold()
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := FuzzyTolerance("sloppy").Threshold()
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownTolerance))
}

func TestEntityDefinition_Validate(t *testing.T) {
	valid := EntityDefinition{
		Name:  "fruit",
		Fuzzy: 0.8,
		Values: []ValueDefinition{
			{Name: "Watermelon", Synonyms: []SynonymDefinition{{Tokens: []string{"water", "melon"}}}},
		},
	}
	assert.NoError(t, valid.Validate())
	assert.Equal(t, 1, valid.SynonymCount())

	tests := []struct {
		name   string
		mutate func(d *EntityDefinition)
	}{
		{"empty name", func(d *EntityDefinition) { d.Name = " " }},
		{"fuzzy above one", func(d *EntityDefinition) { d.Fuzzy = 1.2 }},
		{"fuzzy negative", func(d *EntityDefinition) { d.Fuzzy = -0.1 }},
		{"fuzzy NaN", func(d *EntityDefinition) { d.Fuzzy = math.NaN() }},
		{"empty value name", func(d *EntityDefinition) { d.Values[0].Name = "" }},
		{"empty synonym", func(d *EntityDefinition) { d.Values[0].Synonyms[0].Tokens = []string{"", ""} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := valid
			d.Values = []ValueDefinition{{
				Name:     valid.Values[0].Name,
				Synonyms: []SynonymDefinition{{Tokens: append([]string(nil), valid.Values[0].Synonyms[0].Tokens...)}},
			}}
			tc.mutate(&d)
			err := d.Validate()
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidDefinition), "got %v", err)
		})
	}
}

func TestListEntityDef_Compile(t *testing.T) {
	def := ListEntityDef{
		Name:      "airport",
		Tolerance: ToleranceLoose,
		Values: []ListValueDef{
			{Name: "YQB", Synonyms: []string{"Quebec city", "YQB"}},
		},
	}
	got, err := def.Compile(splitOnSpace)
	require.NoError(t, err)
	assert.Equal(t, 0.65, got.Fuzzy)
	assert.Equal(t, []string{"Quebec", " ", "city"}, got.Values[0].Synonyms[0].Tokens)
	assert.Equal(t, "Quebec city", got.Values[0].Synonyms[0].Text())
}

func TestListEntityDef_CompileNumericFuzzy(t *testing.T) {
	f := 0.9
	got, err := ListEntityDef{Name: "x", Fuzzy: &f}.Compile(splitOnSpace)
	require.NoError(t, err)
	assert.Equal(t, 0.9, got.Fuzzy)

	got, err = ListEntityDef{Name: "x"}.Compile(splitOnSpace)
	require.NoError(t, err)
	assert.Equal(t, 0.8, got.Fuzzy)

	_, err = ListEntityDef{Name: "x", Tolerance: "vague"}.Compile(splitOnSpace)
	assert.Error(t, err)
}

//Personal.AI order the ending
