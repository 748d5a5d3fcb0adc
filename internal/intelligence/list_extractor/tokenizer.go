package list_extractor

import "strings"

// Tokenizer splits raw text into the token strings the engine consumes.
// Concatenating the tokens must give back the text so that byte offsets in
// results refer to it.
type Tokenizer func(text string) []string

// SpaceTokenizer splits on U+0020 and keeps every space as its own token.
// Empty pieces are dropped, so "a  b" yields ["a", " ", " ", "b"].
func SpaceTokenizer(text string) []string {
	if text == "" {
		return []string{}
	}
	out := make([]string, 0, strings.Count(text, " ")*2+1)
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != ' ' {
			continue
		}
		if i > start {
			out = append(out, text[start:i])
		}
		out = append(out, " ")
		start = i + 1
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

//Personal.AI order the ending
