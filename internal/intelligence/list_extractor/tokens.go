package list_extractor

// Token is one utterance token with its byte span in the concatenated
// utterance.
type Token struct {
	Value     string `json:"value"`
	IsSpace   bool   `json:"is_space"`
	CharStart int    `json:"char_start"`
	CharEnd   int    `json:"char_end"`
}

// isSpace reports whether every rune of s is U+0020. The empty string counts
// as space.
func isSpace(s string) bool {
	for _, r := range s {
		if r != ' ' {
			return false
		}
	}
	return true
}

// ToTokens assigns cumulative byte offsets to values in order.
func ToTokens(values []string) []Token {
	tokens := make([]Token, len(values))
	offset := 0
	for i, v := range values {
		tokens[i] = Token{
			Value:     v,
			IsSpace:   isSpace(v),
			CharStart: offset,
			CharEnd:   offset + len(v),
		}
		offset += len(v)
	}
	return tokens
}

// TakeUntil grows a window of tokens from start toward desiredLength bytes.
// A token is added while the running total is below desiredLength, unless the
// total is already positive and adding the token would land farther from
// desiredLength than stopping. A trailing space token is dropped.
//
// The returned slice shares storage with tokens.
func TakeUntil(tokens []Token, start, desiredLength int) []Token {
	if start < 0 || start >= len(tokens) {
		return nil
	}

	total := 0
	end := start
	for ; end < len(tokens); end++ {
		toAdd := len(tokens[end].Value)
		current := total
		if current > 0 && absInt(desiredLength-current) < absInt(desiredLength-current-toAdd) {
			break
		}
		total += toAdd
		if current >= desiredLength {
			break
		}
	}

	window := tokens[start:end]
	if n := len(window); n > 0 && window[n-1].IsSpace {
		window = window[:n-1]
	}
	return window
}

func tokenValues(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Value
	}
	return out
}

//Personal.AI order the ending
