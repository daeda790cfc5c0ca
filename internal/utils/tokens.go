package utils

// Token estimation for payload budgets. Model tokenizers differ; this
// heuristic only needs to be stable and slightly pessimistic.

// CharsPerToken is the assumed average characters per token.
const CharsPerToken = 4

// CountTokens estimates the number of tokens in the given text.
func CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	tokens := len([]rune(text)) / CharsPerToken
	if tokens == 0 {
		return 1
	}
	return tokens
}

// TruncateRunes cuts s to at most limit runes and appends marker when it
// cut anything. The result is at most limit+len([]rune(marker)) runes.
func TruncateRunes(s string, limit int, marker string) (string, bool) {
	if limit < 0 {
		limit = 0
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s, false
	}
	return string(runes[:limit]) + marker, true
}
