package nl2sql

import (
	"strings"
	"unicode"
)

const fence = "```"

// ExtractSQL recovers the statement text from a reply that may wrap it in a
// markdown code fence or prefix it with a prose preamble, despite repeated
// instructions not to. Already-clean input passes through trimmed, so applying
// the function twice yields the same result.
func ExtractSQL(reply string) string {
	if sql, ok := extractFencedBlock(reply); ok {
		return sql
	}
	if sql, ok := extractAfterPreamble(reply); ok {
		return sql
	}
	return strings.TrimSpace(reply)
}

// extractFencedBlock returns the trimmed text between the first and last
// fence markers. A lone fence, or fences enclosing nothing, is not a match.
func extractFencedBlock(text string) (string, bool) {
	first := strings.Index(text, fence)
	if first < 0 {
		return "", false
	}
	last := strings.LastIndex(text, fence)
	if last <= first+len(fence) {
		return "", false
	}
	return strings.TrimSpace(text[first+len(fence) : last]), true
}

// extractAfterPreamble handles replies like "Here is your query: SELECT ...":
// everything after the first colon is accepted if it starts with a SQL
// keyword.
func extractAfterPreamble(text string) (string, bool) {
	idx := strings.Index(text, ":")
	if idx < 0 {
		return "", false
	}
	rest := strings.TrimLeftFunc(text[idx+1:], unicode.IsSpace)
	upper := strings.ToUpper(rest)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return "", false
	}
	return strings.TrimSpace(rest), true
}
