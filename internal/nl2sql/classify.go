package nl2sql

import "strings"

// IsTextAnswer reports whether a model reply is prose rather than a SQL
// candidate. The model is instructed to emit bare SQL but answers in English
// when refusing a request or replying to a general question. Inline -- comment
// lines are ignored first, so a commented statement still reads as SQL; the
// remainder is a SQL candidate only if it starts with SELECT or WITH. This is
// a deliberate string heuristic, not a parser.
func IsTextAnswer(reply string) bool {
	var kept []string
	for _, line := range strings.Split(reply, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	joined := strings.TrimSpace(strings.ToUpper(strings.Join(kept, "\n")))
	return !strings.HasPrefix(joined, "SELECT") && !strings.HasPrefix(joined, "WITH")
}
