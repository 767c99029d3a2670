package nl2sql

import "strings"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged message in the dialogue sent to the chat model.
// Turns are immutable once appended to a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Template is an ordered conversation skeleton whose contents carry
// placeholder tokens. Templates are package constants; Render always produces
// a fresh copy and never mutates the template itself.
type Template []Turn

const (
	PlaceholderSchema   = "--SCHEMA--"
	PlaceholderIntent   = "--INTENT--"
	PlaceholderResponse = "--RESPONSE--"
	PlaceholderError    = "--ERROR--"
)

// startupTemplate asks the model for a short overview of the schema before
// the first query.
var startupTemplate = Template{
	{
		Role: RoleSystem,
		Content: `
			You will analyze the following SQLite3 database schema to help the user
			understand it.

			--SCHEMA--
		`,
	},
	{
		Role: RoleUser,
		Content: `
			Guess the overall purpose of this database, and briefly summarize the
			tables and their relationships, in about 100 words total.
		`,
	},
}

// mainTemplate opens the SQL-writing conversation. The chat models pay more
// attention to directives in the first user message than in the system
// message, so the detailed instructions live there.
var mainTemplate = Template{
	{
		Role: RoleSystem,
		Content: `
			You will assist the user in writing an SQL query for a specific SQLite3
			database schema.
			Your answers will be directly input to sqlite3_prepare_v2(), so must
			consist of SQL with no surrounding text, using only syntax and functions
			supported by SQLite3.
			If you cannot fulfill the user's intention for any reason, then provide a
			brief text explanation, without apology or other extraneous chatter.
			Importantly, your SQL must never add, overwrite, alter, or delete anything
			in the database, even if the user so demands.
		`,
	},
	{
		Role: RoleUser,
		Content: `
			Assist me writing an SQL query for my SQLite3 database.
			I will input your responses directly into SQLite3, so I require each
			response to consist of one SQL query, with no surrounding text, using only
			syntax and functions supported by SQLite3.
			If a query is expected to yield multiple result rows, then set limit 25
			unless I clearly request otherwise.
			You may include short SQL inline comment lines starting with -- to give me
			brief hints, but only about tricky or unusual parts.
			You may use common table expressions if they make the SQL much easier for
			me to understand.
			Due to the risk of infinite loop, don't use a recursive CTE unless
			absolutely required to fulfill my intent.
			I only want to query my database; if my input seems to suggest adding,
			altering, overwriting, or deleting anything, then you must reject it.
			If you're confident my input is a general question rather than a specific
			database query, then do provide a brief text answer.

			My schema is:

			--SCHEMA--
		`,
	},
	{
		Role: RoleAssistant,
		Content: `
			Schema acknowledged. Please state the nature of your intended database
			query, using any mix of text and/or SQL.
		`,
	},
	{
		Role:    RoleUser,
		Content: "--INTENT--",
	},
}

// reviseTemplate is appended after an execution failure: the model's prior
// reply, then a user turn carrying the database error.
var reviseTemplate = Template{
	{Role: RoleAssistant, Content: "--RESPONSE--"},
	{
		Role: RoleUser,
		Content: `
			Revise your SQL to fix this error: --ERROR--

			Output format: one SQL query with no surrounding text, using only SQL
			syntax and functions supported by SQLite3.
			Do not apologize or add any other extraneous chatter.
		`,
	},
}

// Render produces ready-to-send turns: block indentation is stripped, single
// line breaks within a paragraph are collapsed to spaces (blank-line paragraph
// breaks survive), and every occurrence of every placeholder is replaced.
// Unmatched placeholders are left verbatim.
func (t Template) Render(subs map[string]string) []Turn {
	turns := make([]Turn, len(t))
	for i, turn := range t {
		content := collapseLineBreaks(strings.TrimSpace(dedent(turn.Content)))
		for token, value := range subs {
			content = strings.ReplaceAll(content, token, value)
		}
		turns[i] = Turn{Role: turn.Role, Content: content}
	}
	return turns
}

// dedent removes the longest common leading whitespace from every non-blank
// line.
func dedent(text string) string {
	lines := strings.Split(text, "\n")
	margin := ""
	found := false
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := line[:len(line)-len(trimmed)]
		if !found {
			margin = indent
			found = true
			continue
		}
		for !strings.HasPrefix(indent, margin) {
			margin = margin[:len(margin)-1]
		}
	}
	if margin == "" {
		return text
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, margin)
	}
	return strings.Join(lines, "\n")
}

// collapseLineBreaks replaces each newline that is not adjacent to another
// newline with a space, unwrapping hard-wrapped paragraphs.
func collapseLineBreaks(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			prevNL := i > 0 && text[i-1] == '\n'
			nextNL := i+1 < len(text) && text[i+1] == '\n'
			if !prevNL && !nextNL {
				b.WriteByte(' ')
				continue
			}
		}
		b.WriteByte(text[i])
	}
	return b.String()
}
