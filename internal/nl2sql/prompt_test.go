package nl2sql

import (
	"reflect"
	"strings"
	"testing"
)

func TestRenderSubstitutesPlaceholders(t *testing.T) {
	turns := mainTemplate.Render(map[string]string{
		PlaceholderSchema: "CREATE TABLE t (a INT);",
		PlaceholderIntent: "list everything",
	})
	if len(turns) != len(mainTemplate) {
		t.Fatalf("len(turns) = %d, want %d", len(turns), len(mainTemplate))
	}
	if !strings.Contains(turns[1].Content, "CREATE TABLE t (a INT);") {
		t.Fatalf("schema not substituted: %q", turns[1].Content)
	}
	if turns[len(turns)-1].Content != "list everything" {
		t.Fatalf("intent turn = %q", turns[len(turns)-1].Content)
	}
	for _, turn := range turns {
		if strings.Contains(turn.Content, PlaceholderSchema) || strings.Contains(turn.Content, PlaceholderIntent) {
			t.Fatalf("unsubstituted placeholder in %q", turn.Content)
		}
	}
}

func TestRenderDoesNotMutateTemplate(t *testing.T) {
	snapshot := make(Template, len(mainTemplate))
	copy(snapshot, mainTemplate)

	_ = mainTemplate.Render(map[string]string{
		PlaceholderSchema: "CREATE TABLE x (y INT);",
		PlaceholderIntent: "count rows",
	})

	if !reflect.DeepEqual(snapshot, mainTemplate) {
		t.Fatal("Render mutated the template")
	}
}

func TestRenderLeavesUnmatchedPlaceholdersVerbatim(t *testing.T) {
	turns := reviseTemplate.Render(map[string]string{PlaceholderError: "no such table: t"})
	if turns[0].Content != PlaceholderResponse {
		t.Fatalf("assistant turn = %q", turns[0].Content)
	}
	if !strings.Contains(turns[1].Content, "no such table: t") {
		t.Fatalf("error not substituted: %q", turns[1].Content)
	}
}

func TestRenderUnwrapsParagraphs(t *testing.T) {
	tmpl := Template{{
		Role: RoleUser,
		Content: `
			first line
			continues here.

			second paragraph.
		`,
	}}
	got := tmpl.Render(nil)[0].Content
	want := "first line continues here.\n\nsecond paragraph."
	if got != want {
		t.Fatalf("Render content = %q, want %q", got, want)
	}
}

func TestRenderKeepsNewlinesInSubstitutedValues(t *testing.T) {
	tmpl := Template{{Role: RoleUser, Content: "My schema is:\n\n--SCHEMA--"}}
	schema := "CREATE TABLE a (x INT);\nCREATE TABLE b (y INT);"
	got := tmpl.Render(map[string]string{PlaceholderSchema: schema})[0].Content
	if !strings.Contains(got, schema) {
		t.Fatalf("schema newlines collapsed: %q", got)
	}
}

func TestDedent(t *testing.T) {
	got := dedent("\t\tone\n\t\t\ttwo\n\t\tthree\n")
	want := "one\n\ttwo\nthree\n"
	if got != want {
		t.Fatalf("dedent() = %q, want %q", got, want)
	}
}

func TestCollapseLineBreaks(t *testing.T) {
	if got := collapseLineBreaks("a\nb\nc"); got != "a b c" {
		t.Fatalf("collapseLineBreaks() = %q", got)
	}
	if got := collapseLineBreaks("a\n\nb"); got != "a\n\nb" {
		t.Fatalf("collapseLineBreaks() = %q", got)
	}
}
