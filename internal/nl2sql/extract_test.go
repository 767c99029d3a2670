package nl2sql

import "testing"

func TestExtractSQLFencedBlock(t *testing.T) {
	got := ExtractSQL("blah\n```\nSELECT 1;\n```\nbye")
	if got != "SELECT 1;" {
		t.Fatalf("ExtractSQL() = %q", got)
	}
}

func TestExtractSQLSingleFenceFallsThrough(t *testing.T) {
	got := ExtractSQL("```\nSELECT 1;")
	if got != "```\nSELECT 1;" {
		t.Fatalf("ExtractSQL() = %q", got)
	}
}

func TestExtractSQLEmptyFenceFallsThrough(t *testing.T) {
	got := ExtractSQL("``````")
	if got != "``````" {
		t.Fatalf("ExtractSQL() = %q", got)
	}
}

func TestExtractSQLPreamble(t *testing.T) {
	got := ExtractSQL("Answer: SELECT * FROM t")
	if got != "SELECT * FROM t" {
		t.Fatalf("ExtractSQL() = %q", got)
	}
}

func TestExtractSQLPreambleNonSQLFallsBackToRaw(t *testing.T) {
	got := ExtractSQL("Sorry: I cannot help")
	if got != "Sorry: I cannot help" {
		t.Fatalf("ExtractSQL() = %q", got)
	}
}

func TestExtractSQLCleanInputIsIdempotent(t *testing.T) {
	clean := "SELECT name FROM customers LIMIT 25;"
	once := ExtractSQL(clean)
	twice := ExtractSQL(once)
	if once != clean || twice != once {
		t.Fatalf("once = %q, twice = %q", once, twice)
	}
}

func TestExtractSQLFencedThenCleanIsIdempotent(t *testing.T) {
	once := ExtractSQL("Here you go:\n```\nWITH x AS (SELECT 1) SELECT * FROM x;\n```")
	twice := ExtractSQL(once)
	if once != "WITH x AS (SELECT 1) SELECT * FROM x;" {
		t.Fatalf("once = %q", once)
	}
	if twice != once {
		t.Fatalf("twice = %q, want %q", twice, once)
	}
}
