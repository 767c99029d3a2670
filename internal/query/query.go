package query

import (
	"context"
	"time"
)

// Result is a tabular query result: column names plus rows in column order.
type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

// Engine executes a single SQL statement against the target database.
type Engine interface {
	Execute(ctx context.Context, sqlText string) (Result, error)
}
