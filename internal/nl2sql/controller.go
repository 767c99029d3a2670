package nl2sql

import (
	"context"
	"io"
	"log/slog"

	"github.com/sqlpilot/sqlpilot/internal/query"
)

// DefaultMaxRevisions bounds how many times the model may attempt to produce
// runnable SQL for one intent.
const DefaultMaxRevisions = 3

// Outcome is the terminal state of one generate/execute/correct cycle.
type Outcome int

const (
	// OutcomeSuccess means a generated statement executed without error.
	OutcomeSuccess Outcome = iota
	// OutcomeAnswer means the model replied in prose, either answering a
	// general question or refusing a disallowed request.
	OutcomeAnswer
	// OutcomeDeclined means the user chose not to execute the candidate
	// statement; the database was left untouched.
	OutcomeDeclined
	// OutcomeExhausted means every attempt produced a statement the database
	// rejected.
	OutcomeExhausted
)

// RunResult describes how a cycle ended.
type RunResult struct {
	Outcome  Outcome
	SQL      string       // last candidate statement (Success, Declined)
	Answer   string       // prose reply, surfaced verbatim (Answer)
	Table    query.Result // populated on Success
	Attempts int          // generation calls actually made
}

// Controller drives one user intent through generation, classification,
// confirmation, execution, and bounded conversational self-correction. Any
// execution failure is treated uniformly: its message is fed back to the model
// via Session.Revise and the loop retries until the revision bound is hit.
// LLM transport errors are not retried; they propagate to the caller.
type Controller struct {
	MaxRevisions int
	Executor     query.Engine
	Logger       *slog.Logger

	// Confirm gates execution of a candidate statement. A nil Confirm always
	// executes.
	Confirm func(sqlText string) bool

	// OnSQL is called with each candidate statement before confirmation.
	OnSQL func(sqlText string)
	// OnExecError is called with each execution failure before the revision
	// round that follows it.
	OnExecError func(errMsg string)
}

// Run processes a session to a terminal state. The bound check happens before
// generation, so no LLM call is made once attempts are exhausted.
func (c *Controller) Run(ctx context.Context, session *Session) (RunResult, error) {
	maxAttempts := c.MaxRevisions
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxRevisions
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	attempts := 0
	for {
		attempts++
		if attempts > maxAttempts {
			logger.Debug("revision attempts exhausted", slog.Int("max_revisions", maxAttempts))
			return RunResult{Outcome: OutcomeExhausted, Attempts: maxAttempts}, nil
		}

		candidate, err := session.Fetch(ctx)
		if err != nil {
			return RunResult{Attempts: attempts}, err
		}
		if IsTextAnswer(candidate) {
			return RunResult{Outcome: OutcomeAnswer, Answer: candidate, Attempts: attempts}, nil
		}

		if c.OnSQL != nil {
			c.OnSQL(candidate)
		}
		if c.Confirm != nil && !c.Confirm(candidate) {
			return RunResult{Outcome: OutcomeDeclined, SQL: candidate, Attempts: attempts}, nil
		}

		result, execErr := c.Executor.Execute(ctx, candidate)
		if execErr != nil {
			logger.Debug("database rejected statement",
				slog.Int("attempt", attempts),
				slog.String("error", execErr.Error()),
			)
			if c.OnExecError != nil {
				c.OnExecError(execErr.Error())
			}
			if err := session.Revise(execErr.Error()); err != nil {
				return RunResult{Attempts: attempts}, err
			}
			continue
		}

		return RunResult{Outcome: OutcomeSuccess, SQL: candidate, Table: result, Attempts: attempts}, nil
	}
}
