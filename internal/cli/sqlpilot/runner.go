package sqlpilot

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"

	"github.com/sqlpilot/sqlpilot/internal/config"
	"github.com/sqlpilot/sqlpilot/internal/nl2sql"
	"github.com/sqlpilot/sqlpilot/internal/observability"
	"github.com/sqlpilot/sqlpilot/internal/query"
	sqliteengine "github.com/sqlpilot/sqlpilot/internal/query/sqlite"
	"github.com/sqlpilot/sqlpilot/internal/render"
)

// Database is the execution collaborator: it runs statements and serves the
// schema text substituted into prompts.
type Database interface {
	Execute(ctx context.Context, sqlText string) (query.Result, error)
	Schema(ctx context.Context) (string, error)
	Close() error
}

// Prompter supplies user input lines. io.EOF ends the REPL.
type Prompter interface {
	Prompt(text string) (string, error)
	Close() error
}

type Options struct {
	Config       config.Config
	Logger       *slog.Logger
	Client       nl2sql.Client
	OpenDatabase func(path string) (Database, error)
	Prompter     Prompter
	NoSpinner    bool
	Stdout       io.Writer
	Stderr       io.Writer
}

// Run is the whole CLI: parse flags, open the database read-only, describe the
// schema, then loop on user intents until EOF or interrupt.
func Run(ctx context.Context, args []string, opts Options) int {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg := opts.Config

	fs := flag.NewFlagSet("sqlpilot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { writeUsage(stderr, fs) }

	model := fs.String("m", cfg.AI.Model, "chat completions model")
	revisions := fs.Int("r", cfg.AI.MaxRevisions, "allow the model up to N attempts to produce valid SQL")
	yes := fs.Bool("y", cfg.Query.AutoConfirm, "skip confirmation before executing generated SQL")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		writeUsage(stderr, fs)
		return 2
	}
	if *revisions < 1 {
		_, _ = fmt.Fprintln(stderr, "-r must be a positive integer")
		return 2
	}
	dbPath := fs.Arg(0)

	if strings.TrimSpace(cfg.AI.APIKey) == "" {
		_, _ = fmt.Fprintln(stderr, "OPENAI_API_KEY (or SQLPILOT_AI_API_KEY) required"+
			"; see https://platform.openai.com/account/api-keys")
		return 1
	}

	client := opts.Client
	if client == nil {
		openAIClient, err := nl2sql.NewOpenAIClient(nl2sql.OpenAIConfig{
			BaseURL:     cfg.AI.BaseURL,
			APIKey:      cfg.AI.APIKey,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.Timeout,
		})
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "configure model client: %v\n", err)
			return 1
		}
		client = openAIClient
	}

	openDatabase := opts.OpenDatabase
	if openDatabase == nil {
		openDatabase = func(path string) (Database, error) { return sqliteengine.Open(path) }
	}
	db, err := openDatabase(dbPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer func() { _ = db.Close() }()

	r := &runner{
		stdout:    stdout,
		stderr:    stderr,
		logger:    logger,
		width:     cfg.Query.DisplayWidth,
		noSpinner: opts.NoSpinner,
	}

	schema, err := db.Schema(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	var description string
	err = r.spin("Analyzing schema of "+filepath.Base(dbPath), func() error {
		var describeErr error
		description, describeErr = nl2sql.Describe(ctx, client, *model, schema)
		return describeErr
	})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(stdout, "\n"+render.Wrap(description, r.width))

	prompter := opts.Prompter
	if prompter == nil {
		readlinePrompter, promptErr := newReadlinePrompter()
		if promptErr != nil {
			_, _ = fmt.Fprintf(stderr, "initialize prompt: %v\n", promptErr)
			return 1
		}
		prompter = readlinePrompter
	}
	defer func() { _ = prompter.Close() }()

	return r.repl(ctx, prompter, client, db, *model, schema, *revisions, *yes)
}

type runner struct {
	stdout    io.Writer
	stderr    io.Writer
	logger    *slog.Logger
	width     int
	noSpinner bool
}

// repl processes one intent at a time to a terminal state; sessions are never
// shared or reused across intents.
func (r *runner) repl(ctx context.Context, prompter Prompter, client nl2sql.Client, db Database, model, schema string, revisions int, yes bool) int {
	first := true
	for {
		intent, err := r.userIntent(prompter, first)
		if err != nil {
			_, _ = fmt.Fprintln(r.stdout)
			return 0
		}
		first = false

		session := nl2sql.NewSession(
			&spinnerClient{inner: client, run: r, max: revisions},
			model, schema, intent,
		)
		controller := &nl2sql.Controller{
			MaxRevisions: revisions,
			Executor:     &meteredDatabase{db: db, run: r},
			Logger:       r.logger,
			OnSQL: func(sqlText string) {
				_, _ = fmt.Fprintf(r.stdout, "\n%s\n", sqlText)
			},
			OnExecError: func(msg string) {
				_, _ = fmt.Fprintf(r.stdout, "\nSQLite3 error: %s\n", msg)
			},
		}
		if !yes {
			controller.Confirm = func(string) bool { return r.confirmExecute(prompter) }
		}

		result, err := controller.Run(ctx, session)
		if err != nil {
			_, _ = fmt.Fprintf(r.stderr, "request failed: %v\n", err)
			return 1
		}
		switch result.Outcome {
		case nl2sql.OutcomeAnswer:
			_, _ = fmt.Fprintln(r.stdout, "\n"+render.Wrap(result.Answer, r.width))
		case nl2sql.OutcomeSuccess:
			_, _ = fmt.Fprintln(r.stdout)
			render.Table(r.stdout, result.Table)
		case nl2sql.OutcomeExhausted:
			_, _ = fmt.Fprintf(r.stdout, "\nNo runnable SQL after %d attempts.\n", result.Attempts)
		case nl2sql.OutcomeDeclined:
			// nothing to show; the database was not touched
		}
	}
}

func (r *runner) userIntent(prompter Prompter, first bool) (string, error) {
	question := "Next query?"
	if first {
		question = "Please state the nature of the desired database query."
	}
	for {
		_, _ = fmt.Fprintf(r.stdout, "\n%s\n", question)
		line, err := prompter.Prompt("> ")
		if err != nil {
			return "", err
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed, nil
		}
	}
}

func (r *runner) confirmExecute(prompter Prompter) bool {
	for {
		_, _ = fmt.Fprintln(r.stdout, "\nEXECUTE?")
		line, err := prompter.Prompt("(Y/N) > ")
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
	}
}

func (r *runner) spin(title string, fn func() error) error {
	if r.noSpinner {
		return fn()
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriter(r.stdout),
		spinner.WithSuffix(" "+title),
	)
	s.Start()
	defer s.Stop()
	return fn()
}

// spinnerClient shows a spinner around each generation call and tracks the
// attempt number for the spinner title.
type spinnerClient struct {
	inner nl2sql.Client
	run   *runner
	max   int
	calls int
}

func (s *spinnerClient) Complete(ctx context.Context, model string, turns []nl2sql.Turn) (string, error) {
	s.calls++
	title := "Generating SQL"
	if s.calls > 1 {
		title = fmt.Sprintf("Regenerating SQL (attempt %d/%d)", s.calls, s.max)
	}
	var reply string
	start := time.Now()
	err := s.run.spin(title, func() error {
		var completeErr error
		reply, completeErr = s.inner.Complete(ctx, model, turns)
		return completeErr
	})
	observability.ObserveGeneration(time.Since(start))
	return reply, err
}

// meteredDatabase shows a spinner around execution and records query metrics.
type meteredDatabase struct {
	db  Database
	run *runner
}

func (m *meteredDatabase) Execute(ctx context.Context, sqlText string) (query.Result, error) {
	var result query.Result
	start := time.Now()
	err := m.run.spin("Executing query", func() error {
		var execErr error
		result, execErr = m.db.Execute(ctx, sqlText)
		return execErr
	})
	observability.ObserveExecution(time.Since(start), err != nil)
	return result, err
}

type readlinePrompter struct {
	rl *readline.Instance
}

func newReadlinePrompter() (*readlinePrompter, error) {
	rl, err := readline.New("> ")
	if err != nil {
		return nil, err
	}
	return &readlinePrompter{rl: rl}, nil
}

func (p *readlinePrompter) Prompt(text string) (string, error) {
	p.rl.SetPrompt(text)
	line, err := p.rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) {
			return "", io.EOF
		}
		return "", err
	}
	return line, nil
}

func (p *readlinePrompter) Close() error {
	return p.rl.Close()
}

func writeUsage(w io.Writer, fs *flag.FlagSet) {
	_, _ = fmt.Fprintln(w, "usage: sqlpilot [flags] <database.sqlite>")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "LLM assistant for querying a SQLite3 database. The database is opened")
	_, _ = fmt.Fprintln(w, "read-only; generated SQL is shown before execution unless -y is given.")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "flags:")
	fs.PrintDefaults()
}
