package nl2sql

import (
	"context"
	"fmt"
	"strings"
)

// Client is the LLM collaborator: it sends an ordered dialogue to a chat
// completion model and returns the reply text. Transport and auth failures
// surface as errors and are not retried here.
type Client interface {
	Complete(ctx context.Context, model string, turns []Turn) (string, error)
}

// Session binds one rendered conversation to one user intent and one schema.
// The turn list is append-only and owned exclusively by the session; it is the
// literal dialogue history sent to the model on every call.
type Session struct {
	client    Client
	model     string
	turns     []Turn
	lastReply string
	fetched   bool
}

// NewSession renders the main template with the schema and the user's stated
// intent. The schema is substituted verbatim, exactly once per session.
func NewSession(client Client, model, schema, intent string) *Session {
	return &Session{
		client: client,
		model:  model,
		turns: mainTemplate.Render(map[string]string{
			PlaceholderSchema: schema,
			PlaceholderIntent: intent,
		}),
	}
}

// Fetch sends the whole conversation to the model, remembers the raw reply
// for a later Revise, and returns the reply with any code fence or preamble
// stripped off.
func (s *Session) Fetch(ctx context.Context) (string, error) {
	reply, err := s.client.Complete(ctx, s.model, s.turns)
	if err != nil {
		return "", err
	}
	s.lastReply = strings.TrimSpace(reply)
	s.fetched = true
	return ExtractSQL(s.lastReply), nil
}

// Revise appends the model's prior raw reply and a user turn carrying the
// execution error, so the model sees its own failure before the next Fetch.
// It does not itself re-fetch. Calling Revise before a successful Fetch is a
// programming error.
func (s *Session) Revise(errMsg string) error {
	if !s.fetched {
		return fmt.Errorf("revise called before fetch")
	}
	if last := s.turns[len(s.turns)-1]; last.Role != RoleUser {
		return fmt.Errorf("conversation must end with a user turn, got %q", last.Role)
	}
	s.turns = append(s.turns, reviseTemplate.Render(map[string]string{
		PlaceholderResponse: s.lastReply,
		PlaceholderError:    errMsg,
	})...)
	return nil
}

// Turns returns a copy of the conversation so far.
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Describe asks the model for a short summary of the schema. Used once at
// startup, outside any query session.
func Describe(ctx context.Context, client Client, model, schema string) (string, error) {
	reply, err := client.Complete(ctx, model, startupTemplate.Render(map[string]string{
		PlaceholderSchema: schema,
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}
