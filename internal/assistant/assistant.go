// Package assistant answers questions about the signed-in user's finances
// with a language model, grounded on the dashboard's current data.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/findash/internal/app"
	"github.com/Veraticus/findash/internal/common"
	"github.com/Veraticus/findash/internal/llm"
)

// ErrEmptyQuestion is returned for a blank question.
var ErrEmptyQuestion = errors.New("question is empty")

const systemPrompt = `You are the assistant of a personal finance dashboard.
Answer the user's question using only the financial data provided.
Amounts are in the reporting currency unless a row says otherwise.
If the data cannot answer the question, say so. Be concise and use Markdown.`

const (
	defaultMaxRecords = 50
	defaultMaxTurns   = 5
)

// Turn is one answered question.
type Turn struct {
	Question string
	Answer   string
}

// Assistant keeps a short conversation with a model.
type Assistant struct {
	client     llm.Client
	now        func() time.Time
	history    []Turn
	maxRecords int
	maxTurns   int
	mu         sync.Mutex
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithClock sets the clock used for the report period.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) {
		a.now = now
	}
}

// WithMaxRecords limits how many recent records are sent with each question.
func WithMaxRecords(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.maxRecords = n
		}
	}
}

// WithMaxTurns limits how many earlier turns are replayed to the model.
func WithMaxTurns(n int) Option {
	return func(a *Assistant) {
		if n >= 0 {
			a.maxTurns = n
		}
	}
}

// New creates an assistant over client.
func New(client llm.Client, opts ...Option) *Assistant {
	a := &Assistant{
		client:     client,
		now:        time.Now,
		maxRecords: defaultMaxRecords,
		maxTurns:   defaultMaxTurns,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask answers question about the data in state. Successful turns are kept as
// conversation history for the next question.
func (a *Assistant) Ask(ctx context.Context, state app.State, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	a.mu.Lock()
	history := make([]Turn, len(a.history))
	copy(history, a.history)
	a.mu.Unlock()

	prompt := Prompt(state, history, question, a.now(), a.maxRecords)
	answer, err := a.client.Analyze(ctx, prompt, systemPrompt)
	if err != nil {
		common.LogError(err, "Assistant request failed", common.Fields{"question_length": len(question)})
		return "", fmt.Errorf("assistant request failed: %w", err)
	}

	a.mu.Lock()
	a.history = append(a.history, Turn{Question: question, Answer: answer})
	if len(a.history) > a.maxTurns {
		a.history = a.history[len(a.history)-a.maxTurns:]
	}
	a.mu.Unlock()

	return answer, nil
}

// History returns the remembered turns, oldest first.
func (a *Assistant) History() []Turn {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Turn, len(a.history))
	copy(out, a.history)
	return out
}

// Reset forgets the conversation.
func (a *Assistant) Reset() {
	a.mu.Lock()
	a.history = nil
	a.mu.Unlock()
}
