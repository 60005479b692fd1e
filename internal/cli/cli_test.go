package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a thread-safe buffer for testing.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestPrompter_ReadLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "answer\n", "answer"},
		{"whitespace", "  answer  \n", "answer"},
		{"empty line", "\n", ""},
		{"no trailing newline", "answer", "answer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPrompter(strings.NewReader(tt.input), io.Discard)
			got, err := p.ReadLine(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPrompter_ReadLine_Canceled(t *testing.T) {
	r, w := io.Pipe()
	defer func() { _ = w.Close() }()

	p := NewPrompter(r, io.Discard)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.ReadLine(ctx)
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			ok, err := p.Confirm(context.Background(), "Delete account?")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
			assert.Contains(t, out.String(), "Delete account? [y/N]")
		})
	}
}

func TestInterruptHandler(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output, "Records imported so far were kept.")

	ctx := handler.HandleInterrupts(context.Background())
	assert.False(t, handler.WasInterrupted())

	handler.Interrupt()
	handler.Interrupt()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context was not canceled")
	}
	assert.True(t, handler.WasInterrupted())
	assert.Equal(t, 1, strings.Count(output.String(), "Interrupted!"))
	assert.Contains(t, output.String(), "Records imported so far were kept.")
}

func TestRenderTable(t *testing.T) {
	out := RenderTable([]string{"Name", "Balance"}, [][]string{
		{"Checking", "$100.00"},
		{"Savings account", "$5.00"},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Name")
	assert.Contains(t, lines[2], "Savings account")
	// Columns line up.
	assert.Equal(t, strings.Index(lines[1], "$100.00"), strings.Index(lines[2], "$5.00"))
}

func TestFormatSigned(t *testing.T) {
	assert.Contains(t, FormatSigned("+1", 1), "+1")
	assert.Equal(t, "0", FormatSigned("0", 0))
}

func TestNewProgressBar(t *testing.T) {
	var out bytes.Buffer
	bar := NewProgressBar(&out, 2, "Importing")
	require.NoError(t, bar.Add(2))
	assert.Contains(t, out.String(), "Importing")
}
