package notify

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBanner_AutoDismiss(t *testing.T) {
	var (
		mu      sync.Mutex
		changes []Notification
	)
	b := NewBanner(
		WithDelay(20*time.Millisecond),
		WithOnChange(func(n Notification) {
			mu.Lock()
			changes = append(changes, n)
			mu.Unlock()
		}),
	)
	defer b.Close()

	b.Notify("saved", SeveritySuccess)
	current := b.Current()
	assert.True(t, current.Show)
	assert.Equal(t, "saved", current.Message)
	assert.Equal(t, SeveritySuccess, current.Severity)

	require.Eventually(t, func() bool { return !b.Current().Show }, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 2)
	assert.True(t, changes[0].Show)
	assert.False(t, changes[1].Show)
	assert.Empty(t, changes[1].Message)
}

func TestBanner_NewMessageRestartsDelay(t *testing.T) {
	b := NewBanner(WithDelay(300 * time.Millisecond))
	defer b.Close()

	b.Notify("first", SeverityInfo)
	time.Sleep(200 * time.Millisecond)
	b.Notify("second", SeverityError)
	time.Sleep(200 * time.Millisecond)

	// The first timer has fired by now but must not hide the second message.
	current := b.Current()
	assert.True(t, current.Show)
	assert.Equal(t, "second", current.Message)

	require.Eventually(t, func() bool { return !b.Current().Show }, time.Second, 5*time.Millisecond)
}

func TestBanner_DefaultDelay(t *testing.T) {
	b := NewBanner()
	defer b.Close()
	assert.Equal(t, 3*time.Second, b.delay)
	assert.False(t, b.Current().Show)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	n.Notify("records created", SeverityInfo)
	n.Notify("sign-in failed", SeverityError)

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "records created")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "sign-in failed")
}

func TestRecorder(t *testing.T) {
	var r Recorder
	_, ok := r.Last()
	assert.False(t, ok)

	r.Notify("a", SeverityInfo)
	r.Notify("b", SeverityError)

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "b", last.Message)
	assert.Len(t, r.Notifications(), 2)
}
