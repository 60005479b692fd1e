package tui

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/findash/internal/app"
	"github.com/Veraticus/findash/internal/notify"
)

// relay keeps the latest message for a program so producers never block on
// the UI. Older undelivered messages are replaced.
type relay struct {
	msg    tea.Msg
	signal chan struct{}
	mu     sync.Mutex
}

func newRelay() *relay {
	return &relay{signal: make(chan struct{}, 1)}
}

func (r *relay) put(msg tea.Msg) {
	r.mu.Lock()
	r.msg = msg
	r.mu.Unlock()

	select {
	case r.signal <- struct{}{}:
	default:
	}
}

func (r *relay) take() tea.Msg {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := r.msg
	r.msg = nil
	return msg
}

// run delivers messages to send until ctx ends.
func (r *relay) run(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.signal:
			if msg := r.take(); msg != nil {
				send(msg)
			}
		}
	}
}

// Forwarder hands banner changes and sign-in URLs to the dashboard. Messages
// that arrive before the dashboard starts are held; only the latest of each
// kind is kept.
type Forwarder struct {
	relay *relay
	urls  *relay
}

// NewForwarder creates a forwarder.
func NewForwarder() *Forwarder {
	return &Forwarder{relay: newRelay(), urls: newRelay()}
}

// Forward matches notify.WithOnChange.
func (f *Forwarder) Forward(n notify.Notification) {
	f.relay.put(notificationMsg{notification: n})
}

// ShowSignInURL matches auth.WithURLOpener. The URL stays on screen until the
// sign-in attempt ends.
func (f *Forwarder) ShowSignInURL(url string) {
	f.urls.put(signInURLMsg{url: url})
}

// Run shows the dashboard until the user quits or ctx ends.
func Run(ctx context.Context, session Session, forwarder *Forwarder, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.AltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	p := tea.NewProgram(NewModel(ctx, session, opts...), programOpts...)

	states := newRelay()
	unsubscribe := session.Subscribe(func(s app.State) {
		states.put(stateMsg{state: s})
	})
	defer unsubscribe()

	go states.run(ctx, p.Send)
	if forwarder != nil {
		go forwarder.relay.run(ctx, p.Send)
		go forwarder.urls.run(ctx, p.Send)
	}

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
