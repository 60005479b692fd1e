// Package notify delivers short-lived messages to the user.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Severity classifies a notification.
type Severity string

// Notification severities.
const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// DismissAfter is how long a notification stays visible.
const DismissAfter = 3 * time.Second

// Notification is one message. The zero value means nothing is shown.
type Notification struct {
	Message  string
	Severity Severity
	Show     bool
}

// Notifier accepts messages for the user.
type Notifier interface {
	Notify(message string, severity Severity)
}

// Banner shows one notification at a time and hides it after a fixed delay.
// A newer message replaces the current one and restarts the delay.
type Banner struct {
	onChange func(Notification)
	stop     func() bool
	current  Notification
	delay    time.Duration
	seq      uint64
	mu       sync.Mutex
}

var _ Notifier = (*Banner)(nil)

// BannerOption configures a Banner.
type BannerOption func(*Banner)

// WithDelay overrides DismissAfter.
func WithDelay(d time.Duration) BannerOption {
	return func(b *Banner) {
		b.delay = d
	}
}

// WithOnChange registers fn to run whenever the visible notification changes,
// including when it is dismissed. fn runs without the banner lock held.
func WithOnChange(fn func(Notification)) BannerOption {
	return func(b *Banner) {
		b.onChange = fn
	}
}

// NewBanner creates an empty banner.
func NewBanner(opts ...BannerOption) *Banner {
	b := &Banner{delay: DismissAfter}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Notify implements Notifier.
func (b *Banner) Notify(message string, severity Severity) {
	b.mu.Lock()
	b.seq++
	seq := b.seq
	if b.stop != nil {
		b.stop()
	}
	b.current = Notification{Message: message, Severity: severity, Show: true}
	b.stop = time.AfterFunc(b.delay, func() { b.dismiss(seq) }).Stop
	current := b.current
	b.mu.Unlock()

	b.changed(current)
}

// Current returns the visible notification.
func (b *Banner) Current() Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Close cancels a pending dismissal.
func (b *Banner) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stop != nil {
		b.stop()
		b.stop = nil
	}
}

func (b *Banner) dismiss(seq uint64) {
	b.mu.Lock()
	if seq != b.seq {
		b.mu.Unlock()
		return
	}
	b.current = Notification{Severity: SeverityInfo}
	b.stop = nil
	current := b.current
	b.mu.Unlock()

	b.changed(current)
}

func (b *Banner) changed(n Notification) {
	if b.onChange != nil {
		b.onChange(n)
	}
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	Logger *slog.Logger
}

var _ Notifier = LogNotifier{}

// Notify implements Notifier.
func (l LogNotifier) Notify(message string, severity Severity) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	switch severity {
	case SeverityError:
		logger.Error(message)
	default:
		logger.Info(message, "severity", string(severity))
	}
}

// Recorder keeps every notification it receives.
type Recorder struct {
	notifications []Notification
	mu            sync.Mutex
}

var _ Notifier = (*Recorder)(nil)

// Notify implements Notifier.
func (r *Recorder) Notify(message string, severity Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, Notification{Message: message, Severity: severity, Show: true})
}

// Notifications returns a copy of what was received so far.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.notifications))
	copy(out, r.notifications)
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notifications) == 0 {
		return Notification{}, false
	}
	return r.notifications[len(r.notifications)-1], true
}
