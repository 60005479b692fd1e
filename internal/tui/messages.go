package tui

import (
	"github.com/Veraticus/findash/internal/app"
	"github.com/Veraticus/findash/internal/notify"
)

// stateMsg carries a new session snapshot.
type stateMsg struct {
	state app.State
}

// notificationMsg carries the banner's visible notification.
type notificationMsg struct {
	notification notify.Notification
}

// authDoneMsg reports the end of a sign-in or sign-out attempt. The session
// has already notified the user.
type authDoneMsg struct {
	err error
}

// signInURLMsg carries the consent URL of a sign-in in progress.
type signInURLMsg struct {
	url string
}

// assistantAnswerMsg is the assistant's reply to question.
type assistantAnswerMsg struct {
	err      error
	question string
	answer   string
}
