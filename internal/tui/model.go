package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/findash/internal/app"
	"github.com/Veraticus/findash/internal/notify"
	"github.com/Veraticus/findash/internal/tui/themes"
)

// Session is the part of app.Session the dashboard drives.
type Session interface {
	State() app.State
	Subscribe(fn func(app.State)) func()
	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
}

// Model holds the main TUI state.
type Model struct {
	ctx          context.Context
	session      Session
	now          func() time.Time
	theme        themes.Theme
	keymap       KeyMap
	help         help.Model
	spinner      spinner.Model
	bar          progress.Model
	notification notify.Notification
	state        app.State
	assistant    Assistant
	prompt       textinput.Model
	panel        assistantPanel
	signInURL    string
	page         Page
	width        int
	height       int
	authPending  bool
	quitting     bool
}

// NewModel creates the dashboard model over session.
func NewModel(ctx context.Context, session Session, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = s.Style.Foreground(cfg.Theme.Primary)

	prompt := textinput.New()
	prompt.Placeholder = "Ask about your accounts, spending, budgets or goals"
	prompt.CharLimit = 500
	prompt.Width = cfg.Width - 6

	return Model{
		ctx:       ctx,
		session:   session,
		assistant: cfg.Assistant,
		prompt:    prompt,
		now:       cfg.Now,
		theme:     cfg.Theme,
		keymap:    DefaultKeyMap(),
		help:      help.New(),
		spinner:   s,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(24)),
		state:     session.State(),
		page:      cfg.StartPage,
		width:     cfg.Width,
		height:    cfg.Height,
	}
}

// Page returns the page being shown.
func (m Model) Page() Page {
	return m.page
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.prompt.Width = msg.Width - 6

	case stateMsg:
		m.state = msg.state

	case notificationMsg:
		m.notification = msg.notification

	case authDoneMsg:
		m.authPending = false
		m.signInURL = ""

	case signInURLMsg:
		m.signInURL = msg.url

	case assistantAnswerMsg:
		m.panel = m.panel.answered(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.panel.open {
		return m.handleAssistantKey(msg)
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keymap.NextPage):
		m.page = m.page.next(1)

	case key.Matches(msg, m.keymap.PrevPage):
		m.page = m.page.next(-1)

	case key.Matches(msg, m.keymap.GoTo):
		m.page = Route(Page(msg.Runes[0] - '1'))

	case key.Matches(msg, m.keymap.Login):
		if m.state.Loading || m.state.SignedIn() || m.authPending {
			return m, nil
		}
		m.authPending = true
		return m, m.authCmd(m.session.SignIn)

	case key.Matches(msg, m.keymap.Assist):
		if m.state.Loading {
			return m, nil
		}
		m.panel.open = true
		return m, m.prompt.Focus()

	case key.Matches(msg, m.keymap.Logout):
		if !m.state.SignedIn() || m.authPending {
			return m, nil
		}
		m.authPending = true
		return m, m.authCmd(m.session.SignOut)
	}

	return m, nil
}

// authCmd runs a blocking auth call off the update loop.
func (m Model) authCmd(fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return authDoneMsg{err: fn(ctx)}
	}
}
