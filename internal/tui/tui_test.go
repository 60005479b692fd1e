package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/findash/internal/app"
	"github.com/Veraticus/findash/internal/model"
	"github.com/Veraticus/findash/internal/notify"
)

type fakeSession struct {
	state        app.State
	signInCalls  int
	signOutCalls int
	mu           sync.Mutex
}

func (f *fakeSession) State() app.State { return f.state.Clone() }

func (f *fakeSession) Subscribe(fn func(app.State)) func() {
	fn(f.State())
	return func() {}
}

func (f *fakeSession) SignIn(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signInCalls++
	return nil
}

func (f *fakeSession) SignOut(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOutCalls++
	return nil
}

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func readyState() app.State {
	accounts := []model.AssetAccount{
		{ID: "1", Name: "Checking", Currency: model.CurrencyUSD, Type: model.AccountTypeBank, Balance: 100, DisplayBalance: 3250},
		{ID: "2", Name: "Brokerage", Currency: model.CurrencyTWD, Type: model.AccountTypeInvestment, Balance: 50000, DisplayBalance: 50000},
	}
	return app.State{
		Reporting:         model.CurrencyTWD,
		LiveRate:          32.5,
		EffectiveRate:     32.5,
		AssetAccounts:     accounts,
		ProcessedAccounts: accounts,
		CashflowRecords: []model.CashflowRecord{
			{ID: "r1", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Category: "Salary", Amount: 60000, RecurringRuleID: "salary"},
			{ID: "r2", Date: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), Category: "Food", Amount: -1200, Note: "groceries"},
		},
		Budgets: []model.Budget{{ID: "b1", Category: "Food", Limit: 6000}},
		Goals:   []model.Goal{{ID: "g1", Name: "Emergency fund", TargetAmount: 100000}},
		Settings: &model.Settings{RecurringRules: []model.RecurringRule{
			{ID: "salary", Category: "Salary", Amount: 60000, Frequency: model.FrequencyMonthly, AnchorDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Enabled: true},
		}},
	}
}

func newTestModel(state app.State) (Model, *fakeSession) {
	session := &fakeSession{state: state}
	m := NewModel(context.Background(), session, WithClock(func() time.Time { return testNow }), WithSize(140, 40))
	return m, session
}

func press(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(k)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		input    string
		expected Page
	}{
		{"dashboard", PageDashboard},
		{"data-manager", PageDataManager},
		{"asset-management", PageAssetManagement},
		{"cashflow-management", PageCashflowManagement},
		{"budget-missions", PageBudgetMissions},
		{"investment-tracking", PageInvestmentTracking},
		{"financial-goals", PageFinancialGoals},
		{" Report-Analysis ", PageReportAnalysis},
		{"settings", PageDashboard},
		{"", PageDashboard},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePage(tt.input))
		})
	}
}

func TestRoute_FallsBackToDashboard(t *testing.T) {
	assert.Equal(t, PageDashboard, Route(Page(42)))
	assert.Equal(t, PageDashboard, Route(Page(-1)))
	assert.Equal(t, "dashboard", Page(42).String())
	assert.Equal(t, PageFinancialGoals, Route(PageFinancialGoals))

	for _, p := range Pages {
		assert.Equal(t, p, ParsePage(p.String()))
	}
}

func TestModel_Navigation(t *testing.T) {
	m, _ := newTestModel(readyState())
	assert.Equal(t, PageDashboard, m.Page())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, PageDataManager, m.Page())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, PageReportAnalysis, m.Page())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, PageDashboard, m.Page())

	m, _ = press(t, m, runes("3"))
	assert.Equal(t, PageAssetManagement, m.Page())

	m, _ = press(t, m, runes("8"))
	assert.Equal(t, PageReportAnalysis, m.Page())

	_, cmd := press(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_Loading(t *testing.T) {
	state := app.State{Loading: true, StoreErr: errors.New("disk unavailable")}
	m, session := newTestModel(state)

	view := m.View()
	assert.Contains(t, view, "Connecting to your data")
	assert.Contains(t, view, "disk unavailable")
	assert.NotContains(t, view, "Net worth")

	_, cmd := press(t, m, runes("L"))
	assert.Nil(t, cmd)
	assert.Equal(t, 0, session.signInCalls)
}

func TestModel_SignIn(t *testing.T) {
	m, session := newTestModel(readyState())
	assert.Contains(t, m.View(), "Press L to sign in")

	m, cmd := press(t, m, runes("L"))
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Waiting for Google sign-in")

	// A second press while waiting does nothing.
	_, again := press(t, m, runes("L"))
	assert.Nil(t, again)

	msg := cmd()
	assert.Equal(t, 1, session.signInCalls)

	next, _ := m.Update(msg)
	m = next.(Model)

	signedIn := readyState()
	signedIn.User = &model.User{ID: "u1", Email: "alice@example.com"}
	signedIn.Synced = true
	next, _ = m.Update(stateMsg{state: signedIn})
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "Signed in as alice@example.com (synced)")
	assert.Contains(t, view, "O to sign out")

	_, cmd = press(t, m, runes("O"))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 1, session.signOutCalls)
}

func TestModel_SignOutIgnoredWhenSignedOut(t *testing.T) {
	m, session := newTestModel(readyState())
	_, cmd := press(t, m, runes("O"))
	assert.Nil(t, cmd)
	assert.Equal(t, 0, session.signOutCalls)
}

func TestModel_Notification(t *testing.T) {
	m, _ := newTestModel(readyState())

	next, _ := m.Update(notificationMsg{notification: notify.Notification{
		Message: "Recurring transactions were created automatically.", Severity: notify.SeverityInfo, Show: true,
	}})
	m = next.(Model)
	assert.Contains(t, m.View(), "Recurring transactions were created automatically.")

	next, _ = m.Update(notificationMsg{notification: notify.Notification{}})
	m = next.(Model)
	assert.NotContains(t, m.View(), "Recurring transactions")
}

func TestModel_Pages(t *testing.T) {
	tests := []struct {
		page     Page
		contains []string
	}{
		{PageDashboard, []string{"Net worth", "53,250", "Recent activity", "groceries"}},
		{PageDataManager, []string{"Cashflow records", "findash import ofx"}},
		{PageAssetManagement, []string{"Checking", "3,250", "Total"}},
		{PageCashflowManagement, []string{"Recurring rules", "monthly", "Salary"}},
		{PageBudgetMissions, []string{"March 2024", "Food", "1,200"}},
		{PageInvestmentTracking, []string{"Brokerage", "100%"}},
		{PageFinancialGoals, []string{"Emergency fund", "100,000"}},
		{PageReportAnalysis, []string{"Report · 2024", "Salary", "March 2024"}},
	}

	for _, tt := range tests {
		t.Run(tt.page.String(), func(t *testing.T) {
			m, _ := newTestModel(readyState())
			m.page = tt.page

			view := m.View()
			for _, s := range tt.contains {
				assert.Contains(t, view, s)
			}
		})
	}
}

func TestModel_EmptyPages(t *testing.T) {
	m, _ := newTestModel(app.State{Reporting: model.CurrencyTWD, EffectiveRate: 32.5})
	for _, p := range Pages {
		m.page = p
		assert.NotEmpty(t, m.View())
	}
}

func TestRelay_KeepsLatest(t *testing.T) {
	r := newRelay()
	r.put(stateMsg{state: app.State{LiveRate: 1}})
	r.put(stateMsg{state: app.State{LiveRate: 2}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan tea.Msg, 4)
	go r.run(ctx, func(msg tea.Msg) { got <- msg })

	select {
	case msg := <-got:
		assert.InDelta(t, 2.0, msg.(stateMsg).state.LiveRate, 0.001)
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}

	assert.Never(t, func() bool { return len(got) > 0 }, 50*time.Millisecond, 10*time.Millisecond)
}

func TestForwarder(t *testing.T) {
	f := NewForwarder()
	f.Forward(notify.Notification{Message: "hello", Show: true})

	msg := f.relay.take()
	require.IsType(t, notificationMsg{}, msg)
	assert.Equal(t, "hello", msg.(notificationMsg).notification.Message)
}

func TestForwarder_SignInURLSurvivesNotifications(t *testing.T) {
	f := NewForwarder()
	f.ShowSignInURL("https://accounts.example.com/consent")
	f.Forward(notify.Notification{Message: "Signed out.", Show: true})

	msg := f.urls.take()
	require.IsType(t, signInURLMsg{}, msg)
	assert.Equal(t, "https://accounts.example.com/consent", msg.(signInURLMsg).url)
}

func TestModel_SignInURLShownWhilePending(t *testing.T) {
	m, _ := newTestModel(readyState())

	m, cmd := press(t, m, runes("L"))
	require.NotNil(t, cmd)

	next, _ := m.Update(signInURLMsg{url: "https://accounts.example.com/consent?state=xyz"})
	m = next.(Model)
	view := m.View()
	assert.Contains(t, view, "Open this URL in your browser to sign in")
	assert.Contains(t, view, "https://accounts.example.com/consent?state=xyz")

	next, _ = m.Update(authDoneMsg{})
	m = next.(Model)
	assert.NotContains(t, m.View(), "accounts.example.com")
}

type fakeAssistant struct {
	err       error
	answer    string
	questions []string
	states    []app.State
}

func (f *fakeAssistant) Ask(_ context.Context, state app.State, question string) (string, error) {
	f.questions = append(f.questions, question)
	f.states = append(f.states, state)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = press(t, m, runes(string(r)))
	}
	return m
}

func TestModel_AssistantPanel(t *testing.T) {
	assistant := &fakeAssistant{answer: "Mostly kumquats."}
	session := &fakeSession{state: readyState()}
	m := NewModel(context.Background(), session, WithClock(func() time.Time { return testNow }),
		WithSize(140, 40), WithAssistant(assistant))

	m, _ = press(t, m, runes("a"))
	assert.Contains(t, m.View(), "Assistant")

	// Page keys are typed into the question while the panel is open.
	m = typeText(t, m, "q1 food?")
	assert.False(t, m.quitting)
	assert.Equal(t, PageDashboard, m.Page())

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Thinking")

	// Enter while waiting does not send again.
	_, again := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, again)

	next, _ := m.Update(cmd())
	m = next.(Model)

	require.Equal(t, []string{"q1 food?"}, assistant.questions)
	assert.Len(t, assistant.states[0].CashflowRecords, 2)
	view := m.View()
	assert.Contains(t, view, "Q: q1 food?")
	assert.Contains(t, view, "kumquats")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.NotContains(t, m.View(), "kumquats")
	assert.Contains(t, m.View(), "Net worth")
}

func TestModel_AssistantError(t *testing.T) {
	assistant := &fakeAssistant{err: errors.New("quota exhausted")}
	session := &fakeSession{state: readyState()}
	m := NewModel(context.Background(), session, WithSize(140, 40), WithAssistant(assistant))

	m, _ = press(t, m, runes("a"))
	m = typeText(t, m, "net worth?")
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.Contains(t, m.View(), "quota exhausted")
}

func TestModel_AssistantNotConfigured(t *testing.T) {
	m, _ := newTestModel(readyState())

	m, _ = press(t, m, runes("a"))
	assert.Contains(t, m.View(), "not configured")

	m = typeText(t, m, "hello")
	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}
