package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/findash/internal/notify"
)

// View renders the current page under the navbar and banners.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.state.Loading {
		return m.renderLoading()
	}

	sections := []string{
		m.renderHeader(),
		m.renderNavbar(),
		m.renderAuthBanner(),
	}
	if banner := m.renderNotification(); banner != "" {
		sections = append(sections, banner)
	}
	body := m.renderPage()
	if m.panel.open {
		body = m.assistantView()
	}
	sections = append(sections,
		"",
		body,
		"",
		m.help.View(m.keymap),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderLoading blocks the dashboard until the store is connected.
func (m Model) renderLoading() string {
	lines := []string{
		m.theme.Title.Render("Finance Dashboard"),
		"",
		m.spinner.View() + " Connecting to your data...",
	}
	if m.state.StoreErr != nil {
		lines = append(lines, "", m.theme.StatusError.Render(m.state.StoreErr.Error()))
	}
	if banner := m.renderNotification(); banner != "" {
		lines = append(lines, "", banner)
	}

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, lines...))
}

func (m Model) renderHeader() string {
	title := m.theme.Title.Render("Finance Dashboard")
	rate := m.theme.Subtitle.Render(fmt.Sprintf("  rate %.4g · %s", m.state.EffectiveRate, m.state.Reporting))
	return title + rate
}

func (m Model) renderNavbar() string {
	tabs := make([]string, 0, len(Pages))
	for i, p := range Pages {
		label := fmt.Sprintf("%d %s", i+1, p.Title())
		if p == m.page {
			tabs = append(tabs, m.theme.ActiveTab.Render(label))
		} else {
			tabs = append(tabs, m.theme.Tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderAuthBanner shows who is signed in, or that data is local only.
func (m Model) renderAuthBanner() string {
	switch {
	case m.authPending && m.signInURL != "":
		return m.theme.Subtitle.Render(m.spinner.View()+" Open this URL in your browser to sign in:") +
			"\n" + m.theme.Normal.Render(m.signInURL)
	case m.authPending:
		return m.theme.Subtitle.Render(m.spinner.View() + " Waiting for Google sign-in in your browser...")
	case m.state.SignedIn():
		sync := "synced"
		if !m.state.Synced {
			sync = "not synced"
		}
		return m.theme.Normal.Render(fmt.Sprintf("Signed in as %s (%s)", m.state.User.Email, sync)) +
			m.theme.Subtitle.Render("  O to sign out")
	default:
		return m.theme.Subtitle.Render("Local only, not signed in. Press L to sign in with Google.")
	}
}

func (m Model) renderNotification() string {
	n := m.notification
	if !n.Show || n.Message == "" {
		return ""
	}
	style := m.theme.StatusInfo
	switch n.Severity {
	case notify.SeveritySuccess:
		style = m.theme.StatusSuccess
	case notify.SeverityError:
		style = m.theme.StatusError
	}
	return m.theme.RoundedBox.Render(style.Render(strings.ToUpper(string(n.Severity))) + " " + n.Message)
}

// renderPage routes the selected page to its view.
func (m Model) renderPage() string {
	switch Route(m.page) {
	case PageDataManager:
		return m.dataManagerView()
	case PageAssetManagement:
		return m.assetView()
	case PageCashflowManagement:
		return m.cashflowView()
	case PageBudgetMissions:
		return m.budgetView()
	case PageInvestmentTracking:
		return m.investmentView()
	case PageFinancialGoals:
		return m.goalsView()
	case PageReportAnalysis:
		return m.reportView()
	default:
		return m.dashboardView()
	}
}
