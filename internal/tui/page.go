// Package tui is the terminal dashboard: a navbar over eight pages that
// render the session's processed data.
package tui

import "strings"

// Page selects what the dashboard shows.
type Page int

// Pages in navbar order.
const (
	PageDashboard Page = iota
	PageDataManager
	PageAssetManagement
	PageCashflowManagement
	PageBudgetMissions
	PageInvestmentTracking
	PageFinancialGoals
	PageReportAnalysis
)

// Pages lists every page in navbar order.
var Pages = []Page{
	PageDashboard,
	PageDataManager,
	PageAssetManagement,
	PageCashflowManagement,
	PageBudgetMissions,
	PageInvestmentTracking,
	PageFinancialGoals,
	PageReportAnalysis,
}

var pageInfo = map[Page]struct{ id, title string }{
	PageDashboard:          {"dashboard", "Dashboard"},
	PageDataManager:        {"data-manager", "Data"},
	PageAssetManagement:    {"asset-management", "Assets"},
	PageCashflowManagement: {"cashflow-management", "Cashflow"},
	PageBudgetMissions:     {"budget-missions", "Budgets"},
	PageInvestmentTracking: {"investment-tracking", "Investments"},
	PageFinancialGoals:     {"financial-goals", "Goals"},
	PageReportAnalysis:     {"report-analysis", "Reports"},
}

// Valid reports whether p is one of the known pages.
func (p Page) Valid() bool {
	_, ok := pageInfo[p]
	return ok
}

// String returns the page selector, e.g. "asset-management".
func (p Page) String() string {
	return pageInfo[Route(p)].id
}

// Title is the navbar label.
func (p Page) Title() string {
	return pageInfo[Route(p)].title
}

// Route maps any selector to a page, falling back to the dashboard.
func Route(p Page) Page {
	if !p.Valid() {
		return PageDashboard
	}
	return p
}

// ParsePage maps a selector name to a page. Unknown names select the dashboard.
func ParsePage(s string) Page {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, info := range pageInfo {
		if info.id == s {
			return p
		}
	}
	return PageDashboard
}

// next returns the page delta steps away, wrapping around.
func (p Page) next(delta int) Page {
	n := len(Pages)
	return Page(((int(Route(p))+delta)%n + n) % n)
}
