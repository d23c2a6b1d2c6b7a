package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/papertrade/internal/engine"
	"github.com/zappabad/papertrade/internal/market"
	"github.com/zappabad/papertrade/tui/panels"
	"github.com/zappabad/papertrade/tui/styles"
)

// PanelFocus represents which panel is currently focused.
type PanelFocus int

const (
	FocusOpportunities PanelFocus = 0
	FocusPortfolio     PanelFocus = 1
	FocusOrderEntry    PanelFocus = 2
	FocusOrders        PanelFocus = 3
)

const panelCount = 4

// Model is the main TUI application model.
type Model struct {
	eng          *engine.Engine
	tickInterval time.Duration

	opportunitiesPanel *panels.OpportunitiesPanel
	portfolioPanel     *panels.PortfolioPanel
	orderEntryPanel    *panels.OrderEntryPanel
	ordersPanel        *panels.OrdersPanel

	focusedPanel PanelFocus

	width  int
	height int

	statusMsg string
	ready     bool
}

// NewModel creates a new TUI model driving the given engine.
func NewModel(eng *engine.Engine, tickInterval time.Duration) *Model {
	if tickInterval <= 0 {
		tickInterval = 3 * time.Second
	}

	m := &Model{
		eng:                eng,
		tickInterval:       tickInterval,
		opportunitiesPanel: panels.NewOpportunitiesPanel(),
		portfolioPanel:     panels.NewPortfolioPanel(),
		orderEntryPanel:    panels.NewOrderEntryPanel(),
		ordersPanel:        panels.NewOrdersPanel(),
		focusedPanel:       FocusOpportunities,
	}
	m.refresh()
	return m
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.opportunitiesPanel.Init(),
		m.portfolioPanel.Init(),
		m.orderEntryPanel.Init(),
		m.ordersPanel.Init(),
		m.tickRefresh(),
	)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			// The order entry panel needs "q" for typing.
			if m.focusedPanel != FocusOrderEntry {
				return m, tea.Quit
			}

		case "tab":
			m.focusedPanel = (m.focusedPanel + 1) % panelCount

		case "shift+tab":
			m.focusedPanel--
			if m.focusedPanel < 0 {
				m.focusedPanel = panelCount - 1
			}

		case "f1":
			m.focusedPanel = FocusOpportunities
		case "f2":
			m.focusedPanel = FocusPortfolio
		case "f3":
			m.focusedPanel = FocusOrderEntry
		case "f4":
			m.focusedPanel = FocusOrders

		case "b", "s":
			// Quick trade on the highlighted opportunity.
			if m.focusedPanel == FocusOpportunities {
				if sym := m.opportunitiesPanel.SelectedSymbol(); sym != "" {
					m.orderEntryPanel.Prefill(sym)
					m.focusedPanel = FocusOrderEntry
				}
			}

		case "r":
			if m.focusedPanel != FocusOrderEntry {
				m.eng.ResetPaper(0)
				m.statusMsg = "paper account reset"
				m.refresh()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case panels.OrderSubmitMsg:
		m.handleOrder(msg)

	case tickMsg:
		m.eng.TickAll(1)
		m.refresh()
		cmds = append(cmds, m.tickRefresh())
	}

	m.updateFocusedPanel(msg, &cmds)

	return m, tea.Batch(cmds...)
}

func (m *Model) updateFocusedPanel(msg tea.Msg, cmds *[]tea.Cmd) {
	var cmd tea.Cmd

	switch m.focusedPanel {
	case FocusOpportunities:
		m.opportunitiesPanel, cmd = m.opportunitiesPanel.Update(msg)
	case FocusPortfolio:
		m.portfolioPanel, cmd = m.portfolioPanel.Update(msg)
	case FocusOrderEntry:
		m.orderEntryPanel, cmd = m.orderEntryPanel.Update(msg)
	case FocusOrders:
		m.ordersPanel, cmd = m.ordersPanel.Update(msg)
	}

	if cmd != nil {
		*cmds = append(*cmds, cmd)
	}
}

// View renders the UI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	m.opportunitiesPanel.SetFocus(m.focusedPanel == FocusOpportunities)
	m.portfolioPanel.SetFocus(m.focusedPanel == FocusPortfolio)
	m.orderEntryPanel.SetFocus(m.focusedPanel == FocusOrderEntry)
	m.ordersPanel.SetFocus(m.focusedPanel == FocusOrders)

	// Layout:
	// ┌───────────────────┬─────────────────────────┐
	// │   Opportunities   │        Portfolio        │
	// │                   ├─────────────┬───────────┤
	// │                   │ Order Entry │  Orders   │
	// └───────────────────┴─────────────┴───────────┘

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth

	bodyHeight := m.height - 1
	topHeight := bodyHeight / 2
	bottomHeight := bodyHeight - topHeight

	m.opportunitiesPanel.SetSize(leftWidth, bodyHeight)
	m.portfolioPanel.SetSize(rightWidth, topHeight)
	m.orderEntryPanel.SetSize(rightWidth/2, bottomHeight)
	m.ordersPanel.SetSize(rightWidth-rightWidth/2, bottomHeight)

	rightColumn := lipgloss.JoinVertical(lipgloss.Left,
		m.portfolioPanel.View(),
		lipgloss.JoinHorizontal(lipgloss.Top,
			m.orderEntryPanel.View(),
			m.ordersPanel.View(),
		),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.opportunitiesPanel.View(),
		rightColumn,
	)

	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusBar())
}

func (m *Model) renderStatusBar() string {
	help := []string{
		styles.StatusBarKeyStyle.Render("F1-F4") + styles.StatusBarDescStyle.Render(" panels"),
		styles.StatusBarKeyStyle.Render("Tab") + styles.StatusBarDescStyle.Render(" cycle"),
		styles.StatusBarKeyStyle.Render("b/s") + styles.StatusBarDescStyle.Render(" trade"),
		styles.StatusBarKeyStyle.Render("r") + styles.StatusBarDescStyle.Render(" reset"),
		styles.StatusBarKeyStyle.Render("q") + styles.StatusBarDescStyle.Render(" quit"),
	}

	helpStr := help[0]
	for _, h := range help[1:] {
		helpStr = lipgloss.JoinHorizontal(lipgloss.Center, helpStr, " │ ", h)
	}

	status := ""
	if m.statusMsg != "" {
		status = " │ " + m.statusMsg
	}

	return styles.StatusBarStyle.Width(m.width).Render(helpStr + status)
}

func (m *Model) handleOrder(msg panels.OrderSubmitMsg) {
	var res engine.TradeResult
	if msg.Side == market.SideBuy {
		res = m.eng.Buy(msg.Symbol, msg.Qty)
	} else {
		res = m.eng.Sell(msg.Symbol, msg.Qty)
	}

	if res.OK {
		m.statusMsg = fmt.Sprintf("✓ %s %d %s @ %.2f (fee %.2f)",
			msg.Side, msg.Qty, msg.Symbol, res.FillPrice, res.Fee)
	} else {
		m.statusMsg = "❌ " + res.Reason
	}
	m.refresh()
}

func (m *Model) refresh() {
	m.opportunitiesPanel.SetRows(m.eng.Snapshot())
	m.portfolioPanel.SetPortfolio(m.eng.Portfolio(), m.eng.Day(), m.eng.Session())
	m.ordersPanel.SetOrders(m.eng.Orders())
}

// tickMsg is sent periodically to advance the market and refresh data.
type tickMsg struct{}

func (m *Model) tickRefresh() tea.Cmd {
	return tea.Tick(m.tickInterval, func(t time.Time) tea.Msg {
		return tickMsg{}
	})
}
