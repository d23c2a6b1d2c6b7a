package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/papertrade/internal/engine"
	"github.com/zappabad/papertrade/internal/market"
	"github.com/zappabad/papertrade/tui/styles"
)

// PortfolioPanel displays cash, equity and open positions.
type PortfolioPanel struct {
	portfolio     engine.Portfolio
	day           int
	session       market.Session
	selectedIndex int
	focused       bool
	width         int
	height        int
}

// NewPortfolioPanel creates a new portfolio panel.
func NewPortfolioPanel() *PortfolioPanel {
	return &PortfolioPanel{}
}

// Init initializes the panel.
func (p *PortfolioPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *PortfolioPanel) Update(msg tea.Msg) (*PortfolioPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.selectedIndex > 0 {
				p.selectedIndex--
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.selectedIndex < len(p.portfolio.Positions)-1 {
				p.selectedIndex++
			}
		}
	}
	return p, nil
}

// View renders the panel.
func (p *PortfolioPanel) View() string {
	var content strings.Builder

	total := p.portfolio.Equity - p.portfolio.StartingCash
	totalStyle := styles.PriceUpStyle
	if total < 0 {
		totalStyle = styles.PriceDownStyle
	}

	content.WriteString(fmt.Sprintf("Cash   %s   Equity %s   P&L %s\n",
		styles.PriceStyle.Render(styles.FormatPrice(p.portfolio.Cash)),
		styles.PriceStyle.Render(styles.FormatPrice(p.portfolio.Equity)),
		totalStyle.Render(fmt.Sprintf("%+.2f", total)),
	))
	content.WriteString(styles.TimeStyle.Render(fmt.Sprintf("Day %d  Session %s", p.day, p.session)))
	content.WriteString("\n\n")

	header := fmt.Sprintf("%-5s %6s %9s %9s %9s", "Sym", "Qty", "Avg", "Last", "P&L")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	if len(p.portfolio.Positions) == 0 {
		content.WriteString(styles.TimeStyle.Render("no open positions"))
	}

	for i, pos := range p.portfolio.Positions {
		pnlStyle := styles.PriceUpStyle
		if pos.PnL < 0 {
			pnlStyle = styles.PriceDownStyle
		}

		row := fmt.Sprintf("%-5s %6d %9s %9s ",
			pos.Symbol, pos.Qty,
			styles.FormatPrice(pos.AvgCost),
			styles.FormatPrice(pos.Last),
		) + pnlStyle.Render(fmt.Sprintf("%+9.2f", pos.PnL))

		style := styles.RowStyle
		if i == p.selectedIndex && p.focused {
			style = styles.SelectedRowStyle
		}
		content.WriteString(style.Render(row))
		if i < len(p.portfolio.Positions)-1 {
			content.WriteString("\n")
		}
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("💼 Portfolio", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *PortfolioPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *PortfolioPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetPortfolio replaces the displayed portfolio state.
func (p *PortfolioPanel) SetPortfolio(pf engine.Portfolio, day int, session market.Session) {
	p.portfolio = pf
	p.day = day
	p.session = session
	if p.selectedIndex >= len(pf.Positions) {
		p.selectedIndex = len(pf.Positions) - 1
	}
	if p.selectedIndex < 0 {
		p.selectedIndex = 0
	}
}

// SelectedSymbol returns the symbol of the highlighted position, or "".
func (p *PortfolioPanel) SelectedSymbol() string {
	if p.selectedIndex >= 0 && p.selectedIndex < len(p.portfolio.Positions) {
		return p.portfolio.Positions[p.selectedIndex].Symbol
	}
	return ""
}
