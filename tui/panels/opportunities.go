package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/papertrade/internal/market"
	"github.com/zappabad/papertrade/tui/styles"
)

var sparkGlyphs = []rune("▁▂▃▄▅▆▇█")

// OpportunitiesPanel displays the ranked opportunity board with sparklines.
type OpportunitiesPanel struct {
	rows          []market.Opportunity
	selectedIndex int
	scrollOffset  int
	focused       bool
	width         int
	height        int
}

// NewOpportunitiesPanel creates a new opportunities panel.
func NewOpportunitiesPanel() *OpportunitiesPanel {
	return &OpportunitiesPanel{}
}

// Init initializes the panel.
func (p *OpportunitiesPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *OpportunitiesPanel) Update(msg tea.Msg) (*OpportunitiesPanel, tea.Cmd) {
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
			if p.selectedIndex < len(p.rows)-1 {
				p.selectedIndex++
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("home", "g"))):
			p.selectedIndex = 0
		case key.Matches(msg, key.NewBinding(key.WithKeys("end", "G"))):
			if len(p.rows) > 0 {
				p.selectedIndex = len(p.rows) - 1
			}
		}
	}
	return p, nil
}

// View renders the panel.
func (p *OpportunitiesPanel) View() string {
	var content strings.Builder

	header := fmt.Sprintf("%-5s %9s %8s %5s  %s", "Sym", "Price", "Chg%", "Score", "Trend")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	visible := p.height - 6
	if visible < 1 {
		visible = 1
	}
	p.clampScroll(visible)

	end := p.scrollOffset + visible
	if end > len(p.rows) {
		end = len(p.rows)
	}

	for i := p.scrollOffset; i < end; i++ {
		opp := p.rows[i]

		chgStyle := styles.PriceUpStyle
		if opp.ChangePct < 0 {
			chgStyle = styles.PriceDownStyle
		}

		row := fmt.Sprintf("%-5s %9s ", opp.Symbol, styles.FormatPrice(opp.Price)) +
			chgStyle.Render(fmt.Sprintf("%8s", styles.FormatChange(opp.ChangePct))) +
			fmt.Sprintf(" %5d  ", opp.Score) +
			styles.SparkStyle.Render(renderSpark(opp.Spark))

		style := styles.RowStyle
		if i == p.selectedIndex && p.focused {
			style = styles.SelectedRowStyle
		}
		content.WriteString(style.Render(row))
		if i < end-1 {
			content.WriteString("\n")
		}
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("📈 Opportunities", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *OpportunitiesPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *OpportunitiesPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetRows replaces the displayed opportunity rows.
func (p *OpportunitiesPanel) SetRows(rows []market.Opportunity) {
	p.rows = rows
	if p.selectedIndex >= len(rows) {
		p.selectedIndex = len(rows) - 1
	}
	if p.selectedIndex < 0 {
		p.selectedIndex = 0
	}
}

// SelectedSymbol returns the symbol of the highlighted row, or "".
func (p *OpportunitiesPanel) SelectedSymbol() string {
	if p.selectedIndex >= 0 && p.selectedIndex < len(p.rows) {
		return p.rows[p.selectedIndex].Symbol
	}
	return ""
}

func (p *OpportunitiesPanel) clampScroll(visible int) {
	if p.selectedIndex < p.scrollOffset {
		p.scrollOffset = p.selectedIndex
	}
	if p.selectedIndex >= p.scrollOffset+visible {
		p.scrollOffset = p.selectedIndex - visible + 1
	}
	if p.scrollOffset < 0 {
		p.scrollOffset = 0
	}
}

// renderSpark maps normalized [0,1] points onto block glyphs.
func renderSpark(points []float64) string {
	var b strings.Builder
	for _, v := range points {
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		idx := int(v * float64(len(sparkGlyphs)-1))
		b.WriteRune(sparkGlyphs[idx])
	}
	return b.String()
}
