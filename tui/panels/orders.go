package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/papertrade/internal/ledger"
	"github.com/zappabad/papertrade/internal/market"
	"github.com/zappabad/papertrade/tui/styles"
)

// OrdersPanel displays the order log, newest first.
type OrdersPanel struct {
	orders       []ledger.Order
	scrollOffset int
	focused      bool
	width        int
	height       int
}

// NewOrdersPanel creates a new orders panel.
func NewOrdersPanel() *OrdersPanel {
	return &OrdersPanel{}
}

// Init initializes the panel.
func (p *OrdersPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *OrdersPanel) Update(msg tea.Msg) (*OrdersPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.scrollOffset > 0 {
				p.scrollOffset--
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.scrollOffset < len(p.orders)-1 {
				p.scrollOffset++
			}
		}
	}
	return p, nil
}

// View renders the panel.
func (p *OrdersPanel) View() string {
	var content strings.Builder

	header := fmt.Sprintf("%-8s %-4s %-5s %6s %9s %7s", "Time", "Side", "Sym", "Qty", "Price", "Fee")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	visible := p.height - 6
	if visible < 1 {
		visible = 1
	}
	end := p.scrollOffset + visible
	if end > len(p.orders) {
		end = len(p.orders)
	}

	if len(p.orders) == 0 {
		content.WriteString(styles.TimeStyle.Render("no fills yet"))
	}

	for i := p.scrollOffset; i < end; i++ {
		o := p.orders[i]

		sideStyle := styles.BuyStyle
		if o.Side == market.SideSell {
			sideStyle = styles.SellStyle
		}

		row := fmt.Sprintf("%s %s %-5s %6d %9s %7.2f",
			styles.TimeStyle.Render(o.Time.Format("15:04:05")),
			sideStyle.Render(fmt.Sprintf("%-4s", o.Side)),
			o.Symbol, o.Qty,
			styles.FormatPrice(o.Price),
			o.Fee,
		)
		content.WriteString(styles.RowStyle.Render(row))
		if o.Note != "" {
			content.WriteString("\n  " + styles.TimeStyle.Render(o.Note))
		}
		if i < end-1 {
			content.WriteString("\n")
		}
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("🧾 Orders", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *OrdersPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *OrdersPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetOrders replaces the displayed order log.
func (p *OrdersPanel) SetOrders(orders []ledger.Order) {
	p.orders = orders
	if p.scrollOffset >= len(orders) {
		p.scrollOffset = 0
	}
}
