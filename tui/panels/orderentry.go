package panels

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zappabad/papertrade/internal/market"
	"github.com/zappabad/papertrade/tui/styles"
)

// OrderEntryField represents the currently focused input field.
type OrderEntryField int

const (
	FieldSymbol OrderEntryField = iota
	FieldSide
	FieldQty
	FieldSubmit
)

// OrderEntryPanel collects a symbol, side and quantity and submits the order.
type OrderEntryPanel struct {
	symbolInput textinput.Model
	qtyInput    textinput.Model

	sideOptions []string
	sideIndex   int

	currentField OrderEntryField

	focused bool
	width   int
	height  int
}

// NewOrderEntryPanel creates a new order entry panel.
func NewOrderEntryPanel() *OrderEntryPanel {
	symbolInput := textinput.New()
	symbolInput.Placeholder = "Symbol"
	symbolInput.Width = 10
	symbolInput.CharLimit = 8

	qtyInput := textinput.New()
	qtyInput.Placeholder = "Quantity"
	qtyInput.Width = 10
	qtyInput.CharLimit = 10

	return &OrderEntryPanel{
		symbolInput:  symbolInput,
		qtyInput:     qtyInput,
		sideOptions:  []string{"BUY", "SELL"},
		currentField: FieldSymbol,
	}
}

// Init initializes the panel.
func (p *OrderEntryPanel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the panel.
func (p *OrderEntryPanel) Update(msg tea.Msg) (*OrderEntryPanel, tea.Cmd) {
	if !p.focused {
		return p, nil
	}

	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("down"))):
			p.nextField()
			return p, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("up"))):
			p.prevField()
			return p, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if p.currentField == FieldSubmit {
				return p, p.submitOrder()
			}
			p.nextField()
			return p, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("left"))):
			if p.currentField == FieldSide && p.sideIndex > 0 {
				p.sideIndex--
				return p, nil
			}

		case key.Matches(msg, key.NewBinding(key.WithKeys("right"))):
			if p.currentField == FieldSide && p.sideIndex < len(p.sideOptions)-1 {
				p.sideIndex++
				return p, nil
			}
		}
	}

	switch p.currentField {
	case FieldSymbol:
		p.symbolInput, cmd = p.symbolInput.Update(msg)
	case FieldQty:
		p.qtyInput, cmd = p.qtyInput.Update(msg)
	}

	return p, cmd
}

// View renders the panel.
func (p *OrderEntryPanel) View() string {
	var content strings.Builder

	if p.currentField == FieldSymbol && p.focused {
		p.symbolInput.Focus()
	} else {
		p.symbolInput.Blur()
	}
	if p.currentField == FieldQty && p.focused {
		p.qtyInput.Focus()
	} else {
		p.qtyInput.Blur()
	}

	content.WriteString(p.renderField("Symbol", FieldSymbol, p.symbolInput.View()))
	content.WriteString("\n")
	content.WriteString(p.renderField("Side", FieldSide, p.renderSideField()))
	content.WriteString("\n")
	content.WriteString(p.renderField("Qty", FieldQty, p.qtyInput.View()))
	content.WriteString("\n\n")

	submitStyle := styles.LabelStyle
	if p.currentField == FieldSubmit && p.focused {
		submitStyle = styles.FocusedLabelStyle
	}
	content.WriteString(submitStyle.Render("[ Submit Order ]"))

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("📝 Order Entry", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *OrderEntryPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *OrderEntryPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Prefill sets the symbol field, used when a row is picked elsewhere.
func (p *OrderEntryPanel) Prefill(symbol string) {
	p.symbolInput.SetValue(symbol)
}

func (p *OrderEntryPanel) renderField(label string, field OrderEntryField, inputView string) string {
	labelStyle := styles.LabelStyle
	if p.currentField == field && p.focused {
		labelStyle = styles.FocusedLabelStyle
	}
	return labelStyle.Render(fmt.Sprintf("%-8s", label)) + inputView
}

func (p *OrderEntryPanel) renderSideField() string {
	var items []string
	for i, opt := range p.sideOptions {
		style := styles.LabelStyle
		if i == p.sideIndex {
			if opt == "BUY" {
				style = styles.BuyStyle
			} else {
				style = styles.SellStyle
			}
		}
		items = append(items, style.Render(opt))
	}
	return strings.Join(items, " | ")
}

func (p *OrderEntryPanel) nextField() {
	if p.currentField < FieldSubmit {
		p.currentField++
	}
}

func (p *OrderEntryPanel) prevField() {
	if p.currentField > FieldSymbol {
		p.currentField--
	}
}

func (p *OrderEntryPanel) submitOrder() tea.Cmd {
	symbol := market.NormalizeSymbol(p.symbolInput.Value())
	qty, err := strconv.ParseInt(strings.TrimSpace(p.qtyInput.Value()), 10, 64)
	if err != nil || qty <= 0 {
		qty = 1
	}

	side := market.SideBuy
	if p.sideIndex == 1 {
		side = market.SideSell
	}

	return func() tea.Msg {
		return OrderSubmitMsg{Side: side, Symbol: symbol, Qty: qty}
	}
}
