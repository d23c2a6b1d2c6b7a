package panels

import "github.com/zappabad/papertrade/internal/market"

// OrderSubmitMsg is emitted by the order entry panel when the user submits.
type OrderSubmitMsg struct {
	Side   market.Side
	Symbol string
	Qty    int64
}
