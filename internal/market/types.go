package market

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Side indicates the direction of a trade.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the side as "BUY" or "SELL" so persisted ledgers stay
// readable.
func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Side) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	side, err := ParseSide(str)
	if err != nil {
		return err
	}
	*s = side
	return nil
}

// ParseSide parses a side string, case-insensitively.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

// Session is the simulated trading-hours regime. It affects spread width:
// quotes are wider outside regular hours.
type Session uint8

const (
	SessionRegular Session = iota
	SessionPost
	SessionPre
)

func (s Session) String() string {
	switch s {
	case SessionRegular:
		return "RTH"
	case SessionPost:
		return "POST"
	case SessionPre:
		return "PRE"
	default:
		return "UNKNOWN"
	}
}

// Instrument is one synthetic tradeable in the universe. The static
// parameters are fixed at creation; the mutable state is rewritten every
// simulated day by Universe.Step.
type Instrument struct {
	Symbol string
	Name   string
	Sector string

	Shares float64 // outstanding share count
	Drift  float64 // mean daily log-return bias
	Vol    float64 // daily return standard deviation
	Beta   float64 // sensitivity to the shared market factor

	Price     float64
	EMA       float64 // trailing EMA-200 anchor
	LastClose float64
	ChangePct float64
	Spark     []float64 // recent price levels normalized to [0,1], fixed length
}

// Quote is an ephemeral derived value; it is computed on demand and never
// stored.
type Quote struct {
	Symbol  string  `json:"symbol"`
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
	Last    float64 `json:"last"`
	Spread  float64 `json:"spread"`
	Session Session `json:"-"`
}

// Opportunity is one row of the ranked snapshot.
type Opportunity struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	ChangePct float64   `json:"changePct"`
	Score     int       `json:"score"`
	Spark     []float64 `json:"spark"`
}
