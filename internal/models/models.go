package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventStatus describes the lifecycle stage of a fixture.
type EventStatus string

const (
	EventUpcoming EventStatus = "upcoming"
	EventLive     EventStatus = "live"
	EventFinished EventStatus = "finished"
)

// Event is a sporting fixture tracked by the agent.
type Event struct {
	ID           string      `json:"id"`
	Sport        string      `json:"sport"`
	Competition  string      `json:"competition"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	CommenceTime time.Time   `json:"commence_time"`
	Status       EventStatus `json:"status"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Name returns the display name of the fixture.
func (e Event) Name() string {
	return e.HomeTeam + " vs " + e.AwayTeam
}

// OddsQuote is a Back/Lay price pair for one selection from one bookmaker
// at a point in time. LayPrice is zero when the source carries no lay market.
type OddsQuote struct {
	ID          uuid.UUID       `json:"id"`
	EventID     string          `json:"event_id"`
	EventName   string          `json:"event_name"`
	Sport       string          `json:"sport"`
	Competition string          `json:"competition"`
	Market      string          `json:"market"`
	Selection   string          `json:"selection"`
	Bookmaker   string          `json:"bookmaker"`
	BackPrice   decimal.Decimal `json:"back_price"`
	LayPrice    decimal.Decimal `json:"lay_price"`
	Source      string          `json:"source"`
	Timestamp   time.Time       `json:"timestamp"`
	ReceivedAt  time.Time       `json:"received_at"`
}

// Key identifies the ledger slot this quote belongs to.
func (q OddsQuote) Key() string {
	return fmt.Sprintf("%s:%s:%s:%s", q.EventID, q.Market, q.Selection, q.Bookmaker)
}

// QuoteChange records a price movement detected by the ledger.
// DriftPercent is the back-price delta relative to the previous back price,
// in percent; it is zero on first sighting of a key.
type QuoteChange struct {
	Quote        OddsQuote       `json:"quote"`
	PrevBack     decimal.Decimal `json:"prev_back"`
	PrevLay      decimal.Decimal `json:"prev_lay"`
	BackDelta    decimal.Decimal `json:"back_delta"`
	DriftPercent decimal.Decimal `json:"drift_percent"`
	FirstSeen    bool            `json:"first_seen"`
	ChangedAt    time.Time       `json:"changed_at"`
}

// SignalKind names the heuristic that produced a signal.
type SignalKind string

const (
	SignalArbitrage SignalKind = "arbitrage"
	SignalDrift     SignalKind = "drift"
	SignalCycle     SignalKind = "cycle"
)

// SignalAction is the recommended exchange operation.
type SignalAction string

const (
	ActionBack       SignalAction = "BACK"
	ActionLay        SignalAction = "LAY"
	ActionBackAndLay SignalAction = "BACK_AND_LAY"
)

// Signal is a derived Back/Lay trading recommendation.
type Signal struct {
	ID              uuid.UUID       `json:"id"`
	Kind            SignalKind      `json:"kind"`
	Action          SignalAction    `json:"action"`
	EventID         string          `json:"event_id"`
	EventName       string          `json:"event_name"`
	Sport           string          `json:"sport"`
	Market          string          `json:"market"`
	Selection       string          `json:"selection"`
	BackBookmaker   string          `json:"back_bookmaker,omitempty"`
	LayBookmaker    string          `json:"lay_bookmaker,omitempty"`
	BackPrice       decimal.Decimal `json:"back_price"`
	LayPrice        decimal.Decimal `json:"lay_price"`
	SpreadPercent   decimal.Decimal `json:"spread_percent"`
	ArbitrageMargin decimal.Decimal `json:"arbitrage_margin"`
	DriftPercent    decimal.Decimal `json:"drift_percent"`
	Confidence      float64         `json:"confidence"`
	Stake           decimal.Decimal `json:"stake"`
	PotentialProfit decimal.Decimal `json:"potential_profit"`
	MaxLiability    decimal.Decimal `json:"max_liability"`
	Strategy        string          `json:"strategy"`
	QuoteTimestamp  time.Time       `json:"quote_timestamp"`
	DetectedAt      time.Time       `json:"detected_at"`
}

// CycleParams holds thresholds for the cycle trading method: back at very
// short odds or lay at very long odds, sized so a win takes the configured
// green percentage of the bankroll.
type CycleParams struct {
	MaxBackOdds     decimal.Decimal // maximum back price, e.g. 1.06
	MinLayOdds      decimal.Decimal // minimum lay price, e.g. 30.0
	GreenTarget     decimal.Decimal // target profit fraction of bankroll, e.g. 0.05
	MaxRed          decimal.Decimal // maximum acceptable loss fraction, e.g. 0.15
	RiskRewardRatio decimal.Decimal // accepted risk:reward, e.g. 3 for 1:3
	Bankroll        decimal.Decimal // bankroll used for stake sizing
}

// QuoteBatchMessage is the Kafka payload produced by out-of-process
// collectors (scraped sources that cannot be polled in-process).
type QuoteBatchMessage struct {
	Quotes    []OddsQuote `json:"quotes"`
	Source    string      `json:"source"`
	BatchID   string      `json:"batch_id"`
	Timestamp time.Time   `json:"timestamp"`
}

// SignalMessage wraps an emitted signal for the outbound Kafka topic.
type SignalMessage struct {
	Signal      Signal    `json:"signal"`
	PublishedAt time.Time `json:"published_at"`
}
