// Package metrics holds the Prometheus instruments shared across the agent.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuotesIngested counts quotes accepted into the ledger, by source.
	QuotesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trading_agent_quotes_ingested_total",
		Help: "Number of odds quotes accepted into the ledger.",
	}, []string{"source"})

	// QuotesRejected counts quotes dropped at validation.
	QuotesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trading_agent_quotes_rejected_total",
		Help: "Number of odds quotes rejected at validation.",
	}, []string{"source"})

	// QuoteChanges counts detected price movements.
	QuoteChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trading_agent_quote_changes_total",
		Help: "Number of price movements detected by the ledger.",
	})

	// SignalsEmitted counts emitted signals, by heuristic kind.
	SignalsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trading_agent_signals_emitted_total",
		Help: "Number of trading signals emitted.",
	}, []string{"kind"})

	// AlertsSent counts alerts delivered, by notifier.
	AlertsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trading_agent_alerts_sent_total",
		Help: "Number of alerts delivered to notification channels.",
	}, []string{"notifier"})

	// AlertsSuppressed counts alerts dropped before delivery, by reason.
	AlertsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trading_agent_alerts_suppressed_total",
		Help: "Number of alerts suppressed by filter, dedup or rate limit.",
	}, []string{"reason"})

	// ProviderCredits tracks the remaining request budget per provider.
	ProviderCredits = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trading_agent_provider_credits_remaining",
		Help: "Remaining request credits for an odds provider.",
	}, []string{"provider"})

	// LedgerEntries tracks the number of live ledger entries.
	LedgerEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trading_agent_ledger_entries",
		Help: "Number of quote entries currently held in the ledger.",
	})
)
