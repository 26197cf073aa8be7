package alert

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/cypherlabdev/sports-trading-agent/internal/models"
)

// TelegramNotifier sends alerts to a Telegram chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier authenticates the bot against the Telegram API.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (t *TelegramNotifier) Name() string { return "telegram" }

// Send formats the signal as Markdown and posts it to the chat.
func (t *TelegramNotifier) Send(ctx context.Context, sig models.Signal) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatSignal(sig))
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// FormatSignal renders a signal as a human-readable alert message.
func FormatSignal(sig models.Signal) string {
	var b strings.Builder

	switch sig.Kind {
	case models.SignalArbitrage:
		b.WriteString("*Arbitrage opportunity*\n")
	case models.SignalDrift:
		b.WriteString("*Odds drift*\n")
	case models.SignalCycle:
		b.WriteString("*Cycle entry*\n")
	default:
		b.WriteString("*Signal*\n")
	}

	fmt.Fprintf(&b, "%s\n", sig.EventName)
	fmt.Fprintf(&b, "Market: %s | Selection: %s\n", sig.Market, sig.Selection)
	fmt.Fprintf(&b, "Action: %s\n", sig.Action)

	if !sig.BackPrice.IsZero() {
		if sig.BackBookmaker != "" {
			fmt.Fprintf(&b, "Back: %s @ %s\n", sig.BackPrice.String(), sig.BackBookmaker)
		} else {
			fmt.Fprintf(&b, "Back: %s\n", sig.BackPrice.String())
		}
	}
	if !sig.LayPrice.IsZero() {
		if sig.LayBookmaker != "" {
			fmt.Fprintf(&b, "Lay: %s @ %s\n", sig.LayPrice.String(), sig.LayBookmaker)
		} else {
			fmt.Fprintf(&b, "Lay: %s\n", sig.LayPrice.String())
		}
	}

	if !sig.ArbitrageMargin.IsZero() {
		fmt.Fprintf(&b, "Margin: %s%%\n", sig.ArbitrageMargin.Mul(hundred).StringFixed(2))
	}
	if !sig.DriftPercent.IsZero() {
		fmt.Fprintf(&b, "Drift: %s%%\n", sig.DriftPercent.StringFixed(2))
	}
	if !sig.Stake.IsZero() {
		fmt.Fprintf(&b, "Stake: %s\n", sig.Stake.StringFixed(2))
	}
	if !sig.PotentialProfit.IsZero() {
		fmt.Fprintf(&b, "Potential profit: %s\n", sig.PotentialProfit.StringFixed(2))
	}
	if !sig.MaxLiability.IsZero() {
		fmt.Fprintf(&b, "Max liability: %s\n", sig.MaxLiability.StringFixed(2))
	}

	fmt.Fprintf(&b, "Confidence: %.0f%%", sig.Confidence*100)
	return b.String()
}
