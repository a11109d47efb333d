package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/arassiq/SafeSenior/internal/config"
	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/logger"
)

// AlertHeadline opens every high-risk Telegram alert.
const AlertHeadline = "SCAM ALERT: High-risk call detected"

// TelegramNotifier posts high-risk call alerts to an ops channel.
// Low and medium risk outcomes are ignored; the family SMS already
// covers those.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
	logger logger.Logger
}

// NewTelegramNotifier creates a Telegram notifier from config.
func NewTelegramNotifier(cfg *config.TelegramConfig, log logger.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &TelegramNotifier{
		api:    api,
		chatID: cfg.ChatID,
		logger: log,
	}, nil
}

// Name implements Notifier.
func (n *TelegramNotifier) Name() string {
	return "telegram"
}

// CallScreened posts an alert when the screening verdict is
// BLOCK_AND_ALERT. All other verdicts are silently skipped.
func (n *TelegramNotifier) CallScreened(_ context.Context, call *domain.Call) error {
	if call.Result == nil || call.Result.Recommendation != domain.RecommendationBlockAndAlert {
		return nil
	}

	msg := tgbotapi.NewMessage(n.chatID, AlertMessage(call))
	msg.DisableWebPagePreview = true

	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram alert for call %s: %w", call.ID, err)
	}

	n.logger.Info("Telegram alert sent",
		logger.String("call_id", call.ID),
		logger.Float64("risk_score", call.Result.RiskScore))

	return nil
}

// AlertMessage renders the ops alert for a high-risk call.
func AlertMessage(call *domain.Call) string {
	result := call.Result

	var b strings.Builder
	b.WriteString(AlertHeadline)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Caller: %s\n", call.CallerNumber)
	fmt.Fprintf(&b, "Risk score: %.2f\n", result.RiskScore)
	fmt.Fprintf(&b, "Action: %s\n", result.Action)

	if len(result.Indicators) > 0 {
		fmt.Fprintf(&b, "Matched patterns: %s\n", strings.Join(result.Indicators, ", "))
	}

	if preview := domain.TranscriptPreview(call.Transcript); preview != "" {
		fmt.Fprintf(&b, "Transcript: %s", preview)
	}

	return b.String()
}
