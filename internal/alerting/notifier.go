package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Notification carries the context of a savings alert.
type Notification struct {
	AnalysisID   string
	POD          string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	InvoiceTotal decimal.Decimal
	Supplier     string
	OfferName    string
	Saving       decimal.Decimal
	ThresholdEUR decimal.Decimal
	// TopAction is the highest ranked intervention title, empty when none.
	TopAction       string
	TopActionSaving decimal.Decimal
	Channels        []string
	AdditionalMsg   string
}

// Notifier defines the alert delivery interface.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier pushes messages through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier builds a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify calls sendMessage with the rendered text.
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram unexpected status: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().Str("analysis_id", note.AnalysisID).
		Str("pod", note.POD).
		Str("channels", strings.Join(note.Channels, ",")).
		Msg("alert sent (Telegram)")
	return nil
}

// LogNotifier writes alerts to the logger. Used when no remote channel is
// configured.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier builds a notifier backed by the given logger.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "alert_log").Logger()}
}

// Notify logs the rendered message at warn level.
func (n *LogNotifier) Notify(_ context.Context, note Notification) error {
	n.logger.Warn().Str("analysis_id", note.AnalysisID).
		Str("pod", note.POD).
		Str("saving_eur", note.Saving.StringFixed(2)).
		Msg(renderMessage(note))
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString("[Bill Advisor] Savings available\n")
	if note.POD != "" {
		builder.WriteString(fmt.Sprintf("POD: %s\n", note.POD))
	}
	if !note.PeriodStart.IsZero() {
		builder.WriteString(fmt.Sprintf("Period: %s to %s\n", note.PeriodStart.Format(time.DateOnly), note.PeriodEnd.Format(time.DateOnly)))
	}
	builder.WriteString(fmt.Sprintf("Invoice: %s EUR\n", note.InvoiceTotal.StringFixed(2)))
	if note.OfferName != "" {
		builder.WriteString(fmt.Sprintf("Best offer: %s - %s\n", note.Supplier, note.OfferName))
	}
	builder.WriteString(fmt.Sprintf("Saving: %s EUR/year (threshold %s EUR)\n", note.Saving.StringFixed(2), note.ThresholdEUR.StringFixed(2)))
	if note.TopAction != "" {
		builder.WriteString(fmt.Sprintf("Top action: %s (%s EUR/year)\n", note.TopAction, note.TopActionSaving.StringFixed(2)))
	}
	if note.AnalysisID != "" {
		builder.WriteString(fmt.Sprintf("Analysis: %s\n", note.AnalysisID))
	}
	if len(note.Channels) > 0 {
		builder.WriteString(fmt.Sprintf("Channels: %s\n", strings.Join(note.Channels, ",")))
	}
	if note.AdditionalMsg != "" {
		builder.WriteString(note.AdditionalMsg)
	}
	return builder.String()
}

var (
	_ Notifier = (*TelegramNotifier)(nil)
	_ Notifier = (*LogNotifier)(nil)
)
