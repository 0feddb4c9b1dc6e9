package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func sampleNotification() Notification {
	return Notification{
		AnalysisID:      "6f1c2f8e-0000-4000-8000-000000000001",
		POD:             "IT001E12345678",
		PeriodStart:     time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:       time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
		InvoiceTotal:    decimal.RequireFromString("80.17"),
		Supplier:        "Enel Energia",
		OfferName:       "E-Light Luce",
		Saving:          decimal.RequireFromString("182.4"),
		ThresholdEUR:    decimal.NewFromInt(100),
		TopAction:       "Passa a un'offerta piu conveniente",
		TopActionSaving: decimal.RequireFromString("182.4"),
		Channels:        []string{"telegram"},
	}
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("path should contain sendMessage, got %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.URL.Path, "/bottoken/") {
			t.Fatalf("path should carry the bot token, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL+"/", time.Second, testLogger())

	if err := notifier.Notify(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("Telegram Notify should succeed: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("unexpected chat_id: %#v", received)
	}
	if !strings.Contains(received["text"], "Saving: 182.40 EUR/year (threshold 100.00 EUR)") {
		t.Fatalf("text should report the saving, got %q", received["text"])
	}
}

func TestTelegramNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())

	if err := notifier.Notify(context.Background(), sampleNotification()); err == nil {
		t.Fatal("ok=false should fail")
	}
}

func TestTelegramNotifierStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())

	if err := notifier.Notify(context.Background(), sampleNotification()); err == nil {
		t.Fatal("non-2xx status should fail")
	}
}

func TestRenderMessage(t *testing.T) {
	text := renderMessage(sampleNotification())

	for _, want := range []string{
		"POD: IT001E12345678",
		"Period: 2024-11-01 to 2024-12-31",
		"Invoice: 80.17 EUR",
		"Best offer: Enel Energia - E-Light Luce",
		"Top action: Passa a un'offerta piu conveniente (182.40 EUR/year)",
		"Channels: telegram",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("message missing %q:\n%s", want, text)
		}
	}

	bare := renderMessage(Notification{Saving: decimal.NewFromInt(5)})
	if strings.Contains(bare, "Best offer") || strings.Contains(bare, "Top action") {
		t.Fatalf("optional lines should be omitted:\n%s", bare)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf strings.Builder
	notifier := NewLogNotifier(zerolog.New(&buf))

	if err := notifier.Notify(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("log notify should not fail: %v", err)
	}
	if !strings.Contains(buf.String(), `"saving_eur":"182.40"`) {
		t.Fatalf("log line missing saving: %s", buf.String())
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
