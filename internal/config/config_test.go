package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bill-advisor/internal/policy"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Name)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, 6*time.Hour, cfg.Scheduler.Interval)
	assert.Equal(t, PriceSourceStatic, cfg.Reference.PriceSource)
	assert.Equal(t, 30*time.Second, cfg.Analysis.Timeout)
	assert.Equal(t, 3, cfg.Analysis.BestOffers)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "billing-records", cfg.Kafka.InputTopic)
	assert.Equal(t, 1000, cfg.Export.MaxRows)
	assert.True(t, policy.Default().Market.FallbackCommodityPerKWh.Equal(cfg.Policy.Market.FallbackCommodityPerKWh))
}

func TestLoadPolicyOverrideKeepsOtherDefaults(t *testing.T) {
	path := writeConfig(t, `
policy:
  market:
    overprice_pct: 20
    fallback_commodity_eur_kwh: "0.125"
  power:
    days_per_month: 31
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	def := policy.Default()
	assert.True(t, decimal.NewFromInt(20).Equal(cfg.Policy.Market.OverpricePct))
	assert.True(t, decimal.RequireFromString("0.125").Equal(cfg.Policy.Market.FallbackCommodityPerKWh))
	assert.Equal(t, 31, cfg.Policy.Power.DaysPerMonth)
	assert.True(t, def.Market.DispatchingPerKWh.Equal(cfg.Policy.Market.DispatchingPerKWh))
	assert.True(t, def.Power.KWhPerKWMonth.Equal(cfg.Policy.Power.KWhPerKWMonth))
	assert.Equal(t, def.Offers.RenewableKeywords, cfg.Policy.Offers.RenewableKeywords)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("BILLADVISOR_ALERTING_THRESHOLD_EUR", "250")
	t.Setenv("BILLADVISOR_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(writeConfig(t, "alerting:\n  enabled: true\n"))
	require.NoError(t, err)

	assert.True(t, cfg.Alerting.Enabled)
	assert.Equal(t, 250.0, cfg.Alerting.ThresholdEUR)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown price source", "reference:\n  price_source: carrier-pigeon\n"},
		{"http without base url", "reference:\n  price_source: http\n"},
		{"influx without bucket", "reference:\n  price_source: influx\ninfluxdb:\n  url: http://localhost:8086\n"},
		{"postgres without dsn", "reference:\n  price_source: postgres\n"},
		{"telegram without token", "alerting:\n  telegram:\n    enabled: true\n    chat_id: \"1\"\n"},
		{"negative threshold", "alerting:\n  threshold_eur: -1\n"},
		{"zero max rows", "export:\n  max_rows: 0\n"},
		{"broken policy", "policy:\n  power:\n    kwh_per_kw_month: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestDecimalHookFunc(t *testing.T) {
	hook := DecimalHookFunc()
	target := reflectDecimal()

	for _, in := range []interface{}{"1.5", " 1.5 ", 1.5, float32(1.5)} {
		out, err := hook(nil, target, in)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("1.5").Equal(out.(decimal.Decimal)), "%v", in)
	}

	out, err := hook(nil, target, 3)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3).Equal(out.(decimal.Decimal)))

	_, err = hook(nil, target, "abc")
	assert.Error(t, err)

	passthrough, err := hook(nil, reflectString(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", passthrough)
}

func TestResolveMaxRows(t *testing.T) {
	cfg := &Config{Export: ExportConfig{MaxRows: 50}}
	assert.Equal(t, 50, cfg.ResolveMaxRows(0))
	assert.Equal(t, 7, cfg.ResolveMaxRows(7))
}

func reflectDecimal() reflect.Type { return reflect.TypeOf(decimal.Decimal{}) }
func reflectString() reflect.Type  { return reflect.TypeOf("") }
