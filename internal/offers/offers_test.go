package offers

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bill-advisor/internal/billing"
	"bill-advisor/internal/policy"
	"bill-advisor/internal/reference"
)

func n(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// yearRecord is a full-year bill whose current annualized cost is 600 EUR.
func yearRecord() billing.Record {
	return billing.Record{
		Customer: billing.Customer{Class: billing.CustomerResident, POD: "IT001E00000001", Meter: billing.MeterMultiSlot},
		Supply:   billing.Supply{PowerKW: n(3), Voltage: billing.VoltageLow, Market: billing.MarketFree},
		Consumption: billing.Consumption{
			Period:   billing.Period{Start: billing.NewDate(2023, time.January, 1), End: billing.NewDate(2023, time.December, 31)},
			TotalKWh: n(2000),
			F1KWh:    n(800),
			F2KWh:    n(600),
			F3KWh:    n(600),
		},
		Costs: billing.CostDetail{
			Energy:  billing.EnergyCost{Total: n(442)},
			Network: billing.NetworkCost{Total: n(100)},
			System:  billing.SystemCharges{Total: n(30)},
			Taxes:   billing.Taxes{Total: n(28)},
		},
	}
}

func byID(t *testing.T, comparisons []Comparison, id string) Comparison {
	t.Helper()
	for _, c := range comparisons {
		if c.Offer.ID == id {
			return c
		}
	}
	t.Fatalf("offer %s not found", id)
	return Comparison{}
}

func TestCompareSingleFlatOffer(t *testing.T) {
	engine := NewEngine(policy.Default())
	catalog := []MarketOffer{{
		ID:             "flat",
		Supplier:       "Test",
		Pricing:        FlatRate{PricePerKWh: decimal.RequireFromString("0.145")},
		MonthlyFee:     decimal.RequireFromString("8.5"),
		DurationMonths: 12,
	}}

	rec := yearRecord()
	assert.True(t, CurrentAnnualCost(rec).Equal(n(600)))

	out, err := engine.Compare(rec, catalog, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 550, out[0].AnnualCost.InexactFloat64(), 1e-9)
	assert.InDelta(t, 50, out[0].Saving.InexactFloat64(), 1e-9)
	assert.InDelta(t, 8.33, out[0].SavingPct.InexactFloat64(), 0.01)
	assert.True(t, out[0].Suitable)
	assert.Equal(t, []string{NoteSlightSaving}, out[0].Notes)
}

func TestCompareDefaultCatalog(t *testing.T) {
	engine := NewEngine(policy.Default())
	catalog := DefaultOffers()

	out, err := engine.Compare(yearRecord(), catalog, nil)
	require.NoError(t, err)
	require.Len(t, out, len(catalog))
	for i := 1; i < len(out); i++ {
		assert.False(t, out[i].Saving.GreaterThan(out[i-1].Saving), "sorted by saving")
	}

	assert.InDelta(t, 82, byID(t, out, "offer-2").Saving.InexactFloat64(), 1e-9)
	assert.InDelta(t, 64, byID(t, out, "offer-3").Saving.InexactFloat64(), 1e-9)
	assert.InDelta(t, 52, byID(t, out, "offer-4").Saving.InexactFloat64(), 1e-9)
	assert.InDelta(t, 74, byID(t, out, "offer-5").Saving.InexactFloat64(), 1e-9)
	assert.InDelta(t, 76.8, byID(t, out, "offer-6").Saving.InexactFloat64(), 1e-9)
	assert.Equal(t, "offer-2", out[0].Offer.ID)

	assert.Contains(t, byID(t, out, "offer-1").Notes, NoteRenewable)
	assert.Contains(t, byID(t, out, "offer-4").Notes, NoteRenewable)
	assert.Contains(t, byID(t, out, "offer-4").Notes, NoteVariablePrice)
	assert.Contains(t, byID(t, out, "offer-5").Notes, "Vincolo contrattuale di 24 mesi")
	assert.NotContains(t, byID(t, out, "offer-2").Notes, NoteRenewable)

	best := Best(out, 3)
	require.Len(t, best, 3)
	assert.Equal(t, []string{"offer-2", "offer-6", "offer-5"}, []string{best[0].Offer.ID, best[1].Offer.ID, best[2].Offer.ID})
}

func TestCompareIndexLinkedUsesReferencePrices(t *testing.T) {
	engine := NewEngine(policy.Default())
	ref := &reference.Data{Prices: []reference.PricePoint{
		{Date: billing.NewDate(2023, time.January, 1), EURPerKWh: decimal.RequireFromString("0.10")},
		{Date: billing.NewDate(2023, time.February, 1), EURPerKWh: decimal.RequireFromString("0.12")},
	}}
	catalog := []MarketOffer{{ID: "idx", Pricing: IndexLinked{SpreadPerKWh: decimal.RequireFromString("0.025")}}}

	out, err := engine.Compare(yearRecord(), catalog, ref)
	require.NoError(t, err)
	// 2000 * (0.11 + 0.025 + 0.015) + 158
	assert.InDelta(t, 458, out[0].AnnualCost.InexactFloat64(), 1e-9)
}

func TestSuitability(t *testing.T) {
	engine := NewEngine(policy.Default())
	two := MarketOffer{ID: "two", Pricing: TwoSlot{F1PerKWh: n(1), F23PerKWh: n(1)}}
	three := MarketOffer{ID: "three", Pricing: ThreeSlot{F1PerKWh: n(1), F2PerKWh: n(1), F3PerKWh: n(1)}}
	flat := MarketOffer{ID: "flat", Pricing: FlatRate{PricePerKWh: n(1)}}

	rec := yearRecord()
	assert.True(t, engine.Suitable(two, rec))
	assert.True(t, engine.Suitable(three, rec), "F3 at exactly 30% still fits")

	rec.Consumption.F1KWh, rec.Consumption.F2KWh, rec.Consumption.F3KWh = n(1000), n(500), n(500)
	assert.False(t, engine.Suitable(two, rec))
	assert.False(t, engine.Suitable(three, rec))
	assert.True(t, engine.Suitable(flat, rec))

	rec.Consumption.F1KWh, rec.Consumption.F2KWh, rec.Consumption.F3KWh = n(800), n(800), n(400)
	assert.True(t, engine.Suitable(two, rec))
	assert.False(t, engine.Suitable(three, rec))

	rec.Consumption.TotalKWh = decimal.Zero
	assert.True(t, engine.Suitable(three, rec))
}

func TestNotesTiers(t *testing.T) {
	engine := NewEngine(policy.Default())
	offer := MarketOffer{ID: "x", Pricing: FlatRate{PricePerKWh: n(0)}}

	assert.Equal(t, []string{NoteSignificantSaving}, engine.notes(offer, n(250), true))
	assert.Equal(t, []string{NoteGoodSaving}, engine.notes(offer, n(150), true))
	assert.Equal(t, []string{NoteSlightSaving}, engine.notes(offer, n(1), true))
	assert.Equal(t, []string{NoteHigherCost, NoteUnsuitable}, engine.notes(offer, n(-1), false))
	assert.Empty(t, engine.notes(offer, decimal.Zero, true))
}

func TestCompareEmptyCatalog(t *testing.T) {
	out, err := NewEngine(policy.Default()).Compare(yearRecord(), nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestCompareInvalidPeriod(t *testing.T) {
	rec := yearRecord()
	rec.Consumption.Period.End = billing.NewDate(2022, time.December, 31)
	_, err := NewEngine(policy.Default()).Compare(rec, DefaultOffers(), nil)
	assert.ErrorIs(t, err, billing.ErrInvalidPeriod)
}

func TestCompareZeroCurrentCost(t *testing.T) {
	rec := yearRecord()
	rec.Costs = billing.CostDetail{}
	out, err := NewEngine(policy.Default()).Compare(rec, DefaultOffers()[:1], nil)
	require.NoError(t, err)
	assert.True(t, out[0].SavingPct.IsZero())
}

func TestBestSkipsUnsuitableAndLosses(t *testing.T) {
	comparisons := []Comparison{
		{Offer: MarketOffer{ID: "a"}, Saving: n(90), Suitable: false},
		{Offer: MarketOffer{ID: "b"}, Saving: n(80), Suitable: true},
		{Offer: MarketOffer{ID: "c"}, Saving: n(-5), Suitable: true},
	}
	best := Best(comparisons, 3)
	require.Len(t, best, 1)
	assert.Equal(t, "b", best[0].Offer.ID)
	assert.Len(t, Best(comparisons, 0), 1)
}

func TestMarketOfferJSON(t *testing.T) {
	offer := DefaultOffers()[4]
	raw, err := json.Marshal(offer)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"tipo":"Bioraria"`)
	assert.NotContains(t, string(raw), "prezzo_fisso_euro_kwh")

	var back MarketOffer
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, SchemeTwoSlot, back.Scheme())
	pricing, ok := back.Pricing.(TwoSlot)
	require.True(t, ok)
	assert.Equal(t, "0.118", pricing.F23PerKWh.String())

	err = json.Unmarshal([]byte(`{"id":"bad","tipo":"Fissa","quota_fissa_mensile":1}`), &back)
	assert.Error(t, err)
	err = json.Unmarshal([]byte(`{"id":"bad","tipo":"Quadrioraria"}`), &back)
	assert.ErrorIs(t, err, ErrUnknownScheme)
}

func TestFileCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "offers.yaml")
	doc := `offers:
  - id: local-1
    fornitore: Locale
    nome_offerta: Fisso Casa
    tipo: Fissa
    prezzo_fisso_euro_kwh: 0.131
    quota_fissa_mensile: 7.5
    durata_contratto_mesi: 24
    caratteristiche: ["Energia rinnovabile"]
  - id: local-2
    fornitore: Locale
    nome_offerta: Tre Fasce
    tipo: Trioraria
    prezzo_f1_euro_kwh: "0.15"
    prezzo_f2_euro_kwh: 0.13
    prezzo_f3_euro_kwh: 0.11
    quota_fissa_mensile: 9
    durata_contratto_mesi: 12
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	catalog := NewFileCatalog(path, zerolog.Nop())
	offers, err := catalog.Offers(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 2)

	flat, ok := offers[0].Pricing.(FlatRate)
	require.True(t, ok)
	assert.Equal(t, "0.131", flat.PricePerKWh.String())
	assert.Equal(t, "7.5", offers[0].MonthlyFee.String())
	assert.Equal(t, 24, offers[0].DurationMonths)

	three, ok := offers[1].Pricing.(ThreeSlot)
	require.True(t, ok)
	assert.Equal(t, "0.15", three.F1PerKWh.String())
	assert.Equal(t, "9", offers[1].MonthlyFee.String())
}

func TestFileCatalogMissing(t *testing.T) {
	_, err := NewFileCatalog(filepath.Join(t.TempDir(), "none.yaml"), zerolog.Nop()).Offers(context.Background())
	assert.Error(t, err)
}

func TestStaticCatalogCopies(t *testing.T) {
	catalog := NewStaticCatalog(nil)
	first, err := catalog.Offers(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 6)
	first[0].ID = "mutated"

	second, _ := catalog.Offers(context.Background())
	assert.Equal(t, "offer-1", second[0].ID)
}
