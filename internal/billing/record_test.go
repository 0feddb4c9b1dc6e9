package billing

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodDaysInclusive(t *testing.T) {
	p := Period{Start: NewDate(2024, time.November, 1), End: NewDate(2024, time.December, 31)}
	assert.Equal(t, 61, p.Days())
	assert.InDelta(t, 5.98, p.YearlyMultiplier().InexactFloat64(), 0.01)

	year := Period{Start: NewDate(2023, time.January, 1), End: NewDate(2023, time.December, 31)}
	assert.Equal(t, 365, year.Days())
	assert.True(t, year.Annualize(decimal.NewFromInt(100)).Equal(decimal.NewFromInt(100)))

	assert.Equal(t, 1, Period{}.Days())
}

func TestPeriodValidate(t *testing.T) {
	start := NewDate(2024, time.March, 1)
	assert.NoError(t, Period{Start: start, End: NewDate(2024, time.March, 2)}.Validate())
	assert.ErrorIs(t, Period{Start: start, End: start}.Validate(), ErrInvalidPeriod)
	assert.ErrorIs(t, Period{Start: start, End: NewDate(2024, time.February, 1)}.Validate(), ErrInvalidPeriod)
}

func TestPeriodContains(t *testing.T) {
	p := Period{Start: NewDate(2024, time.March, 1), End: NewDate(2024, time.March, 31)}
	assert.True(t, p.Contains(NewDate(2024, time.March, 1)))
	assert.True(t, p.Contains(NewDate(2024, time.March, 31)))
	assert.False(t, p.Contains(NewDate(2024, time.April, 1)))
}

func TestDateJSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-11-01"`), &d))
	assert.Equal(t, "2024-11-01", d.String())

	require.NoError(t, json.Unmarshal([]byte(`"2024-11-01T15:04:05Z"`), &d))
	assert.Equal(t, "2024-11-01", d.String())

	assert.Error(t, json.Unmarshal([]byte(`"01/11/2024"`), &d))

	out, err := json.Marshal(NewDate(2025, time.January, 2))
	require.NoError(t, err)
	assert.Equal(t, `"2025-01-02"`, string(out))
}

func TestDecodeRecord(t *testing.T) {
	payload := `{
		"Cliente": {"Tipologia_Cliente": "Domestico_Residente", "Codice_POD": "IT001E1", "Fascia_Oraria_Contatore": "Monoraria"},
		"Fornitura": {"Potenza_Contrattuale_kW": 3, "Tensione_Fornitura": "Bassa", "Mercato": "Libero"},
		"Consumi_Fatturati": {
			"Periodo_Riferimento": {"start": "2024-01-01", "end": "2024-02-29"},
			"Totale_kWh": 300, "Fascia_F1_kWh": 100, "Fascia_F2_kWh": 100, "Fascia_F3_kWh": 100
		},
		"Dettaglio_Costi": {
			"Spesa_Materia_Energia": {"Totale_Euro": 50.5, "Quota_Fissa_Euro": 6},
			"Imposte": {"Totale_Euro": 9, "Accise_Euro": 2.5, "IVA_Percentuale": 10},
			"Canone_RAI": 0
		},
		"Autoproduzione": {"Presenza_Impianto_Fotovoltaico": false}
	}`
	rec, err := Decode(strings.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, CustomerResident, rec.Customer.Class)
	assert.True(t, rec.Customer.Meter.SingleSlot())
	assert.Equal(t, 60, rec.Period().Days())
	assert.Equal(t, "50.5", rec.Costs.Energy.Total.String())
	assert.NoError(t, rec.Validate())
	assert.Empty(t, rec.Warnings())
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(strings.NewReader("{"))
	assert.Error(t, err)
}

func TestRecordValidate(t *testing.T) {
	rec := SampleMedium()
	require.NoError(t, rec.Validate())

	rec.Consumption.TotalKWh = decimal.NewFromInt(-1)
	assert.ErrorIs(t, rec.Validate(), ErrNegativeConsumption)

	rec = SampleMedium()
	rec.Consumption.Period.End = NewDate(2024, time.October, 1)
	assert.ErrorIs(t, rec.Validate(), ErrInvalidPeriod)
}

func TestRecordWarnings(t *testing.T) {
	rec := SampleMedium()
	assert.Empty(t, rec.Warnings())

	rec.Consumption.F3KWh = decimal.NewFromInt(10)
	rec.Customer.POD = " "
	warnings := rec.Warnings()
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "time-slot sum")
	assert.Contains(t, warnings[1], "POD")

	rec = SampleMedium()
	rec.Consumption.TotalKWh = decimal.Zero
	assert.Contains(t, rec.Warnings()[0], "zero consumption")
}

func TestMeterAndClass(t *testing.T) {
	assert.True(t, MeterTwoSlot.MultiSlot())
	assert.True(t, MeterMultiSlot.MultiSlot())
	assert.False(t, MeterSingleSlot.MultiSlot())
	assert.True(t, CustomerNonResident.Domestic())
	assert.False(t, CustomerOther.Domestic())
}

func TestAnnualKWh(t *testing.T) {
	rec := SampleMedium()
	assert.InDelta(t, 280*365.0/61, rec.AnnualKWh().InexactFloat64(), 1e-6)
}
