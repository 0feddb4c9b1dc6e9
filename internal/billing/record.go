package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidPeriod indicates a billing period whose end is not after its start.
	ErrInvalidPeriod = errors.New("billing: invalid period")
	// ErrNegativeConsumption indicates a negative metered total.
	ErrNegativeConsumption = errors.New("billing: negative consumption")
)

// CustomerClass is the tariff class of the supply holder.
type CustomerClass string

const (
	CustomerResident    CustomerClass = "Domestico_Residente"
	CustomerNonResident CustomerClass = "Domestico_Non_Residente"
	CustomerOther       CustomerClass = "Altro"
)

// Domestic reports whether the class is a household tariff.
func (c CustomerClass) Domestic() bool {
	return strings.HasPrefix(string(c), "Domestico")
}

// MeterSlots describes how many time-of-use bands the meter bills.
type MeterSlots string

const (
	MeterSingleSlot MeterSlots = "Monoraria"
	MeterTwoSlot    MeterSlots = "Bioraria"
	MeterMultiSlot  MeterSlots = "Multioraria"
)

// SingleSlot reports a flat, single-band meter.
func (m MeterSlots) SingleSlot() bool { return m == MeterSingleSlot }

// MultiSlot reports a meter able to bill separate F1/F2/F3 bands.
func (m MeterSlots) MultiSlot() bool { return m == MeterTwoSlot || m == MeterMultiSlot }

// Voltage is the supply voltage class.
type Voltage string

const (
	VoltageLow    Voltage = "Bassa"
	VoltageMedium Voltage = "Media"
)

// Market is the retail market regime of the supply.
type Market string

const (
	MarketProtected Market = "Maggior_Tutela"
	MarketGradual   Market = "Servizio_a_Tutele_Graduali"
	MarketFree      Market = "Libero"
)

// Customer holds the supply holder attributes.
type Customer struct {
	Class CustomerClass `json:"Tipologia_Cliente"`
	POD   string        `json:"Codice_POD"`
	Meter MeterSlots    `json:"Fascia_Oraria_Contatore"`
}

// Supply holds the contract attributes of the point of delivery.
type Supply struct {
	PowerKW decimal.Decimal `json:"Potenza_Contrattuale_kW"`
	Voltage Voltage         `json:"Tensione_Fornitura"`
	Market  Market          `json:"Mercato"`
}

// Consumption is the metered energy of the billing period.
type Consumption struct {
	Period   Period            `json:"Periodo_Riferimento"`
	TotalKWh decimal.Decimal   `json:"Totale_kWh"`
	F1KWh    decimal.Decimal   `json:"Fascia_F1_kWh"`
	F2KWh    decimal.Decimal   `json:"Fascia_F2_kWh"`
	F3KWh    decimal.Decimal   `json:"Fascia_F3_kWh"`
	History  []decimal.Decimal `json:"Profilo_Consumo_Storico_kWh,omitempty"`
}

// SlotSum adds the three time-slot buckets.
func (c Consumption) SlotSum() decimal.Decimal {
	return c.F1KWh.Add(c.F2KWh).Add(c.F3KWh)
}

// EnergyCost is the commodity ("materia energia") group.
type EnergyCost struct {
	Total          decimal.Decimal `json:"Totale_Euro"`
	Fixed          decimal.Decimal `json:"Quota_Fissa_Euro"`
	VariablePerKWh decimal.Decimal `json:"Quota_Variabile_Euro_kWh"`
	CommodityPrice decimal.Decimal `json:"Prezzo_Componente_Energia_PUN_o_Fissa"`
	SpreadPerKWh   decimal.Decimal `json:"Spread_Commerciale_Euro_kWh"`
}

// NetworkCost is the transport and metering group. Unit rates are annual.
type NetworkCost struct {
	Total          decimal.Decimal `json:"Totale_Euro"`
	FixedPerYear   decimal.Decimal `json:"Quota_Fissa_Euro_Anno"`
	PowerPerKWYear decimal.Decimal `json:"Quota_Potenza_Euro_kW_Anno"`
	EnergyPerKWh   decimal.Decimal `json:"Quota_Energia_Euro_kWh"`
}

// SystemCharges is the general system charges group (ASOS + ARIM).
type SystemCharges struct {
	Total        decimal.Decimal `json:"Totale_Euro"`
	ASOSPerKWh   decimal.Decimal `json:"ASOS_Quota_Variabile_Euro_kWh"`
	ARIMPerKWh   decimal.Decimal `json:"ARIM_Quota_Variabile_Euro_kWh"`
	FixedPerYear decimal.Decimal `json:"Quota_Fissa_Euro_Anno"`
}

// Taxes groups excise and VAT.
type Taxes struct {
	Total      decimal.Decimal `json:"Totale_Euro"`
	Excise     decimal.Decimal `json:"Accise_Euro"`
	VATPercent decimal.Decimal `json:"IVA_Percentuale"`
}

// CostDetail is the itemised cost section of the bill.
type CostDetail struct {
	Energy     EnergyCost      `json:"Spesa_Materia_Energia"`
	Network    NetworkCost     `json:"Spesa_Trasporto_Gestione_Contatore"`
	System     SystemCharges   `json:"Spesa_Oneri_Sistema"`
	Taxes      Taxes           `json:"Imposte"`
	LicenseFee decimal.Decimal `json:"Canone_RAI"`
}

// SelfProduction describes on-site generation.
type SelfProduction struct {
	HasPV       bool            `json:"Presenza_Impianto_Fotovoltaico"`
	FedInKWh    decimal.Decimal `json:"Energia_Immessa_in_Rete_kWh"`
	NetMetering bool            `json:"Servizi_Scambio_Sul_Posto"`
}

// Record is one electricity bill. Treated as immutable once decoded.
type Record struct {
	Customer       Customer       `json:"Cliente"`
	Supply         Supply         `json:"Fornitura"`
	Consumption    Consumption    `json:"Consumi_Fatturati"`
	Costs          CostDetail     `json:"Dettaglio_Costi"`
	SelfProduction SelfProduction `json:"Autoproduzione"`
}

// Decode reads a JSON billing record.
func Decode(r io.Reader) (Record, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decode billing record: %w", err)
	}
	return rec, nil
}

// Period returns the billing period.
func (r Record) Period() Period {
	return r.Consumption.Period
}

// Validate checks the preconditions every engine relies on.
func (r Record) Validate() error {
	if err := r.Consumption.Period.Validate(); err != nil {
		return err
	}
	if r.Consumption.TotalKWh.IsNegative() {
		return fmt.Errorf("%w: %s kWh", ErrNegativeConsumption, r.Consumption.TotalKWh)
	}
	return nil
}

// AnnualKWh projects the billed consumption onto 365 days.
func (r Record) AnnualKWh() decimal.Decimal {
	return r.Consumption.Period.Annualize(r.Consumption.TotalKWh)
}

// Warnings lists advisory data-quality issues. None of them are fatal.
func (r Record) Warnings() []string {
	var warnings []string
	if r.Consumption.TotalKWh.IsZero() {
		warnings = append(warnings, "zero consumption: per-kWh figures degrade to zero or nominal rates")
	}
	sum := r.Consumption.SlotSum()
	if !sum.IsZero() && !sum.Equal(r.Consumption.TotalKWh) {
		warnings = append(warnings, fmt.Sprintf("time-slot sum %s kWh differs from total %s kWh", sum, r.Consumption.TotalKWh))
	}
	if strings.TrimSpace(r.Customer.POD) == "" {
		warnings = append(warnings, "missing POD code")
	}
	if r.Supply.PowerKW.IsZero() {
		warnings = append(warnings, "missing contracted power")
	}
	return warnings
}
