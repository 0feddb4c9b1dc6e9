// Package offers models market offers and ranks them against a bill.
package offers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnknownScheme is returned for an offer whose pricing scheme is not supported.
var ErrUnknownScheme = errors.New("offers: unknown pricing scheme")

// MarketOffer is one catalog entry.
type MarketOffer struct {
	ID             string
	Supplier       string
	Name           string
	Pricing        Pricing
	MonthlyFee     decimal.Decimal
	DurationMonths int
	Features       []string
}

// Scheme returns the pricing scheme, or "" when pricing is unset.
func (o MarketOffer) Scheme() Scheme {
	if o.Pricing == nil {
		return ""
	}
	return o.Pricing.Scheme()
}

// offerWire is the flat document form shared by JSON and the YAML catalog.
type offerWire struct {
	ID             string           `json:"id" mapstructure:"id"`
	Supplier       string           `json:"fornitore" mapstructure:"fornitore"`
	Name           string           `json:"nome_offerta" mapstructure:"nome_offerta"`
	Scheme         Scheme           `json:"tipo" mapstructure:"tipo"`
	FlatPerKWh     *decimal.Decimal `json:"prezzo_fisso_euro_kwh,omitempty" mapstructure:"prezzo_fisso_euro_kwh"`
	SpreadPerKWh   *decimal.Decimal `json:"spread_su_pun_euro_kwh,omitempty" mapstructure:"spread_su_pun_euro_kwh"`
	F1PerKWh       *decimal.Decimal `json:"prezzo_f1_euro_kwh,omitempty" mapstructure:"prezzo_f1_euro_kwh"`
	F2PerKWh       *decimal.Decimal `json:"prezzo_f2_euro_kwh,omitempty" mapstructure:"prezzo_f2_euro_kwh"`
	F3PerKWh       *decimal.Decimal `json:"prezzo_f3_euro_kwh,omitempty" mapstructure:"prezzo_f3_euro_kwh"`
	F23PerKWh      *decimal.Decimal `json:"prezzo_f23_euro_kwh,omitempty" mapstructure:"prezzo_f23_euro_kwh"`
	MonthlyFee     decimal.Decimal  `json:"quota_fissa_mensile" mapstructure:"quota_fissa_mensile"`
	DurationMonths int              `json:"durata_contratto_mesi" mapstructure:"durata_contratto_mesi"`
	Features       []string         `json:"caratteristiche" mapstructure:"caratteristiche"`
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func value(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

func (o MarketOffer) toWire() offerWire {
	w := offerWire{
		ID:             o.ID,
		Supplier:       o.Supplier,
		Name:           o.Name,
		Scheme:         o.Scheme(),
		MonthlyFee:     o.MonthlyFee,
		DurationMonths: o.DurationMonths,
		Features:       o.Features,
	}
	if w.Features == nil {
		w.Features = []string{}
	}
	switch p := o.Pricing.(type) {
	case FlatRate:
		w.FlatPerKWh = ptr(p.PricePerKWh)
	case IndexLinked:
		w.SpreadPerKWh = ptr(p.SpreadPerKWh)
	case TwoSlot:
		w.F1PerKWh = ptr(p.F1PerKWh)
		w.F2PerKWh = ptr(p.F23PerKWh)
		w.F3PerKWh = ptr(p.F23PerKWh)
	case ThreeSlot:
		w.F1PerKWh = ptr(p.F1PerKWh)
		w.F2PerKWh = ptr(p.F2PerKWh)
		w.F3PerKWh = ptr(p.F3PerKWh)
	}
	return w
}

func (w offerWire) toOffer() (MarketOffer, error) {
	o := MarketOffer{
		ID:             w.ID,
		Supplier:       w.Supplier,
		Name:           w.Name,
		MonthlyFee:     w.MonthlyFee,
		DurationMonths: w.DurationMonths,
		Features:       w.Features,
	}
	switch w.Scheme {
	case SchemeFlat:
		if w.FlatPerKWh == nil {
			return MarketOffer{}, fmt.Errorf("offer %s: flat-rate offer needs prezzo_fisso_euro_kwh", w.ID)
		}
		o.Pricing = FlatRate{PricePerKWh: *w.FlatPerKWh}
	case SchemeIndexLinked:
		o.Pricing = IndexLinked{SpreadPerKWh: value(w.SpreadPerKWh)}
	case SchemeTwoSlot:
		f23 := w.F23PerKWh
		if f23 == nil {
			f23 = w.F2PerKWh
		}
		if w.F1PerKWh == nil || f23 == nil {
			return MarketOffer{}, fmt.Errorf("offer %s: two-slot offer needs F1 and F23 prices", w.ID)
		}
		o.Pricing = TwoSlot{F1PerKWh: *w.F1PerKWh, F23PerKWh: *f23}
	case SchemeThreeSlot:
		if w.F1PerKWh == nil || w.F2PerKWh == nil || w.F3PerKWh == nil {
			return MarketOffer{}, fmt.Errorf("offer %s: three-slot offer needs F1, F2 and F3 prices", w.ID)
		}
		o.Pricing = ThreeSlot{F1PerKWh: *w.F1PerKWh, F2PerKWh: *w.F2PerKWh, F3PerKWh: *w.F3PerKWh}
	default:
		return MarketOffer{}, fmt.Errorf("%w %q (offer %s)", ErrUnknownScheme, w.Scheme, w.ID)
	}
	return o, nil
}

// MarshalJSON writes the flat catalog document.
func (o MarketOffer) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.toWire())
}

// UnmarshalJSON reads the flat catalog document and rejects price fields
// missing for the declared scheme.
func (o *MarketOffer) UnmarshalJSON(data []byte) error {
	var w offerWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, err := w.toOffer()
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
