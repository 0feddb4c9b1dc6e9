package offers

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"bill-advisor/internal/config"
)

// Catalog lists the offers to compare against.
type Catalog interface {
	Offers(ctx context.Context) ([]MarketOffer, error)
}

// StaticCatalog serves a fixed list.
type StaticCatalog struct {
	offers []MarketOffer
}

// NewStaticCatalog wraps offers; nil means the built-in list.
func NewStaticCatalog(offers []MarketOffer) *StaticCatalog {
	if offers == nil {
		offers = DefaultOffers()
	}
	return &StaticCatalog{offers: offers}
}

// Offers returns a copy of the list.
func (c *StaticCatalog) Offers(_ context.Context) ([]MarketOffer, error) {
	return append([]MarketOffer(nil), c.offers...), nil
}

// FileCatalog reads offers from a YAML or JSON document with an "offers" list.
type FileCatalog struct {
	path   string
	logger zerolog.Logger
}

// NewFileCatalog constructs a file-backed catalog. The file is read on every call.
func NewFileCatalog(path string, logger zerolog.Logger) *FileCatalog {
	return &FileCatalog{path: path, logger: logger.With().Str("component", "offer_catalog").Logger()}
}

// Offers parses the catalog file.
func (c *FileCatalog) Offers(_ context.Context) ([]MarketOffer, error) {
	offers, err := LoadFile(c.path)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Str("path", c.path).Int("offers", len(offers)).Msg("catalog loaded")
	return offers, nil
}

// LoadFile decodes a catalog document.
func LoadFile(path string) ([]MarketOffer, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read offer catalog: %w", err)
	}

	var doc struct {
		Offers []offerWire `mapstructure:"offers"`
	}
	if err := v.Unmarshal(&doc, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = config.DecimalHookFunc()
	}); err != nil {
		return nil, fmt.Errorf("decode offer catalog: %w", err)
	}

	out := make([]MarketOffer, 0, len(doc.Offers))
	for _, w := range doc.Offers {
		o, err := w.toOffer()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

// DefaultOffers is the built-in catalog of Italian residential offers.
func DefaultOffers() []MarketOffer {
	return []MarketOffer{
		{
			ID:             "offer-1",
			Supplier:       "Enel Energia",
			Name:           "Prezzo Fisso 12 Mesi",
			Pricing:        FlatRate{PricePerKWh: d("0.145")},
			MonthlyFee:     d("8.5"),
			DurationMonths: 12,
			Features:       []string{"Prezzo bloccato 12 mesi", "Nessun costo di attivazione", "100% energia green"},
		},
		{
			ID:             "offer-2",
			Supplier:       "A2A Energia",
			Name:           "Click Prezzo Fisso Web",
			Pricing:        FlatRate{PricePerKWh: d("0.138")},
			MonthlyFee:     d("7.0"),
			DurationMonths: 12,
			Features:       []string{"Sconto attivazione web", "App mobile inclusa", "Fattura elettronica"},
		},
		{
			ID:             "offer-3",
			Supplier:       "Edison",
			Name:           "Web Luce Indicizzata",
			Pricing:        IndexLinked{SpreadPerKWh: d("0.025")},
			MonthlyFee:     d("6.5"),
			DurationMonths: 12,
			Features:       []string{"Prezzo PUN + spread fisso", "Nessun vincolo di durata", "Gestione 100% digitale"},
		},
		{
			ID:             "offer-4",
			Supplier:       "Eni Plenitude",
			Name:           "Luce Sempre Conveniente",
			Pricing:        IndexLinked{SpreadPerKWh: d("0.022")},
			MonthlyFee:     d("8.0"),
			DurationMonths: 12,
			Features:       []string{"Spread competitivo", "Energia 100% rinnovabile", "Sconti fedeltà"},
		},
		{
			ID:             "offer-5",
			Supplier:       "Acea Energia",
			Name:           "Dual Bioraria",
			Pricing:        TwoSlot{F1PerKWh: d("0.148"), F23PerKWh: d("0.118")},
			MonthlyFee:     d("9.0"),
			DurationMonths: 24,
			Features:       []string{"Risparmio in fascia F23", "Ideale per chi consuma sera/weekend", "Durata 24 mesi"},
		},
		{
			ID:             "offer-6",
			Supplier:       "Sorgenia",
			Name:           "Next Energy Sunlight",
			Pricing:        ThreeSlot{F1PerKWh: d("0.152"), F2PerKWh: d("0.128"), F3PerKWh: d("0.108")},
			MonthlyFee:     d("8.5"),
			DurationMonths: 12,
			Features:       []string{"Massimo risparmio in F3", "Energia verde certificata", "Ottimo per fotovoltaico"},
		},
	}
}

var (
	_ Catalog = (*StaticCatalog)(nil)
	_ Catalog = (*FileCatalog)(nil)
)
