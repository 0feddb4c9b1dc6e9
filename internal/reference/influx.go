package reference

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bill-advisor/internal/billing"
)

const (
	defaultMeasurement = "pun_price"
	priceField         = "eur_per_mwh"
)

// InfluxOptions configure the InfluxDB v2 price series.
type InfluxOptions struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
	Timeout     time.Duration
}

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Influx reads and writes PUN prices as an InfluxDB time series.
type Influx struct {
	client influxdb2.Client
	query  api.QueryAPI
	writer pointWriter
	opts   InfluxOptions
	logger zerolog.Logger
}

// NewInflux connects to InfluxDB and verifies the server is reachable.
func NewInflux(ctx context.Context, opts InfluxOptions, logger zerolog.Logger) (*Influx, error) {
	if opts.URL == "" || opts.Bucket == "" {
		return nil, fmt.Errorf("influxdb url and bucket are required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := influxdb2.NewClientWithOptions(opts.URL, opts.Token,
		influxdb2.DefaultOptions().SetHTTPRequestTimeout(uint(timeout.Seconds())))
	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to influxdb: %w", err)
	}
	in := newInflux(opts, client.QueryAPI(opts.Org), client.WriteAPIBlocking(opts.Org, opts.Bucket), logger)
	in.client = client
	return in, nil
}

func newInflux(opts InfluxOptions, query api.QueryAPI, writer pointWriter, logger zerolog.Logger) *Influx {
	if opts.Measurement == "" {
		opts.Measurement = defaultMeasurement
	}
	return &Influx{
		query:  query,
		writer: writer,
		opts:   opts,
		logger: logger.With().Str("component", "price_influx").Logger(),
	}
}

// CommodityPrices runs a Flux range query over the price measurement.
func (in *Influx) CommodityPrices(ctx context.Context, from, to billing.Date) ([]PricePoint, error) {
	result, err := in.query.Query(ctx, in.fluxQuery(from, to))
	if err != nil {
		return nil, fmt.Errorf("query influx prices: %w", err)
	}
	defer result.Close()

	points := []PricePoint{}
	for result.Next() {
		rec := result.Record()
		value, ok := rec.Value().(float64)
		if !ok {
			in.logger.Warn().Interface("value", rec.Value()).Msg("skip non-numeric price")
			continue
		}
		points = append(points, PointFromMWh(billing.DateOf(rec.Time()), decimal.NewFromFloat(value)))
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read influx prices: %w", err)
	}
	return FilterRange(points, from, to), nil
}

// WritePrices stores the points, one per day, quoted in EUR/MWh.
func (in *Influx) WritePrices(ctx context.Context, points []PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	batch := make([]*write.Point, 0, len(points))
	for _, p := range points {
		mwh, _ := p.EURPerMWh().Float64()
		batch = append(batch, write.NewPoint(
			in.opts.Measurement,
			map[string]string{"market": "PUN"},
			map[string]interface{}{priceField: mwh},
			p.Date.Time,
		))
	}
	if err := in.writer.WritePoint(ctx, batch...); err != nil {
		return fmt.Errorf("write influx prices: %w", err)
	}
	in.logger.Debug().Int("points", len(batch)).Msg("prices written")
	return nil
}

// Close releases the underlying client.
func (in *Influx) Close() {
	if in.client != nil {
		in.client.Close()
	}
}

func (in *Influx) fluxQuery(from, to billing.Date) string {
	stop := to.AddDate(0, 0, 1)
	return fmt.Sprintf(`from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == %q and r._field == %q)
  |> sort(columns: ["_time"])`,
		in.opts.Bucket,
		from.Format(time.RFC3339),
		stop.Format(time.RFC3339),
		in.opts.Measurement,
		priceField,
	)
}

var _ PriceSource = (*Influx)(nil)
