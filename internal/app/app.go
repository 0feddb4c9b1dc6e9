package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"bill-advisor/internal/alerting"
	"bill-advisor/internal/analysis"
	"bill-advisor/internal/billing"
	"bill-advisor/internal/config"
	"bill-advisor/internal/ingest"
	"bill-advisor/internal/offers"
	"bill-advisor/internal/reference"
	"bill-advisor/internal/scheduler"
	"bill-advisor/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Alerting.Enabled {
		return nil
	}
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return alerting.NewLogNotifier(a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newHTTPSource() *reference.HTTPSource {
	cfg := a.Config.Reference
	return reference.NewHTTPSource(reference.HTTPOptions{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.RequestTimeout,
		UserAgent: cfg.UserAgent,
		APIKey:    cfg.APIKey,
	}, a.Logger)
}

func (a *App) openInflux(ctx context.Context) (*reference.Influx, error) {
	cfg := a.Config.InfluxDB
	return reference.NewInflux(ctx, reference.InfluxOptions{
		URL:         cfg.URL,
		Token:       cfg.Token,
		Org:         cfg.Org,
		Bucket:      cfg.Bucket,
		Measurement: cfg.Measurement,
		Timeout:     cfg.Timeout,
	}, a.Logger)
}

// openPriceSource resolves reference.price_source. The static source is
// returned as nil, which the reference service treats as the built-in series.
func (a *App) openPriceSource(ctx context.Context, store *storage.Store) (reference.PriceSource, func(), error) {
	switch a.Config.Reference.PriceSource {
	case config.PriceSourceStatic:
		return nil, nil, nil
	case config.PriceSourceHTTP:
		return a.newHTTPSource(), nil, nil
	case config.PriceSourceInflux:
		influx, err := a.openInflux(ctx)
		if err != nil {
			return nil, nil, err
		}
		return influx, influx.Close, nil
	case config.PriceSourcePostgres:
		if store == nil {
			return nil, nil, errors.New("database.dsn not configured; cannot read prices from postgres")
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported price source %q", a.Config.Reference.PriceSource)
	}
}

func (a *App) newCatalog() offers.Catalog {
	if a.Config.Catalog.File != "" {
		return offers.NewFileCatalog(a.Config.Catalog.File, a.Logger)
	}
	return offers.NewStaticCatalog(nil)
}

// components bundles what an analysis run needs.
type components struct {
	store   *storage.Store
	prices  reference.PriceSource
	service *analysis.Service
	closers []func()
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// build wires store, price source, catalog and notifier into an analysis
// service. wrap, when set, decorates the price source before use.
func (a *App) build(ctx context.Context, cfg *config.Config, wrap func(reference.PriceSource) reference.PriceSource) (*components, error) {
	comps := &components{}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		comps.closers = append(comps.closers, closeStore)
	}
	comps.store = store

	prices, closePrices, err := a.openPriceSource(ctx, store)
	if err != nil {
		comps.Close()
		return nil, err
	}
	if closePrices != nil {
		comps.closers = append(comps.closers, closePrices)
	}
	if wrap != nil && prices != nil {
		prices = wrap(prices)
	}
	comps.prices = prices

	var analyses storage.AnalysisStore
	var alerts storage.AlertStore
	if store != nil {
		analyses = store
		alerts = store
	} else if cfg.Analysis.Persist {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}

	provider := reference.NewService(reference.ServiceOptions{}, prices, a.Logger)
	comps.service = analysis.New(cfg, provider, a.newCatalog(), analyses, alerts, a.newNotifier(), a.Logger)
	return comps, nil
}

// Run consumes billing records from Kafka, publishes the analyses, and keeps
// the commodity price cache fresh.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cache *reference.CachedPrices
	comps, err := a.build(ctx, a.Config, func(src reference.PriceSource) reference.PriceSource {
		cache = reference.NewCachedPrices(src, a.Config.Reference.CacheLookback, a.Logger)
		return cache
	})
	if err != nil {
		return err
	}
	defer comps.Close()

	publisher, err := ingest.NewPublisher(ingest.PublisherOptions{
		Brokers:  a.Config.Kafka.Brokers,
		Topic:    a.Config.Kafka.OutputTopic,
		ClientID: a.Config.Kafka.ClientID,
	}, a.Logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	svc := comps.service
	consumer, err := ingest.NewConsumer(ingest.ConsumerOptions{
		Brokers:       a.Config.Kafka.Brokers,
		Topic:         a.Config.Kafka.InputTopic,
		GroupID:       a.Config.Kafka.GroupID,
		ClientID:      a.Config.Kafka.ClientID,
		InitialOldest: a.Config.Kafka.InitialOldest,
	}, func(ctx context.Context, rec billing.Record) error {
		result, err := svc.Analyze(ctx, rec)
		if err != nil {
			return err
		}
		return publisher.Publish(ctx, rec.Customer.POD, result)
	}, a.Logger)
	if err != nil {
		return err
	}
	defer consumer.Close()

	g, gctx := errgroup.WithContext(ctx)
	if cache != nil {
		sched, err := scheduler.New(scheduler.Options{
			Name:         "price_refresh",
			Interval:     a.Config.Scheduler.Interval,
			AlignToStart: a.Config.Scheduler.AlignToBucket,
			StartupDelay: a.Config.Scheduler.StartupDelay,
			RunOnStart:   true,
		}, a.Logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return sched.Run(gctx, cache.Refresh)
		})
	}
	g.Go(func() error {
		return consumer.Consume(gctx)
	})

	a.Logger.Info().Str("topic", a.Config.Kafka.InputTopic).Msg("starting bill analysis service")
	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("bill analysis service stopped")
	return nil
}

// AnalyzeOptions describe a one-shot analysis.
type AnalyzeOptions struct {
	File    string
	Sample  string
	OutPath string
	PNGPath string
	CSVPath string
	Save    bool
}

// ExportOptions hold parameters for exporting a stored analysis.
type ExportOptions struct {
	ID            string
	PNGPath       string
	OffersPNGPath string
	CSVPath       string
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit  int
	Alerts bool
}

// ForgetOptions select analyses to delete.
type ForgetOptions struct {
	ID  string
	All bool
}

// BackfillOptions configure the price backfill job.
type BackfillOptions struct {
	From   billing.Date
	To     billing.Date
	Target string
	DryRun bool
}
