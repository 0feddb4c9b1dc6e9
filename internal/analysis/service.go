package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"bill-advisor/internal/alerting"
	"bill-advisor/internal/billing"
	"bill-advisor/internal/config"
	"bill-advisor/internal/costs"
	"bill-advisor/internal/offers"
	"bill-advisor/internal/policy"
	"bill-advisor/internal/recommend"
	"bill-advisor/internal/reference"
	"bill-advisor/internal/storage"
)

// Service orchestrates reference fetches, the engines, persistence, and alerting.
type Service struct {
	provider   reference.Provider
	catalog    offers.Catalog
	store      storage.AnalysisStore
	alertStore storage.AlertStore
	notifier   alerting.Notifier
	logger     zerolog.Logger

	policy      policy.Policy
	recommender *recommend.Engine
	comparer    *offers.Engine

	timeout    time.Duration
	persist    bool
	bestOffers int
	threshold  decimal.Decimal
	channels   []string
	alertsOn   bool

	now   func() time.Time
	newID func() uuid.UUID
}

// New constructs the analysis service. Any collaborator may be nil: a nil
// provider falls back to policy constants, a nil catalog leaves the offer
// comparison absent, nil stores disable persistence.
func New(cfg *config.Config, provider reference.Provider, catalog offers.Catalog, store storage.AnalysisStore, alertStore storage.AlertStore, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	threshold := decimal.Zero
	if cfg.Alerting.Enabled && cfg.Alerting.ThresholdEUR > 0 {
		threshold = decimal.NewFromFloat(cfg.Alerting.ThresholdEUR)
	}

	return &Service{
		provider:    provider,
		catalog:     catalog,
		store:       store,
		alertStore:  alertStore,
		notifier:    notifier,
		logger:      logger.With().Str("component", "analysis").Logger(),
		policy:      cfg.Policy,
		recommender: recommend.NewEngine(cfg.Policy),
		comparer:    offers.NewEngine(cfg.Policy),
		timeout:     cfg.Analysis.Timeout,
		persist:     cfg.Analysis.Persist,
		bestOffers:  cfg.Analysis.BestOffers,
		threshold:   threshold,
		channels:    cfg.Alerting.Channels,
		alertsOn:    cfg.Alerting.Enabled,
		now:         time.Now,
		newID:       uuid.New,
	}
}

// Analyze runs the full pipeline for one bill. Only an invalid record or an
// expired deadline is returned as an error; collaborator problems end up in
// Result.Failures.
func (s *Service) Analyze(ctx context.Context, rec billing.Record) (*Result, error) {
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("validate record: %w", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result := &Result{
		ID:        s.newID(),
		CreatedAt: s.now().UTC(),
		Record:    rec,
		Days:      rec.Period().Days(),
		Warnings:  rec.Warnings(),
	}
	log := s.logger.With().Str("analysis_id", result.ID.String()).Str("pod", rec.Customer.POD).Logger()
	for _, w := range result.Warnings {
		log.Warn().Msg(w)
	}

	ref, catalog := s.fetch(ctx, rec, result)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis aborted: %w", err)
	}
	for _, f := range result.Failures {
		log.Warn().Str("collaborator", f.Collaborator).Str("error", f.Message).Msg("collaborator failed; continuing with partial data")
	}
	if ref == nil || len(ref.Prices) == 0 {
		result.FallbackPrices = true
		log.Warn().Msg("no commodity prices for the period; using fallback price")
	}

	if err := s.runEngines(rec, ref, catalog, result); err != nil {
		return nil, err
	}

	s.save(ctx, result, log)
	s.alert(ctx, result, log)

	log.Info().
		Str("invoice_total", result.Costs.InvoiceTotal.StringFixed(2)).
		Int("interventions", len(result.Interventions)).
		Int("failures", len(result.Failures)).
		Str("best_saving", result.BestSaving().StringFixed(2)).
		Msg("analysis completed")
	return result, nil
}

// fetch loads reference data and the offer catalog concurrently. A failed
// fetch is recorded and yields nil; it never cancels the other one.
func (s *Service) fetch(ctx context.Context, rec billing.Record, result *Result) (*reference.Data, []offers.MarketOffer) {
	var (
		ref        *reference.Data
		catalog    []offers.MarketOffer
		refErr     error
		catalogErr error
	)

	var g errgroup.Group
	if s.provider != nil {
		g.Go(func() error {
			period := rec.Period()
			ref, refErr = s.provider.ReferenceData(ctx, period.Start, period.End)
			return nil
		})
	}
	if s.catalog != nil {
		g.Go(func() error {
			catalog, catalogErr = s.catalog.Offers(ctx)
			return nil
		})
	}
	_ = g.Wait()

	if refErr != nil {
		ref = nil
		result.fail(CollaboratorReference, refErr)
	}
	if s.catalog == nil {
		result.fail(CollaboratorCatalog, errors.New("offer catalog not configured"))
	} else if catalogErr != nil {
		result.fail(CollaboratorCatalog, catalogErr)
	}
	if catalogErr != nil || s.catalog == nil {
		return ref, nil
	}
	if catalog == nil {
		catalog = []offers.MarketOffer{}
	}
	return ref, catalog
}

func (s *Service) runEngines(rec billing.Record, ref *reference.Data, catalog []offers.MarketOffer, result *Result) error {
	breakdown, err := costs.Decompose(rec, ref)
	if err != nil {
		return fmt.Errorf("decompose costs: %w", err)
	}
	result.Costs = breakdown
	result.Profile = costs.SlotProfile(rec)
	result.Power = costs.PowerAdequacy(rec, s.policy)
	result.AveragePrice = ref.AveragePrice(s.policy.Market.FallbackCommodityPerKWh)
	result.MarginPerKWh = costs.EstimateSupplierMarginPerKWh(rec, result.AveragePrice, s.policy)

	interventions, err := s.recommender.Generate(rec, ref)
	if err != nil {
		return fmt.Errorf("generate recommendations: %w", err)
	}
	result.Interventions = interventions

	if catalog == nil {
		return nil
	}
	comparisons, err := s.comparer.Compare(rec, catalog, ref)
	if err != nil {
		result.fail(CollaboratorCatalog, fmt.Errorf("compare offers: %w", err))
		return nil
	}
	result.Offers = comparisons
	result.BestOffers = offers.Best(comparisons, s.bestOffers)
	return nil
}

func (s *Service) save(ctx context.Context, result *Result, log zerolog.Logger) {
	if !s.persist || s.store == nil {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		result.fail(CollaboratorStorage, fmt.Errorf("marshal result: %w", err))
		return
	}

	period := result.Record.Period()
	record := storage.AnalysisRecord{
		ID:           result.ID,
		POD:          result.Record.Customer.POD,
		PeriodStart:  period.Start.Time,
		PeriodEnd:    period.End.Time,
		InvoiceTotal: result.Costs.InvoiceTotal,
		BestSaving:   result.BestSaving(),
		Payload:      payload,
		CreatedAt:    result.CreatedAt,
	}
	if err := s.store.SaveAnalysis(ctx, record); err != nil {
		log.Error().Err(err).Msg("failed to persist analysis")
		result.fail(CollaboratorStorage, err)
	}
}

func (s *Service) alert(ctx context.Context, result *Result, log zerolog.Logger) {
	if !s.alertsOn || s.notifier == nil || s.threshold.IsZero() {
		return
	}
	saving := result.BestSaving()
	if !saving.GreaterThan(s.threshold) {
		return
	}

	period := result.Record.Period()
	note := alerting.Notification{
		AnalysisID:   result.ID.String(),
		POD:          result.Record.Customer.POD,
		PeriodStart:  period.Start.Time,
		PeriodEnd:    period.End.Time,
		InvoiceTotal: result.Costs.InvoiceTotal,
		Saving:       saving,
		ThresholdEUR: s.threshold,
		Channels:     s.channels,
	}
	if len(result.BestOffers) > 0 {
		note.Supplier = result.BestOffers[0].Offer.Supplier
		note.OfferName = result.BestOffers[0].Offer.Name
	}
	if len(result.Interventions) > 0 {
		note.TopAction = result.Interventions[0].Title
		note.TopActionSaving = result.Interventions[0].AnnualSaving
	}

	if s.alertStore != nil && s.persist && s.store != nil && !result.Failed(CollaboratorStorage) {
		record := storage.AlertRecord{
			AnalysisID:   result.ID,
			POD:          note.POD,
			SavingEUR:    saving,
			ThresholdEUR: s.threshold,
			Channels:     s.channels,
		}
		if _, err := s.alertStore.InsertAlert(ctx, record); err != nil {
			log.Error().Err(err).Msg("failed to persist alert record")
		}
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		log.Error().Err(err).Msg("failed to dispatch alert")
		result.fail(CollaboratorAlerts, err)
		return
	}
	result.Alerted = true
}

// Get loads a stored analysis.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Result, error) {
	if s.store == nil {
		return nil, storage.ErrNotConfigured
	}
	record, err := s.store.GetAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	var result Result
	if err := json.Unmarshal(record.Payload, &result); err != nil {
		return nil, fmt.Errorf("decode stored analysis %s: %w", id, err)
	}
	return &result, nil
}

// List returns the most recent analyses, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]storage.AnalysisRecord, error) {
	if s.store == nil {
		return nil, storage.ErrNotConfigured
	}
	return s.store.ListRecentAnalyses(ctx, limit)
}

// Delete removes one stored analysis.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if s.store == nil {
		return storage.ErrNotConfigured
	}
	return s.store.DeleteAnalysis(ctx, id)
}

// Clear removes every stored analysis and reports how many were dropped.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	if s.store == nil {
		return 0, storage.ErrNotConfigured
	}
	return s.store.ClearAnalyses(ctx)
}

// Alerts returns the most recent savings alerts.
func (s *Service) Alerts(ctx context.Context, limit int) ([]storage.AlertRecord, error) {
	if s.alertStore == nil {
		return nil, storage.ErrNotConfigured
	}
	return s.alertStore.ListRecentAlerts(ctx, limit)
}
