package reference

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"bill-advisor/internal/billing"
)

// ServiceOptions override the regulated constants. Zero values keep the
// built-in snapshot.
type ServiceOptions struct {
	Network *NetworkTariffs
	System  *SystemCharges
}

// Service combines regulated tariffs with a pluggable price source.
type Service struct {
	network NetworkTariffs
	system  SystemCharges
	prices  PriceSource
	logger  zerolog.Logger
}

// NewService constructs the reference-data provider. A nil price source
// serves the built-in PUN series.
func NewService(opts ServiceOptions, prices PriceSource, logger zerolog.Logger) *Service {
	network := SnapshotNetwork()
	if opts.Network != nil {
		network = *opts.Network
	}
	system := SnapshotSystem()
	if opts.System != nil {
		system = *opts.System
	}
	if prices == nil {
		prices = NewStatic(nil)
	}
	return &Service{
		network: network,
		system:  system,
		prices:  prices,
		logger:  logger.With().Str("component", "reference").Logger(),
	}
}

// NetworkTariffs returns the transport tariffs. Outside the validity window
// the latest known values are still returned.
func (s *Service) NetworkTariffs(_ context.Context, on billing.Date) (NetworkTariffs, error) {
	if !on.IsZero() && !s.network.Validity.Contains(on) {
		s.logger.Debug().Stringer("date", on).Msg("network tariffs requested outside validity window")
	}
	return s.network, nil
}

// SystemCharges returns the ASOS/ARIM unit rates.
func (s *Service) SystemCharges(_ context.Context, on billing.Date) (SystemCharges, error) {
	if !on.IsZero() && !s.system.Validity.Contains(on) {
		s.logger.Debug().Stringer("date", on).Msg("system charges requested outside validity window")
	}
	return s.system, nil
}

// CommodityPrices delegates to the configured price source.
func (s *Service) CommodityPrices(ctx context.Context, from, to billing.Date) ([]PricePoint, error) {
	if to.Before(from.Time) {
		return []PricePoint{}, nil
	}
	points, err := s.prices.CommodityPrices(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch commodity prices: %w", err)
	}
	if points == nil {
		points = []PricePoint{}
	}
	return points, nil
}

// ReferenceData runs the three sub-fetches concurrently.
func (s *Service) ReferenceData(ctx context.Context, from, to billing.Date) (*Data, error) {
	var data Data
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		network, err := s.NetworkTariffs(gctx, to)
		data.Network = network
		return err
	})
	g.Go(func() error {
		system, err := s.SystemCharges(gctx, to)
		data.System = system
		return err
	})
	g.Go(func() error {
		prices, err := s.CommodityPrices(gctx, from, to)
		data.Prices = prices
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s.logger.Debug().Stringer("from", from).Stringer("to", to).Int("prices", len(data.Prices)).Msg("reference data assembled")
	return &data, nil
}

var _ Provider = (*Service)(nil)
