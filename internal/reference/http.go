package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bill-advisor/internal/billing"
)

const pricesPath = "/prices"

// HTTPOptions parameterise the remote price source.
type HTTPOptions struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	APIKey    string
}

// HTTPSource fetches daily PUN prices from a JSON endpoint quoting EUR/MWh.
type HTTPSource struct {
	opts    HTTPOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewHTTPSource constructs an HTTP price source.
func NewHTTPSource(opts HTTPOptions, logger zerolog.Logger) *HTTPSource {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{
		opts:    opts,
		logger:  logger.With().Str("component", "price_http").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
	}
}

// CommodityPrices issues GET {base}/prices?from=..&to=.. and converts the
// quotes to EUR/kWh.
func (h *HTTPSource) CommodityPrices(ctx context.Context, from, to billing.Date) ([]PricePoint, error) {
	if h.baseURL == "" {
		return nil, fmt.Errorf("price endpoint base url not configured")
	}
	query := url.Values{}
	query.Set("from", from.String())
	query.Set("to", to.String())
	endpoint := h.baseURL + pricesPath + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(h.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "billadvisor/1.0")
	}
	if h.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.opts.APIKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(resp.StatusCode, payload)
	}

	var body pricesResponse
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("decode prices: %w", err)
	}

	points := make([]PricePoint, 0, len(body.Prices))
	for _, row := range body.Prices {
		day, err := billing.ParseDate(row.Date)
		if err != nil {
			return nil, err
		}
		points = append(points, PointFromMWh(day, row.EURPerMWh))
	}
	points = FilterRange(points, from, to)
	h.logger.Debug().Int("points", len(points)).Stringer("from", from).Stringer("to", to).Msg("prices fetched")
	return points, nil
}

type pricesResponse struct {
	Prices []struct {
		Date      string          `json:"date"`
		EURPerMWh decimal.Decimal `json:"eur_per_mwh"`
	} `json:"prices"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if apiErr.Message != "" {
			return fmt.Errorf("price api error (%d): %s", status, apiErr.Message)
		}
		if apiErr.Error != "" {
			return fmt.Errorf("price api error (%d): %s", status, apiErr.Error)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("price api error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("price api error (%d)", status)
}

var _ PriceSource = (*HTTPSource)(nil)
