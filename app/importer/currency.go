package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultUSDRate is the last resort USD to local currency rate.
var DefaultUSDRate = decimal.NewFromFloat(18.0)

// RateProvider yields the USD to local currency rate for an import run.
// It never fails; lookups degrade to fallbacks.
type RateProvider interface {
	Rate(ctx context.Context) decimal.Decimal
}

// RateConfig configures ExchangeRates.
type RateConfig struct {
	URL      string
	APIKey   string
	Currency string
	Timeout  time.Duration
	// Override is used when the live lookup fails.
	Override *decimal.Decimal
}

// ExchangeRates fetches the live rate from an exchangerate.host style
// endpoint and falls back to the configured override, then DefaultUSDRate.
type ExchangeRates struct {
	cfg    RateConfig
	client *http.Client
	logger *slog.Logger
}

func NewExchangeRates(cfg RateConfig, logger *slog.Logger) *ExchangeRates {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "ZAR"
	}
	return &ExchangeRates{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (e *ExchangeRates) Rate(ctx context.Context) decimal.Decimal {
	rate, err := e.fetch(ctx)
	if err == nil {
		return rate
	}
	if e.cfg.Override != nil {
		e.logger.Warn("live exchange rate unavailable, using configured override",
			"currency", e.cfg.Currency, "rate", e.cfg.Override.String(), "error", err)
		return *e.cfg.Override
	}
	e.logger.Warn("live exchange rate unavailable, using default",
		"currency", e.cfg.Currency, "rate", DefaultUSDRate.String(), "error", err)
	return DefaultUSDRate
}

type ratesResponse struct {
	Rates map[string]json.Number `json:"rates"`
}

func (e *ExchangeRates) fetch(ctx context.Context) (decimal.Decimal, error) {
	if e.cfg.URL == "" {
		return decimal.Zero, fmt.Errorf("no rate endpoint configured")
	}
	u, err := url.Parse(e.cfg.URL)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse rate endpoint: %w", err)
	}
	q := u.Query()
	q.Set("base", "USD")
	q.Set("symbols", e.cfg.Currency)
	if e.cfg.APIKey != "" {
		q.Set("access_key", e.cfg.APIKey)
	}
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("decode rates: %w", err)
	}
	raw, ok := body.Rates[e.cfg.Currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("rate for %s missing", e.cfg.Currency)
	}
	rate, err := decimal.NewFromString(raw.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse rate %q: %w", raw, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive rate %s", rate)
	}
	return rate, nil
}

// FixedRate always returns the same rate.
type FixedRate decimal.Decimal

func (f FixedRate) Rate(context.Context) decimal.Decimal {
	return decimal.Decimal(f)
}
