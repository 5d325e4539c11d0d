package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang-watchlist/config"
	"golang-watchlist/internal/dto"
	"golang-watchlist/pkg/cache"
	"golang-watchlist/pkg/httpclient"
	"golang-watchlist/pkg/logger"

	"golang.org/x/time/rate"
)

// ErrQuoteUnavailable is the single degraded outcome of an enrichment fetch.
// Timeouts, transport errors, non-200 responses, unknown symbols and
// malformed rows all collapse into it; callers fall back to the previously
// known price and must not distinguish causes.
var ErrQuoteUnavailable = errors.New("stock quote unavailable")

// Positional columns requested from the screener. Price and SMA200 are read
// back from row fields 2 and 3.
var scanColumns = []string{"name", "description", "close", "SMA200"}

const (
	scanFieldPrice = 2
	scanFieldMA200 = 3
)

type TradingViewScannerRepository interface {
	FetchQuote(ctx context.Context, symbol string) (*dto.StockQuote, error)
}

type tradingViewScannerRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     httpclient.HTTPClient
	quoteCache     cache.Cache
	requestLimiter *rate.Limiter
}

func NewTradingViewScannerRepository(cfg *config.Config, quoteCache cache.Cache, log *logger.Logger) TradingViewScannerRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.TradingView.MaxRequestPerMin)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &tradingViewScannerRepository{
		cfg:            cfg,
		log:            log,
		httpClient:     httpclient.New(cfg.TradingView.BaseURLScanner, cfg.TradingView.BaseTimeout),
		quoteCache:     quoteCache,
		requestLimiter: requestLimiter,
	}
}

// FetchQuote posts a screener scan for one symbol and reads the current
// price and 200-period simple moving average from the matching row. Recently
// fetched quotes are served from cache to spare the scanner rate budget.
func (t *tradingViewScannerRepository) FetchQuote(ctx context.Context, symbol string) (*dto.StockQuote, error) {
	symbol = strings.ToUpper(symbol)
	cacheKey := "quote:" + symbol

	if quote, ok := cache.GetTyped[dto.StockQuote](t.quoteCache, cacheKey); ok {
		return &quote, nil
	}

	if err := t.requestLimiter.Wait(ctx); err != nil {
		t.log.WarnContext(ctx, "Quote fetch aborted while waiting for rate limiter",
			logger.StringField("symbol", symbol),
			logger.ErrorField(err),
		)
		return nil, ErrQuoteUnavailable
	}

	payload := dto.TradingViewScanRequest{
		Columns: scanColumns,
		Filter: []dto.TradingViewScanFilter{
			{Left: "name", Operation: "match", Right: symbol},
		},
		Markets: []string{t.cfg.TradingView.Market},
		Options: dto.TradingViewScanOptions{Lang: "pt"},
		Range:   []int{0, 1000},
		Sort:    dto.TradingViewScanSort{SortBy: "name", SortOrder: "asc"},
		Symbols: dto.TradingViewScanSymbolSet{SymbolSet: []string{}},
	}

	var response dto.TradingViewScanResponse
	endpoint := fmt.Sprintf("/%s/scan", t.cfg.TradingView.Market)
	resp, err := t.httpClient.Post(ctx, endpoint, payload, nil, &response)
	if err != nil {
		t.log.WarnContext(ctx, "Quote fetch failed",
			logger.StringField("symbol", symbol),
			logger.ErrorField(err),
		)
		return nil, ErrQuoteUnavailable
	}

	if resp.StatusCode != http.StatusOK {
		t.log.WarnContext(ctx, "Scanner returned NON-200 response",
			logger.StringField("symbol", symbol),
			logger.IntField("status_code", resp.StatusCode),
		)
		return nil, ErrQuoteUnavailable
	}

	quote, ok := t.selectQuote(&response, symbol)
	if !ok {
		t.log.WarnContext(ctx, "Symbol not found in scanner response",
			logger.StringField("symbol", symbol),
			logger.IntField("total_count", response.TotalCount),
		)
		return nil, ErrQuoteUnavailable
	}

	t.quoteCache.Set(cacheKey, *quote, t.cfg.Cache.QuoteExpiration)
	return quote, nil
}

// selectQuote picks the row whose exchange-qualified symbol matches and
// decodes the positional price and SMA200 fields. A row without a numeric
// price is treated as not found; a missing SMA200 only drops the average.
func (t *tradingViewScannerRepository) selectQuote(response *dto.TradingViewScanResponse, symbol string) (*dto.StockQuote, bool) {
	qualified := t.cfg.TradingView.Exchange + ":" + symbol

	for _, row := range response.Data {
		if row.Symbol != qualified {
			continue
		}
		if len(row.Fields) <= scanFieldPrice {
			return nil, false
		}

		price, ok := row.Fields[scanFieldPrice].(float64)
		if !ok || price <= 0 {
			return nil, false
		}

		quote := &dto.StockQuote{Price: price}
		if len(row.Fields) > scanFieldMA200 {
			if ma, ok := row.Fields[scanFieldMA200].(float64); ok {
				quote.MovingAverage200 = &ma
			}
		}
		return quote, true
	}
	return nil, false
}
