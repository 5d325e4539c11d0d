package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang-watchlist/config"
	"golang-watchlist/internal/dto"
	"golang-watchlist/internal/model"
	"golang-watchlist/internal/repository"
	"golang-watchlist/pkg/cpf"
	"golang-watchlist/pkg/logger"
	"golang-watchlist/pkg/utils"
)

var ErrInvalidCPF = errors.New("invalid cpf")

// WatchlistService runs the per-action pipeline: fetch enrichment, merge,
// persist. Enrichment failures degrade to the previously known price and
// never abort the pipeline; persistence failures propagate to the caller.
type WatchlistService interface {
	Create(ctx context.Context, partitionKey string, req dto.CreateStockRequest) (*model.DailyStock, error)
	ToggleChecklist(ctx context.Context, partitionKey, symbol string, req dto.ToggleChecklistRequest) (*model.DailyStock, error)
	Edit(ctx context.Context, partitionKey, symbol string, req dto.UpdateStockRequest) (*model.DailyStock, error)
	Recheck(ctx context.Context, partitionKey, symbol string) (*model.DailyStock, error)
	List(ctx context.Context, partitionKey string) ([]model.DailyStock, error)
}

type watchlistService struct {
	cfg     *config.Config
	log     *logger.Logger
	stocks  repository.StockRepository
	scanner repository.TradingViewScannerRepository
}

func NewWatchlistService(
	cfg *config.Config,
	log *logger.Logger,
	stocks repository.StockRepository,
	scanner repository.TradingViewScannerRepository,
) WatchlistService {
	return &watchlistService{
		cfg:     cfg,
		log:     log,
		stocks:  stocks,
		scanner: scanner,
	}
}

// Create adds a symbol to the partition's watchlist. The seed price is the
// fallback when the scanner has nothing; a fetched price always wins over
// it. Creating a symbol that already exists in the partition replaces the
// prior record wholesale, checklist included.
func (s *watchlistService) Create(ctx context.Context, partitionKey string, req dto.CreateStockRequest) (*model.DailyStock, error) {
	if !cpf.Validate(partitionKey) {
		return nil, ErrInvalidCPF
	}

	symbol := strings.ToUpper(req.Symbol)
	quote := s.fetchQuote(ctx, symbol)

	edit := dto.StockEdit{
		Symbol:       symbol,
		CPF:          partitionKey,
		CurrentPrice: utils.ToPointer(req.SeedPrice),
		TargetPrice:  req.TargetPrice,
	}

	stock := Merge(nil, edit, quote)
	if err := s.stocks.Put(ctx, &stock); err != nil {
		return nil, fmt.Errorf("failed to persist stock %s: %w", symbol, err)
	}

	s.log.InfoContext(ctx, "Stock added to watchlist",
		logger.StringField("symbol", symbol),
		logger.Float64Field("current_price", stock.CurrentPrice),
	)
	return &stock, nil
}

// ToggleChecklist flips a single checklist flag. No enrichment fetch runs
// here: the price is untouched, only the checklist and the recomputed score
// are written.
func (s *watchlistService) ToggleChecklist(ctx context.Context, partitionKey, symbol string, req dto.ToggleChecklistRequest) (*model.DailyStock, error) {
	if !cpf.Validate(partitionKey) {
		return nil, ErrInvalidCPF
	}

	var probe model.Checklist
	if err := probe.Set(req.Flag, req.Value); err != nil {
		return nil, err
	}

	base, err := s.stocks.GetBySymbol(ctx, partitionKey, strings.ToUpper(symbol))
	if err != nil {
		return nil, err
	}

	edit := dto.StockEdit{
		Toggle: &dto.ChecklistToggle{Flag: req.Flag, Value: req.Value},
	}
	stock := Merge(base, edit, nil)

	fields := map[string]interface{}{
		"checklist": stock.Checklist,
		"score":     stock.Score,
	}
	if err := s.stocks.Patch(ctx, base.CPF, base.Symbol, fields); err != nil {
		return nil, fmt.Errorf("failed to persist checklist toggle for %s: %w", base.Symbol, err)
	}

	return &stock, nil
}

// Edit applies the manual edit flow: fetch a fresh quote, merge it with the
// supplied field groups and persist the result.
func (s *watchlistService) Edit(ctx context.Context, partitionKey, symbol string, req dto.UpdateStockRequest) (*model.DailyStock, error) {
	if !cpf.Validate(partitionKey) {
		return nil, ErrInvalidCPF
	}

	base, err := s.stocks.GetBySymbol(ctx, partitionKey, strings.ToUpper(symbol))
	if err != nil {
		return nil, err
	}

	edit := dto.StockEdit{
		CurrentPrice:     req.CurrentPrice,
		TargetPrice:      req.TargetPrice,
		DistanceNegative: req.DistanceNegative,
		DistancePositive: req.DistancePositive,
	}
	if req.ReviewState != nil {
		state := model.ReviewState(*req.ReviewState)
		edit.ReviewState = &state
	}

	quote := s.fetchQuote(ctx, base.Symbol)
	stock := Merge(base, edit, quote)

	if err := s.stocks.Patch(ctx, base.CPF, base.Symbol, mutableFields(stock)); err != nil {
		return nil, fmt.Errorf("failed to persist edit for %s: %w", base.Symbol, err)
	}

	return &stock, nil
}

// Recheck refreshes the quote for one symbol and stamps lastCheckedAt.
func (s *watchlistService) Recheck(ctx context.Context, partitionKey, symbol string) (*model.DailyStock, error) {
	if !cpf.Validate(partitionKey) {
		return nil, ErrInvalidCPF
	}

	base, err := s.stocks.GetBySymbol(ctx, partitionKey, strings.ToUpper(symbol))
	if err != nil {
		return nil, err
	}

	edit := dto.StockEdit{
		LastCheckedAt: utils.ToPointer(time.Now()),
	}
	quote := s.fetchQuote(ctx, base.Symbol)
	stock := Merge(base, edit, quote)

	if err := s.stocks.Patch(ctx, base.CPF, base.Symbol, mutableFields(stock)); err != nil {
		return nil, fmt.Errorf("failed to persist recheck for %s: %w", base.Symbol, err)
	}

	return &stock, nil
}

// List returns the partition's records sorted by score, the same view the
// sync stream publishes.
func (s *watchlistService) List(ctx context.Context, partitionKey string) ([]model.DailyStock, error) {
	if !cpf.Validate(partitionKey) {
		return nil, ErrInvalidCPF
	}

	all, err := s.stocks.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return partitionSnapshot(all, partitionKey), nil
}

// fetchQuote folds every enrichment failure into a nil quote: the merge
// falls back to prior data and the pipeline continues.
func (s *watchlistService) fetchQuote(ctx context.Context, symbol string) *dto.StockQuote {
	quote, err := s.scanner.FetchQuote(ctx, symbol)
	if err != nil {
		s.log.WarnContext(ctx, "Enrichment unavailable, keeping prior data",
			logger.StringField("symbol", symbol),
		)
		return nil
	}
	return quote
}

// mutableFields maps every non-identity column of a merged record for a
// field-level update. Identity columns never appear here.
func mutableFields(stock model.DailyStock) map[string]interface{} {
	return map[string]interface{}{
		"current_price":      stock.CurrentPrice,
		"moving_average_200": stock.MovingAverage200,
		"moving_average_pct": stock.MovingAveragePct,
		"target_price":       stock.TargetPrice,
		"upside":             stock.Upside,
		"distance_negative":  stock.DistanceNegative,
		"distance_positive":  stock.DistancePositive,
		"checklist":          stock.Checklist,
		"score":              stock.Score,
		"last_checked_at":    stock.LastCheckedAt,
		"review_state":       stock.ReviewState,
	}
}
