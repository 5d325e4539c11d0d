package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"golang-watchlist/config"
	"golang-watchlist/internal/dto"
	"golang-watchlist/internal/model"
	"golang-watchlist/internal/repository"
	"golang-watchlist/pkg/logger"
	"golang-watchlist/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

// fakeStockRepository is an in-memory StockRepository with the same write
// and notification semantics as the real store.
type fakeStockRepository struct {
	mu     sync.Mutex
	stocks []model.DailyStock
	subs   map[int]func([]model.DailyStock)
	nextID int

	lastPatch map[string]interface{}
}

func newFakeStockRepository() *fakeStockRepository {
	return &fakeStockRepository{subs: make(map[int]func([]model.DailyStock))}
}

func (f *fakeStockRepository) Put(ctx context.Context, stock *model.DailyStock) error {
	f.mu.Lock()
	replaced := false
	for i := range f.stocks {
		if f.stocks[i].CPF == stock.CPF && f.stocks[i].Symbol == stock.Symbol {
			stock.ID = f.stocks[i].ID
			stock.CreatedAt = f.stocks[i].CreatedAt
			f.stocks[i] = *stock
			replaced = true
			break
		}
	}
	if !replaced {
		f.nextID++
		stock.ID = uint(f.nextID)
		f.stocks = append(f.stocks, *stock)
	}
	f.mu.Unlock()

	f.notify(ctx)
	return nil
}

func (f *fakeStockRepository) Patch(ctx context.Context, cpf, symbol string, fields map[string]interface{}) error {
	f.mu.Lock()
	found := false
	for i := range f.stocks {
		if f.stocks[i].CPF == cpf && f.stocks[i].Symbol == symbol {
			applyFields(&f.stocks[i], fields)
			found = true
			break
		}
	}
	f.lastPatch = fields
	f.mu.Unlock()

	if !found {
		return repository.ErrStockNotFound
	}
	f.notify(ctx)
	return nil
}

func (f *fakeStockRepository) GetBySymbol(_ context.Context, cpf, symbol string) (*model.DailyStock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.stocks {
		if f.stocks[i].CPF == cpf && f.stocks[i].Symbol == symbol {
			stock := f.stocks[i]
			return &stock, nil
		}
	}
	return nil, repository.ErrStockNotFound
}

func (f *fakeStockRepository) GetAll(context.Context) ([]model.DailyStock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.DailyStock, len(f.stocks))
	copy(out, f.stocks)
	return out, nil
}

func (f *fakeStockRepository) Subscribe(onChange func(all []model.DailyStock)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := len(f.subs)
	f.subs[id] = onChange
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *fakeStockRepository) notify(ctx context.Context) {
	all, _ := f.GetAll(ctx)
	f.mu.Lock()
	callbacks := make([]func([]model.DailyStock), 0, len(f.subs))
	for _, fn := range f.subs {
		callbacks = append(callbacks, fn)
	}
	f.mu.Unlock()
	for _, fn := range callbacks {
		fn(all)
	}
}

func applyFields(stock *model.DailyStock, fields map[string]interface{}) {
	for name, value := range fields {
		switch name {
		case "current_price":
			stock.CurrentPrice = value.(float64)
		case "moving_average_200":
			stock.MovingAverage200, _ = value.(*float64)
		case "moving_average_pct":
			stock.MovingAveragePct, _ = value.(*float64)
		case "target_price":
			stock.TargetPrice, _ = value.(*float64)
		case "upside":
			stock.Upside, _ = value.(*float64)
		case "distance_negative":
			stock.DistanceNegative = value.(float64)
		case "distance_positive":
			stock.DistancePositive = value.(float64)
		case "checklist":
			stock.Checklist = value.(datatypes.JSONType[model.Checklist])
		case "score":
			stock.Score = value.(int)
		case "last_checked_at":
			stock.LastCheckedAt, _ = value.(*time.Time)
		case "review_state":
			stock.ReviewState, _ = value.(*model.ReviewState)
		}
	}
}

type fakeScanner struct {
	quote *dto.StockQuote
	err   error
	calls []string
}

func (f *fakeScanner) FetchQuote(_ context.Context, symbol string) (*dto.StockQuote, error) {
	f.calls = append(f.calls, strings.ToUpper(symbol))
	if f.err != nil {
		return nil, f.err
	}
	return f.quote, nil
}

func newTestWatchlistService(repo *fakeStockRepository, scanner *fakeScanner) WatchlistService {
	return NewWatchlistService(&config.Config{}, testLogger(), repo, scanner)
}

func TestWatchlistCreateQuoteBeatsSeed(t *testing.T) {
	repo := newFakeStockRepository()
	scanner := &fakeScanner{quote: &dto.StockQuote{Price: 31.5, MovingAverage200: utils.ToPointer(30.0)}}
	svc := newTestWatchlistService(repo, scanner)

	stock, err := svc.Create(context.Background(), testCPF, dto.CreateStockRequest{
		Symbol:      "petr4",
		SeedPrice:   30,
		TargetPrice: utils.ToPointer(40.0),
	})
	require.NoError(t, err)

	assert.Equal(t, "PETR4", stock.Symbol)
	assert.Equal(t, 31.5, stock.CurrentPrice)
	require.NotNil(t, stock.MovingAverage200)
	assert.Equal(t, 30.0, *stock.MovingAverage200)
	assert.Equal(t, []string{"PETR4"}, scanner.calls)

	persisted, err := repo.GetBySymbol(context.Background(), testCPF, "PETR4")
	require.NoError(t, err)
	assert.Equal(t, 31.5, persisted.CurrentPrice)
}

func TestWatchlistCreateSeedFallbackWhenQuoteUnavailable(t *testing.T) {
	repo := newFakeStockRepository()
	scanner := &fakeScanner{err: repository.ErrQuoteUnavailable}
	svc := newTestWatchlistService(repo, scanner)

	stock, err := svc.Create(context.Background(), testCPF, dto.CreateStockRequest{
		Symbol:    "PETR4",
		SeedPrice: 30,
	})
	require.NoError(t, err)

	assert.Equal(t, 30.0, stock.CurrentPrice)
	assert.Nil(t, stock.MovingAverage200)
	assert.Nil(t, stock.Upside)
}

func TestWatchlistCreateDuplicateOverwrites(t *testing.T) {
	repo := newFakeStockRepository()
	scanner := &fakeScanner{err: repository.ErrQuoteUnavailable}
	svc := newTestWatchlistService(repo, scanner)

	ctx := context.Background()
	_, err := svc.Create(ctx, testCPF, dto.CreateStockRequest{Symbol: "PETR4", SeedPrice: 30})
	require.NoError(t, err)
	_, err = svc.ToggleChecklist(ctx, testCPF, "PETR4", dto.ToggleChecklistRequest{Flag: "insider", Value: true})
	require.NoError(t, err)

	// Re-adding the same symbol replaces the record, checklist included.
	_, err = svc.Create(ctx, testCPF, dto.CreateStockRequest{Symbol: "PETR4", SeedPrice: 32})
	require.NoError(t, err)

	persisted, err := repo.GetBySymbol(ctx, testCPF, "PETR4")
	require.NoError(t, err)
	assert.Equal(t, 32.0, persisted.CurrentPrice)
	assert.Equal(t, model.Checklist{}, persisted.Checklist.Data())
	assert.Equal(t, 0, persisted.Score)
}

func TestWatchlistToggleChecklistPatchesOnlyChecklistAndScore(t *testing.T) {
	repo := newFakeStockRepository()
	scanner := &fakeScanner{err: repository.ErrQuoteUnavailable}
	svc := newTestWatchlistService(repo, scanner)

	ctx := context.Background()
	_, err := svc.Create(ctx, testCPF, dto.CreateStockRequest{Symbol: "PETR4", SeedPrice: 30})
	require.NoError(t, err)
	scanner.calls = nil

	stock, err := svc.ToggleChecklist(ctx, testCPF, "petr4", dto.ToggleChecklistRequest{Flag: "volume", Value: true})
	require.NoError(t, err)

	assert.True(t, stock.Checklist.Data().Volume)
	assert.Equal(t, 1, stock.Score)
	assert.Empty(t, scanner.calls, "toggle must not fetch a quote")

	assert.Len(t, repo.lastPatch, 2)
	assert.Contains(t, repo.lastPatch, "checklist")
	assert.Contains(t, repo.lastPatch, "score")
}

func TestWatchlistToggleChecklistRejectsUnknownFlag(t *testing.T) {
	repo := newFakeStockRepository()
	scanner := &fakeScanner{}
	svc := newTestWatchlistService(repo, scanner)

	_, err := svc.ToggleChecklist(context.Background(), testCPF, "PETR4", dto.ToggleChecklistRequest{Flag: "nope", Value: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown checklist flag")
}

func TestWatchlistEditAppliesOverridesAndRecomputes(t *testing.T) {
	repo := newFakeStockRepository()
	scanner := &fakeScanner{err: repository.ErrQuoteUnavailable}
	svc := newTestWatchlistService(repo, scanner)

	ctx := context.Background()
	_, err := svc.Create(ctx, testCPF, dto.CreateStockRequest{Symbol: "PETR4", SeedPrice: 30})
	require.NoError(t, err)

	reviewState := "compra"
	stock, err := svc.Edit(ctx, testCPF, "PETR4", dto.UpdateStockRequest{
		CurrentPrice: utils.ToPointer(25.0),
		TargetPrice:  utils.ToPointer(30.0),
		ReviewState:  &reviewState,
	})
	require.NoError(t, err)

	assert.Equal(t, 25.0, stock.CurrentPrice)
	require.NotNil(t, stock.Upside)
	assert.InDelta(t, 20.0, *stock.Upside, 1e-9)
	require.NotNil(t, stock.ReviewState)
	assert.Equal(t, model.ReviewStateCompra, *stock.ReviewState)
}

func TestWatchlistEditUnknownSymbol(t *testing.T) {
	repo := newFakeStockRepository()
	svc := newTestWatchlistService(repo, &fakeScanner{})

	_, err := svc.Edit(context.Background(), testCPF, "XXXX4", dto.UpdateStockRequest{})
	assert.ErrorIs(t, err, repository.ErrStockNotFound)
}

func TestWatchlistRecheckStampsLastCheckedAt(t *testing.T) {
	repo := newFakeStockRepository()
	scanner := &fakeScanner{quote: &dto.StockQuote{Price: 33.0}}
	svc := newTestWatchlistService(repo, scanner)

	ctx := context.Background()
	_, err := svc.Create(ctx, testCPF, dto.CreateStockRequest{Symbol: "PETR4", SeedPrice: 30})
	require.NoError(t, err)

	stock, err := svc.Recheck(ctx, testCPF, "PETR4")
	require.NoError(t, err)

	assert.Equal(t, 33.0, stock.CurrentPrice)
	require.NotNil(t, stock.LastCheckedAt)
}

func TestWatchlistOperationsRejectInvalidCPF(t *testing.T) {
	svc := newTestWatchlistService(newFakeStockRepository(), &fakeScanner{})
	ctx := context.Background()

	_, err := svc.Create(ctx, "11111111111", dto.CreateStockRequest{Symbol: "PETR4", SeedPrice: 30})
	assert.ErrorIs(t, err, ErrInvalidCPF)

	_, err = svc.ToggleChecklist(ctx, "123", "PETR4", dto.ToggleChecklistRequest{Flag: "insider"})
	assert.ErrorIs(t, err, ErrInvalidCPF)

	_, err = svc.Edit(ctx, "", "PETR4", dto.UpdateStockRequest{})
	assert.ErrorIs(t, err, ErrInvalidCPF)

	_, err = svc.Recheck(ctx, "52998224720", "PETR4")
	assert.ErrorIs(t, err, ErrInvalidCPF)

	_, err = svc.List(ctx, "abc")
	assert.ErrorIs(t, err, ErrInvalidCPF)
}

func TestWatchlistListSortsByScore(t *testing.T) {
	repo := newFakeStockRepository()
	scanner := &fakeScanner{err: repository.ErrQuoteUnavailable}
	svc := newTestWatchlistService(repo, scanner)

	ctx := context.Background()
	for _, symbol := range []string{"AAAA4", "BBBB4", "CCCC4"} {
		_, err := svc.Create(ctx, testCPF, dto.CreateStockRequest{Symbol: symbol, SeedPrice: 10})
		require.NoError(t, err)
	}
	_, err := svc.ToggleChecklist(ctx, testCPF, "BBBB4", dto.ToggleChecklistRequest{Flag: "insider", Value: true})
	require.NoError(t, err)

	stocks, err := svc.List(ctx, testCPF)
	require.NoError(t, err)
	require.Len(t, stocks, 3)
	assert.Equal(t, "BBBB4", stocks[0].Symbol)
	// Ties keep arrival order.
	assert.Equal(t, "AAAA4", stocks[1].Symbol)
	assert.Equal(t, "CCCC4", stocks[2].Symbol)
}
