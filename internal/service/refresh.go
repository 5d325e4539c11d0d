package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang-watchlist/config"
	"golang-watchlist/internal/dto"
	"golang-watchlist/internal/model"
	"golang-watchlist/internal/repository"
	"golang-watchlist/pkg/logger"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// RefreshService periodically re-enriches every record: fetch a fresh quote,
// merge with an empty edit and persist. Records whose quote is unavailable
// keep their prior data; the cycle never fails a record because the market
// was unreachable.
type RefreshService interface {
	Run(ctx context.Context)
	RefreshAll(ctx context.Context) error
}

type refreshService struct {
	cfg        *config.Config
	log        *logger.Logger
	stocks     repository.StockRepository
	scanner    repository.TradingViewScannerRepository
	alerts     AlertNotifier
	cronParser cron.Parser
}

func NewRefreshService(
	cfg *config.Config,
	log *logger.Logger,
	stocks repository.StockRepository,
	scanner repository.TradingViewScannerRepository,
	alerts AlertNotifier,
) RefreshService {
	return &refreshService{
		cfg:        cfg,
		log:        log,
		stocks:     stocks,
		scanner:    scanner,
		alerts:     alerts,
		cronParser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Run blocks until ctx is done, firing RefreshAll on the configured cron
// schedule.
func (s *refreshService) Run(ctx context.Context) {
	schedule, err := s.cronParser.Parse(s.cfg.Refresh.CronExpression)
	if err != nil {
		s.log.Error("Invalid refresh cron expression, refresh disabled",
			logger.StringField("cron_expression", s.cfg.Refresh.CronExpression),
			logger.ErrorField(err),
		)
		return
	}

	s.log.Info("Refresh scheduler started",
		logger.StringField("cron_expression", s.cfg.Refresh.CronExpression),
	)

	for {
		next := schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("Refresh scheduler stopped")
			return
		case <-timer.C:
		}

		cycleCtx, cancel := context.WithTimeout(ctx, s.cfg.Refresh.TimeoutDuration)
		if err := s.RefreshAll(cycleCtx); err != nil {
			s.log.ErrorContext(cycleCtx, "Refresh cycle finished with errors", logger.ErrorField(err))
		}
		cancel()
	}
}

// RefreshAll re-enriches every record across all partitions. Quote fetches
// fan out bounded by the configured concurrency. Enrichment failures are not
// errors at all; a persistence failure is logged per record and only counted,
// so one bad record never stops the rest of the cycle.
func (s *refreshService) RefreshAll(ctx context.Context) error {
	stocks, err := s.stocks.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load watchlist for refresh: %w", err)
	}

	if len(stocks) == 0 {
		return nil
	}

	s.log.InfoContext(ctx, "Refreshing watchlist quotes",
		logger.IntField("stock_count", len(stocks)),
		logger.IntField("max_concurrency", s.cfg.Refresh.MaxConcurrency),
	)

	var failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Refresh.MaxConcurrency)

	for _, stock := range stocks {
		stock := stock
		g.Go(func() error {
			if err := s.refreshOne(ctx, stock); err != nil {
				failed.Add(1)
				s.log.ErrorContext(ctx, "Failed to refresh stock",
					logger.StringField("symbol", stock.Symbol),
					logger.ErrorField(err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("refresh cycle: %d of %d records failed", n, len(stocks))
	}
	return nil
}

func (s *refreshService) refreshOne(ctx context.Context, base model.DailyStock) error {
	quote, err := s.scanner.FetchQuote(ctx, base.Symbol)
	if err != nil {
		// Degraded, not failed: the merge below keeps prior data.
		quote = nil
	}

	refreshed := Merge(&base, dto.StockEdit{}, quote)

	fields := map[string]interface{}{
		"current_price":      refreshed.CurrentPrice,
		"moving_average_200": refreshed.MovingAverage200,
		"moving_average_pct": refreshed.MovingAveragePct,
		"upside":             refreshed.Upside,
	}
	if err := s.stocks.Patch(ctx, base.CPF, base.Symbol, fields); err != nil {
		return fmt.Errorf("failed to persist refresh for %s: %w", base.Symbol, err)
	}

	s.alerts.NotifyBandBreach(ctx, refreshed)
	return nil
}
