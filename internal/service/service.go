package service

import (
	"golang-watchlist/config"
	"golang-watchlist/internal/repository"
	"golang-watchlist/pkg/cache"
	"golang-watchlist/pkg/logger"

	"gopkg.in/telebot.v3"
)

type Service struct {
	WatchlistService WatchlistService
	SyncViewService  SyncViewService
	RefreshService   RefreshService
	AlertNotifier    AlertNotifier
	SessionStore     SessionStore
}

// NewService wires the service layer. A nil bot disables Telegram alerts
// without touching the rest of the pipeline.
func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	inmemoryCache cache.Cache,
	bot *telebot.Bot,
) *Service {
	var alerts AlertNotifier
	if bot != nil {
		alerts = NewTelegramAlertNotifier(cfg, log, bot)
	} else {
		alerts = NewNoopAlertNotifier()
	}

	return &Service{
		WatchlistService: NewWatchlistService(cfg, log, repo.StockRepo, repo.TradingViewScannerRepo),
		SyncViewService:  NewSyncViewService(log, repo.StockRepo),
		RefreshService:   NewRefreshService(cfg, log, repo.StockRepo, repo.TradingViewScannerRepo, alerts),
		AlertNotifier:    alerts,
		SessionStore:     NewSessionStore(inmemoryCache),
	}
}
