package repository

import (
	"golang-watchlist/config"
	"golang-watchlist/pkg/cache"
	"golang-watchlist/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	StockRepo              StockRepository
	TradingViewScannerRepo TradingViewScannerRepository
}

func NewRepository(cfg *config.Config, inmemoryCache cache.Cache, db *gorm.DB, log *logger.Logger) *Repository {
	return &Repository{
		StockRepo:              NewStockRepository(db, log),
		TradingViewScannerRepo: NewTradingViewScannerRepository(cfg, inmemoryCache, log),
	}
}
