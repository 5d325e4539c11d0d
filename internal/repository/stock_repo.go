package repository

import (
	"context"
	"errors"
	"sync"

	"golang-watchlist/internal/model"
	"golang-watchlist/pkg/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrStockNotFound = errors.New("stock not found")

// StockRepository is the document store for watchlist records. Put replaces
// a whole document (creating with an existing (cpf, symbol) overwrites the
// prior record), Patch updates a named set of fields. Every successful write
// pushes a full snapshot to all subscribers; there is no optimistic
// concurrency token, the last write per document wins.
type StockRepository interface {
	Put(ctx context.Context, stock *model.DailyStock) error
	Patch(ctx context.Context, cpf, symbol string, fields map[string]interface{}) error
	GetBySymbol(ctx context.Context, cpf, symbol string) (*model.DailyStock, error)
	GetAll(ctx context.Context) ([]model.DailyStock, error)
	Subscribe(onChange func(all []model.DailyStock)) (unsubscribe func())
}

type stockRepository struct {
	db  *gorm.DB
	log *logger.Logger

	mu        sync.Mutex
	subs      map[int]func([]model.DailyStock)
	nextSubID int
}

func NewStockRepository(db *gorm.DB, log *logger.Logger) StockRepository {
	return &stockRepository{
		db:   db,
		log:  log,
		subs: make(map[int]func([]model.DailyStock)),
	}
}

func (r *stockRepository) Put(ctx context.Context, stock *model.DailyStock) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cpf"}, {Name: "symbol"}},
			UpdateAll: true,
		}).
		Create(stock).Error
	if err != nil {
		return err
	}

	r.notify(ctx)
	return nil
}

func (r *stockRepository) Patch(ctx context.Context, cpf, symbol string, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&model.DailyStock{}).
		Where("cpf = ? AND symbol = ?", cpf, symbol).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockNotFound
	}

	r.notify(ctx)
	return nil
}

func (r *stockRepository) GetBySymbol(ctx context.Context, cpf, symbol string) (*model.DailyStock, error) {
	var stock model.DailyStock
	err := r.db.WithContext(ctx).
		Where("cpf = ? AND symbol = ?", cpf, symbol).
		First(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStockNotFound
	}
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

// GetAll returns every record across partitions in arrival order, which is
// the tiebreak the sync view relies on.
func (r *stockRepository) GetAll(ctx context.Context) ([]model.DailyStock, error) {
	var stocks []model.DailyStock
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&stocks).Error; err != nil {
		return nil, err
	}
	return stocks, nil
}

func (r *stockRepository) Subscribe(onChange func(all []model.DailyStock)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextSubID
	r.nextSubID++
	r.subs[id] = onChange

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}
}

// notify delivers a fresh full snapshot to every subscriber. Subscribers do
// their own filtering; delivering everything keeps the store oblivious to
// partitions.
func (r *stockRepository) notify(ctx context.Context) {
	r.mu.Lock()
	callbacks := make([]func([]model.DailyStock), 0, len(r.subs))
	for _, fn := range r.subs {
		callbacks = append(callbacks, fn)
	}
	r.mu.Unlock()

	if len(callbacks) == 0 {
		return
	}

	all, err := r.GetAll(ctx)
	if err != nil {
		r.log.ErrorContext(ctx, "Failed to load snapshot for change notification", logger.ErrorField(err))
		return
	}

	for _, fn := range callbacks {
		fn(all)
	}
}
