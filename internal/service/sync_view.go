package service

import (
	"context"
	"sort"
	"sync"

	"golang-watchlist/internal/model"
	"golang-watchlist/internal/repository"
	"golang-watchlist/pkg/cpf"
	"golang-watchlist/pkg/logger"
)

// PartitionView is one session's live view of its partition. Every store
// change delivers a fresh filtered, score-sorted snapshot on Updates();
// there is no incremental patching, each snapshot is recomputed whole.
type PartitionView struct {
	partitionKey string
	updates      chan []model.DailyStock
	unsubscribe  func()

	mu     sync.Mutex
	closed bool
}

// Updates delivers full snapshots, most recent last. When a consumer lags,
// older queued snapshots are dropped; only the freshest matters.
func (v *PartitionView) Updates() <-chan []model.DailyStock {
	return v.updates
}

// Close detaches the view from the store. Safe to call more than once.
func (v *PartitionView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	v.unsubscribe()
	close(v.updates)
}

// publish queues a snapshot without ever blocking a store write. A store
// notification may still be in flight when Close runs, so the closed flag
// is checked under the same lock.
func (v *PartitionView) publish(snapshot []model.DailyStock) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}

	for {
		select {
		case v.updates <- snapshot:
			return
		default:
		}
		select {
		case <-v.updates:
		default:
		}
	}
}

type SyncViewService interface {
	OpenView(ctx context.Context, partitionKey string) (*PartitionView, error)
}

type syncViewService struct {
	log    *logger.Logger
	stocks repository.StockRepository
}

func NewSyncViewService(log *logger.Logger, stocks repository.StockRepository) SyncViewService {
	return &syncViewService{
		log:    log,
		stocks: stocks,
	}
}

// OpenView subscribes a session to its partition. The subscription goes
// live before the initial snapshot is read, so a write landing during setup
// is delivered as an update instead of being missed.
func (s *syncViewService) OpenView(ctx context.Context, partitionKey string) (*PartitionView, error) {
	if !cpf.Validate(partitionKey) {
		return nil, ErrInvalidCPF
	}

	view := &PartitionView{
		partitionKey: partitionKey,
		updates:      make(chan []model.DailyStock, 8),
	}
	view.unsubscribe = s.stocks.Subscribe(func(all []model.DailyStock) {
		view.publish(partitionSnapshot(all, partitionKey))
	})

	all, err := s.stocks.GetAll(ctx)
	if err != nil {
		view.Close()
		return nil, err
	}
	view.publish(partitionSnapshot(all, partitionKey))

	s.log.DebugContext(ctx, "Partition view opened", logger.StringField("cpf", partitionKey))
	return view, nil
}

// partitionSnapshot filters records to one partition and sorts them by
// score descending. Ties keep arrival order, which is the order the store
// returns.
func partitionSnapshot(all []model.DailyStock, partitionKey string) []model.DailyStock {
	filtered := make([]model.DailyStock, 0, len(all))
	for _, stock := range all {
		if stock.CPF == partitionKey {
			filtered = append(filtered, stock)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Score > filtered[j].Score
	})
	return filtered
}
