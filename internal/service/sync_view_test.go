package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang-watchlist/internal/dto"
	"golang-watchlist/internal/model"
	"golang-watchlist/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionSnapshot(t *testing.T) {
	otherCPF := "11144477735"
	all := []model.DailyStock{
		{Symbol: "AAAA4", CPF: testCPF, Score: 3},
		{Symbol: "BBBB4", CPF: otherCPF, Score: 9},
		{Symbol: "CCCC4", CPF: testCPF, Score: 7},
		{Symbol: "DDDD4", CPF: testCPF, Score: 3},
	}

	snapshot := partitionSnapshot(all, testCPF)

	require.Len(t, snapshot, 3)
	assert.Equal(t, "CCCC4", snapshot[0].Symbol)
	// Equal scores keep arrival order.
	assert.Equal(t, "AAAA4", snapshot[1].Symbol)
	assert.Equal(t, "DDDD4", snapshot[2].Symbol)
}

func TestPartitionSnapshotEmptyPartition(t *testing.T) {
	all := []model.DailyStock{
		{Symbol: "AAAA4", CPF: "11144477735", Score: 3},
	}
	assert.Empty(t, partitionSnapshot(all, testCPF))
}

func TestOpenViewRejectsInvalidCPF(t *testing.T) {
	svc := NewSyncViewService(testLogger(), newFakeStockRepository())

	_, err := svc.OpenView(context.Background(), "11111111111")
	assert.ErrorIs(t, err, ErrInvalidCPF)
}

func TestOpenViewDeliversInitialSnapshotThenUpdates(t *testing.T) {
	repo := newFakeStockRepository()
	scanner := &fakeScanner{err: repository.ErrQuoteUnavailable}
	watchlist := newTestWatchlistService(repo, scanner)
	svc := NewSyncViewService(testLogger(), repo)

	ctx := context.Background()
	_, err := watchlist.Create(ctx, testCPF, dto.CreateStockRequest{Symbol: "PETR4", SeedPrice: 30})
	require.NoError(t, err)

	view, err := svc.OpenView(ctx, testCPF)
	require.NoError(t, err)
	defer view.Close()

	initial := <-view.Updates()
	require.Len(t, initial, 1)
	assert.Equal(t, "PETR4", initial[0].Symbol)

	_, err = watchlist.Create(ctx, testCPF, dto.CreateStockRequest{Symbol: "VALE3", SeedPrice: 60})
	require.NoError(t, err)

	select {
	case updated := <-view.Updates():
		require.Len(t, updated, 2)
	case <-time.After(time.Second):
		t.Fatal("expected an update after a store write")
	}
}

func TestOpenViewFiltersOtherPartitions(t *testing.T) {
	repo := newFakeStockRepository()
	scanner := &fakeScanner{err: repository.ErrQuoteUnavailable}
	watchlist := newTestWatchlistService(repo, scanner)
	svc := NewSyncViewService(testLogger(), repo)

	ctx := context.Background()
	otherCPF := "11144477735"
	_, err := watchlist.Create(ctx, otherCPF, dto.CreateStockRequest{Symbol: "ITUB4", SeedPrice: 25})
	require.NoError(t, err)

	view, err := svc.OpenView(ctx, testCPF)
	require.NoError(t, err)
	defer view.Close()

	initial := <-view.Updates()
	assert.Empty(t, initial)

	// A write in another partition still notifies, with an empty view.
	_, err = watchlist.Create(ctx, otherCPF, dto.CreateStockRequest{Symbol: "BBAS3", SeedPrice: 28})
	require.NoError(t, err)

	select {
	case updated := <-view.Updates():
		assert.Empty(t, updated)
	case <-time.After(time.Second):
		t.Fatal("expected an update after a store write")
	}
}

// setupWriteRepo lands a write while the view's first snapshot read is in
// flight, returning the pre-write read.
type setupWriteRepo struct {
	*fakeStockRepository
	once sync.Once
}

func (r *setupWriteRepo) GetAll(ctx context.Context) ([]model.DailyStock, error) {
	all, err := r.fakeStockRepository.GetAll(ctx)
	r.once.Do(func() {
		_ = r.fakeStockRepository.Put(ctx, &model.DailyStock{
			Symbol:       "PETR4",
			CPF:          testCPF,
			CurrentPrice: 30,
		})
	})
	return all, err
}

func TestOpenViewDeliversWriteLandingDuringSetup(t *testing.T) {
	repo := &setupWriteRepo{fakeStockRepository: newFakeStockRepository()}
	svc := NewSyncViewService(testLogger(), repo)

	view, err := svc.OpenView(context.Background(), testCPF)
	require.NoError(t, err)
	defer view.Close()

	seen := false
	for i := 0; i < 2 && !seen; i++ {
		select {
		case snapshot := <-view.Updates():
			for _, stock := range snapshot {
				if stock.Symbol == "PETR4" {
					seen = true
				}
			}
		case <-time.After(time.Second):
		}
	}
	assert.True(t, seen, "a write during view setup must be delivered")
}

func TestPartitionViewCloseIsIdempotentAndStopsDelivery(t *testing.T) {
	repo := newFakeStockRepository()
	svc := NewSyncViewService(testLogger(), repo)

	view, err := svc.OpenView(context.Background(), testCPF)
	require.NoError(t, err)
	<-view.Updates()

	view.Close()
	view.Close()

	// A late store notification must not panic on the closed channel.
	view.publish([]model.DailyStock{{Symbol: "PETR4", CPF: testCPF}})

	_, open := <-view.Updates()
	assert.False(t, open)
}

func TestPartitionViewDropsOldestWhenConsumerLags(t *testing.T) {
	view := &PartitionView{
		partitionKey: testCPF,
		updates:      make(chan []model.DailyStock, 2),
		unsubscribe:  func() {},
	}

	view.publish([]model.DailyStock{{Symbol: "AAAA4"}})
	view.publish([]model.DailyStock{{Symbol: "BBBB4"}})
	view.publish([]model.DailyStock{{Symbol: "CCCC4"}})

	first := <-view.Updates()
	second := <-view.Updates()
	assert.Equal(t, "BBBB4", first[0].Symbol)
	assert.Equal(t, "CCCC4", second[0].Symbol)
}
