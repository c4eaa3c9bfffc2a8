package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
)

const liveWait = 2 * time.Second

func receive[T any](t *testing.T, ch <-chan domain.LiveResult[T]) domain.LiveResult[T] {
	t.Helper()
	select {
	case r, ok := <-ch:
		require.True(t, ok, "channel closed")
		return r
	case <-time.After(liveWait):
		t.Fatal("timed out waiting for a live result")
	}
	return domain.LiveResult[T]{}
}

func TestLive_RerunsOnWatchedTables(t *testing.T) {
	store := newTestStore(t)
	notifier := store.Notifier()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int64
	ch := Live(ctx, notifier, []string{driven.TableApp}, func(context.Context) (int64, error) {
		return runs.Add(1), nil
	})

	assert.Equal(t, int64(1), receive(t, ch).Value)

	notifier.Publish(driven.TableApp)
	assert.Equal(t, int64(2), receive(t, ch).Value)

	notifier.Publish(driven.TableRepository)
	select {
	case r := <-ch:
		t.Fatalf("unexpected emission %v for an unwatched table", r.Value)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLive_ReportsQueryErrors(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := Live(ctx, store.Notifier(), nil, func(context.Context) (string, error) {
		return "", errors.New("query failed")
	})

	r := receive(t, ch)
	assert.EqualError(t, r.Err, "query failed")
}

func TestLive_ClosesOnCancel(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch := Live(ctx, store.Notifier(), []string{driven.TableApp}, func(context.Context) (int, error) {
		return 1, nil
	})
	receive(t, ch)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(liveWait):
		t.Fatal("channel not closed after cancel")
	}
}

func TestLive_CommittedTransaction(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repos := NewRepositoryService(store, store.RepositoryStore(), store.AppStore())

	ch := Live(ctx, store.Notifier(), []string{driven.TableRepository}, repos.List)
	assert.Empty(t, receive(t, ch).Value)

	_, err := repos.Add(context.Background(), domain.NewRepository{Address: "https://a.org/repo"})
	require.NoError(t, err)

	r := receive(t, ch)
	require.NoError(t, r.Err)
	assert.Len(t, r.Value, 1)
}
