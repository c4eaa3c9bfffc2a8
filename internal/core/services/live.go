package services

import (
	"context"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driven"
)

// Live runs query once and again after every committed transaction that
// touched one of tables, until ctx is done. The subscription is taken
// before the first run so no commit in between is missed. A slow reader
// sees the latest result; intermediate notifications are coalesced.
func Live[T any](
	ctx context.Context,
	notifier driven.Notifier,
	tables []string,
	query func(ctx context.Context) (T, error),
) <-chan domain.LiveResult[T] {
	sub := notifier.Subscribe(tables...)
	out := make(chan domain.LiveResult[T])

	go func() {
		defer close(out)
		defer sub.Cancel()
		for {
			value, err := query(ctx)
			select {
			case out <- domain.LiveResult[T]{Value: value, Err: err}:
			case <-ctx.Done():
				return
			}
			select {
			case <-sub.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
