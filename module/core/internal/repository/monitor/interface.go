package monitor

import (
	"context"

	"github.com/gmontoya2483/Shushme/module/core/domain"
)

// SubscriptionClient issues changes to the remote region-watch
// subscription. Each call must deliver exactly one Result on the returned
// channel and must not block the caller.
type SubscriptionClient interface {
	AddRegions(ctx context.Context, regions []domain.Region) <-chan domain.Result
	RemoveRegions(ctx context.Context, ids []string) <-chan domain.Result
}
