package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gmontoya2483/Shushme/module/core/domain"
	"github.com/gmontoya2483/Shushme/module/core/internal/repository/monitor"
)

// removals are dispatched before additions so a re-added id waits behind its
// pending removal rather than racing it.
var kinds = [...]domain.OperationKind{domain.OperationRemove, domain.OperationAdd}

// Synchronizer keeps the remote region-watch subscription converging on the
// latest desired region list. It allows at most one in-flight call per
// operation kind; syncs arriving meanwhile are coalesced and re-evaluated
// against the current desired set when that call resolves.
//
// All state is guarded by a single mutex. Results from the
// SubscriptionClient arrive on their own goroutine and take the same lock.
type Synchronizer struct {
	client   monitor.SubscriptionClient
	reporter Reporter
	log      *zap.Logger
	now      func() time.Time
	newID    func() string

	mu       sync.Mutex
	regions  *RegionSet
	inFlight map[domain.OperationKind]*domain.PendingOperation
	queued   map[domain.OperationKind]bool
	closed   bool

	wg sync.WaitGroup
}

func NewSynchronizer(client monitor.SubscriptionClient, reporter Reporter, log *zap.Logger) *Synchronizer {
	if reporter == nil {
		reporter = MultiReporter{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Synchronizer{
		client:   client,
		reporter: reporter,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
		regions:  NewRegionSet(),
		inFlight: make(map[domain.OperationKind]*domain.PendingOperation),
		queued:   make(map[domain.OperationKind]bool),
	}
}

// Sync replaces the desired region list and issues whatever calls are needed
// to converge on it. It never blocks on the remote service; outcomes are
// delivered to the Reporter. Cancelling ctx does not cancel issued calls.
func (s *Synchronizer) Sync(ctx context.Context, regions []domain.Region) {
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.log.Warn("sync after close ignored", zap.Int("regions", len(regions)))
		return
	}
	diff := s.regions.SetDesired(regions)
	for _, kind := range kinds {
		if s.inFlight[kind] != nil {
			s.queued[kind] = true
			continue
		}
		s.evaluate(ctx, kind, diff)
	}
	desired, confirmed := len(s.regions.desired), len(s.regions.confirmed)
	s.mu.Unlock()

	for _, inv := range diff.Invalid {
		s.log.Warn("rejected region",
			zap.String("region_id", inv.Region.ID),
			zap.Error(inv.Err),
		)
		s.reporter.Report(ctx, &domain.Report{
			Kind:           domain.OperationAdd,
			RegionIDs:      []string{inv.Region.ID},
			Status:         domain.StatusFailed,
			Err:            inv.Err,
			Timestamp:      s.now(),
			DesiredCount:   desired,
			ConfirmedCount: confirmed,
		})
	}
}

// evaluate dispatches an idle kind and leaves it queued when it has to be
// looked at again once the other kind resolves: either ids were held back, or
// the other kind's outcome may still change what this kind must send. It
// must be called with mu held.
func (s *Synchronizer) evaluate(ctx context.Context, kind domain.OperationKind, diff domain.Diff) {
	busy := len(s.inFlight) > 0
	sent, blocked := s.dispatch(ctx, kind, diff)
	s.queued[kind] = blocked || (busy && !sent)
}

// dispatch issues the kind's share of diff, holding back ids that the other
// kind currently has in flight. It must be called with mu held.
func (s *Synchronizer) dispatch(ctx context.Context, kind domain.OperationKind, diff domain.Diff) (sent, blocked bool) {
	switch kind {
	case domain.OperationAdd:
		held := s.targets(domain.OperationRemove)
		var regions []domain.Region
		for _, r := range diff.ToAdd {
			if held[r.ID] {
				blocked = true
				continue
			}
			regions = append(regions, r)
		}
		if len(regions) == 0 {
			return false, blocked
		}
		s.issue(ctx, &domain.PendingOperation{
			Kind:      kind,
			TargetIDs: domain.RegionIDs(regions),
			Regions:   regions,
		})
	case domain.OperationRemove:
		held := s.targets(domain.OperationAdd)
		var ids []string
		for _, id := range diff.ToRemove {
			if held[id] {
				blocked = true
				continue
			}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			return false, blocked
		}
		s.issue(ctx, &domain.PendingOperation{
			Kind:      kind,
			TargetIDs: ids,
		})
	}
	return true, blocked
}

func (s *Synchronizer) targets(kind domain.OperationKind) map[string]bool {
	op := s.inFlight[kind]
	if op == nil {
		return nil
	}
	set := make(map[string]bool, len(op.TargetIDs))
	for _, id := range op.TargetIDs {
		set[id] = true
	}
	return set
}

func (s *Synchronizer) issue(ctx context.Context, op *domain.PendingOperation) {
	op.ID = s.newID()
	op.Status = domain.StatusInFlight
	op.IssuedAt = s.now()
	s.inFlight[op.Kind] = op

	s.log.Debug("issuing operation",
		zap.String("operation_id", op.ID),
		zap.String("kind", string(op.Kind)),
		zap.Strings("region_ids", op.TargetIDs),
	)

	var ch <-chan domain.Result
	switch op.Kind {
	case domain.OperationAdd:
		ch = s.client.AddRegions(ctx, op.Regions)
	case domain.OperationRemove:
		ch = s.client.RemoveRegions(ctx, op.TargetIDs)
	}

	s.wg.Add(1)
	go s.await(ctx, op, ch)
}

func (s *Synchronizer) await(ctx context.Context, op *domain.PendingOperation, ch <-chan domain.Result) {
	defer s.wg.Done()

	if ch == nil {
		s.complete(ctx, op, domain.Failure(fmt.Errorf("%w: no result channel", domain.ErrTransientFailure)))
		return
	}
	res, ok := <-ch
	if !ok {
		res = domain.Failure(fmt.Errorf("%w: result channel closed", domain.ErrTransientFailure))
	}
	s.complete(ctx, op, res)
}

func (s *Synchronizer) complete(ctx context.Context, op *domain.PendingOperation, res domain.Result) {
	s.mu.Lock()
	if s.inFlight[op.Kind] == op {
		delete(s.inFlight, op.Kind)
	}

	if res.OK() {
		op.Status = domain.StatusSucceeded
		switch op.Kind {
		case domain.OperationAdd:
			s.regions.MarkConfirmed(op.Regions, nil)
		case domain.OperationRemove:
			s.regions.MarkConfirmed(nil, op.TargetIDs)
		}
	} else {
		op.Status = domain.StatusFailed
	}

	report := &domain.Report{
		OperationID:    op.ID,
		Kind:           op.Kind,
		RegionIDs:      op.TargetIDs,
		Status:         op.Status,
		Err:            res.Err,
		Duration:       s.now().Sub(op.IssuedAt),
		Timestamp:      s.now(),
		DesiredCount:   len(s.regions.desired),
		ConfirmedCount: len(s.regions.confirmed),
	}

	diff := s.regions.Diff()
	for _, kind := range kinds {
		if s.inFlight[kind] != nil || !s.queued[kind] {
			continue
		}
		s.evaluate(ctx, kind, diff)
	}
	s.mu.Unlock()

	s.reporter.Report(ctx, report)
}

// State returns a snapshot of the desired, confirmed and in-flight state.
func (s *Synchronizer) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := domain.State{
		Desired:   s.regions.Desired(),
		Confirmed: s.regions.Confirmed(),
		InFlight:  []domain.PendingOperation{},
	}
	for _, kind := range kinds {
		if op := s.inFlight[kind]; op != nil {
			state.InFlight = append(state.InFlight, *op)
		}
	}
	return state
}

// RegionCounts returns the sizes of the desired and confirmed sets.
func (s *Synchronizer) RegionCounts() (desired, confirmed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.regions.desired), len(s.regions.confirmed)
}

// Match returns the confirmed regions whose circle contains the point.
func (s *Synchronizer) Match(lat, lon float64) []domain.Region {
	s.mu.Lock()
	confirmed := s.regions.Confirmed()
	s.mu.Unlock()

	return matchRegions(confirmed, lat, lon)
}

// Close stops accepting syncs. Calls already issued, and follow-ups they
// trigger on completion, still run; use Wait to drain them.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Wait blocks until every issued call has resolved and been handled, or ctx
// is done. Call Close first so no new sync starts a call while waiting.
func (s *Synchronizer) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
