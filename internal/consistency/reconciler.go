package consistency

import (
	"sync"

	"tradecore/pkg/types"
)

// Update is an incoming, possibly-stale, possibly-duplicated snapshot
// from the venue: a new execution/cancellation view and/or a trade to
// ingest.
type Update struct {
	Execution    *types.Execution
	Cancellation *types.CancellationStatus
	Trade        *types.Trade
	Market       types.Market
}

// Index is the reconciler's order store: a concurrency-safe map of order
// id to *types.Order, guarded by an RWMutex so reads (status lookups,
// divergence scans) don't block each other.
type Index struct {
	mu     sync.RWMutex
	orders map[string]*types.Order
}

// NewIndex builds an empty order index.
func NewIndex() *Index {
	return &Index{orders: make(map[string]*types.Order)}
}

// Put registers or replaces an order.
func (idx *Index) Put(o *types.Order) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if o.IngestedTradeIDs == nil {
		o.IngestedTradeIDs = make(map[string]struct{})
	}
	idx.orders[o.ID] = o
}

// Get returns a defensive copy of the order, never a shared pointer.
func (idx *Index) Get(id string) (*types.Order, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	o, ok := idx.orders[id]
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}

// Remove deletes the order.
func (idx *Index) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.orders, id)
}

// Reconcile applies Update u to the order identified by id:
//  1. a not-yet-seen trade is ingested into local execution;
//  2. a forward remote execution snapshot replaces the stored one;
//  3. the remote status is adopted locally only when its size agrees with
//     the local size and the transition is legal;
//  4. a forward cancellation update is adopted.
func (idx *Index) Reconcile(id string, u Update) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	o, ok := idx.orders[id]
	if !ok {
		return nil
	}

	if u.Trade != nil {
		if _, seen := o.IngestedTradeIDs[u.Trade.ID]; !seen {
			if err := IngestTrade(o, u.Market, *u.Trade); err != nil {
				return err
			}
			o.IngestedTradeIDs[u.Trade.ID] = struct{}{}
		}
	}

	if u.Execution != nil {
		if o.RemoteExecution == nil || ForwardEquivalent(*o.RemoteExecution, *u.Execution) {
			remote := *u.Execution
			o.RemoteExecution = &remote
		}
		if o.RemoteExecution != nil &&
			o.RemoteExecution.FilledSize.Equal(o.Execution.FilledSize) &&
			LegalExecutionTransition(o.Execution.Status, o.RemoteExecution.Status) {
			o.Execution.Status = o.RemoteExecution.Status
		}
	}

	if u.Cancellation != nil {
		var from *types.CancellationStatus
		if o.Cancellation != nil {
			from = &o.Cancellation.Status
		}
		if LegalCancellationTransition(from, *u.Cancellation) {
			o.Cancellation = &types.Cancellation{Status: *u.Cancellation}
		}
	}

	return nil
}

// OutOfSyncOrders returns every order whose remote_execution indicates a
// missing trade (remote filled size greater than local) or a divergent
// view, so the caller can trigger a refetch from the venue.
func (idx *Index) OutOfSyncOrders() []*types.Order {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []*types.Order
	for _, o := range idx.orders {
		if o.RemoteExecution == nil {
			continue
		}
		if o.RemoteExecution.FilledSize.GreaterThan(o.Execution.FilledSize) {
			out = append(out, o.Clone())
			continue
		}
		if Diverged(o.Execution, *o.RemoteExecution) {
			out = append(out, o.Clone())
		}
	}
	return out
}
