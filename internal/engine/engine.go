/*
 * mhost Copyright 2026 The mhost Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you may not
 * use this file except in compliance with the License. You may obtain a copy
 * of the License at http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
 * implied. See the License for the specific language governing
 * permissions and limitations under the License.
 */

// Package engine implements the Multi-Resolver Engine, the hard core of
// mhost: it dispatches a QueryBatch across a pool of name servers under a
// dual concurrency budget, streams results as they land, and folds them
// into a Lookups aggregate once the batch settles.
//
// The engine owns no process-global state; pool, budgets, and the event
// sink are explicit parameters on every call, so Discover and Check can
// re-enter it freely (spec.md §9, "pipeline recursion").
package engine

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/zmap/mhost/internal/model"
	"github.com/zmap/mhost/internal/resolver"
)

// ErrEmptyPool is returned when the pool has no member usable for the
// requested resolvers mode.
var ErrEmptyPool = errors.New("mhost: name server pool is empty for this batch")

// Engine runs QueryBatches. It carries no mutable state of its own beyond
// an injectable RNG (for uni mode) and a client factory, so tests can seed
// the RNG deterministically and substitute a mock transport.
type Engine struct {
	rand      *rand.Rand
	newClient func(model.NameServer, model.Budgets) resolver.Client
}

// New returns an Engine whose uni-mode server assignment is deterministic
// given seed. Production callers that don't care about reproducibility
// can pass any fixed seed; nothing about correctness depends on it.
func New(seed int64) *Engine {
	return &Engine{
		rand:      rand.New(rand.NewSource(seed)),
		newClient: func(s model.NameServer, b model.Budgets) resolver.Client { return resolver.New(s, b) },
	}
}

// serverGate tracks how many (query,server) jobs are currently using one
// server, so the engine can hold exactly one of the M global slots per
// distinct active server regardless of how many of its K per-server
// slots are in use (spec.md §4.3's two-semaphore dispatch discipline).
type serverGate struct {
	server   model.NameServer
	resolver resolver.Client
	refCount int32
}

// Run dispatches batch across pool under budgets, emitting Events on
// events (which may be nil to discard the stream), and returns the
// settled Lookups aggregate.
func (e *Engine) Run(ctx context.Context, batch model.QueryBatch, servers []model.NameServer, budgets model.Budgets, events chan<- Event) (*model.Lookups, error) {
	if len(servers) == 0 {
		return nil, ErrEmptyPool
	}
	sorted := append([]model.NameServer{}, servers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key() < sorted[j].Key() })

	gates := make(map[string]*serverGate, len(sorted))
	for _, s := range sorted {
		gates[s.Key()] = &serverGate{server: s, resolver: e.newClient(s, budgets)}
	}

	globalSem := make(chan struct{}, max1(budgets.MaxConcurrentServers))
	var arrival uint64

	emit := func(ev Event) {
		if events != nil {
			events <- ev
		}
	}

	emit(Event{Kind: EventQueryDispatched, QueryDispatched: &QueryDispatchedPayload{
		Count:       len(batch.Queries) * targetCount(budgets, len(sorted)),
		ServerCount: len(sorted),
		TypeCount:   countDistinctTypes(batch.Queries),
		NameCount:   countDistinctNames(batch.Queries),
	}})

	results := make([]*model.Lookup, len(batch.Queries))
	var wgQueries sync.WaitGroup
	for qi, q := range batch.Queries {
		qi, q := qi, q
		// Targets are chosen here, in query order, so the shared RNG is
		// never used concurrently and uni mode stays reproducible.
		targets := e.selectTargets(q, sorted, budgets)
		wgQueries.Add(1)
		go func() {
			defer wgQueries.Done()
			results[qi] = e.runQuery(ctx, q, targets, gates, globalSem, budgets, &arrival, emit)
		}()
	}
	wgQueries.Wait()

	aggregate := model.NewLookups()
	for _, l := range results {
		aggregate.Add(l)
	}
	emit(Event{Kind: EventBatchSettled, BatchSettled: aggregate})
	return aggregate, nil
}

func (e *Engine) runQuery(
	ctx context.Context,
	q model.Query,
	targets []model.NameServer,
	gates map[string]*serverGate,
	globalSem chan struct{},
	budgets model.Budgets,
	arrival *uint64,
	emit func(Event),
) *model.Lookup {
	lookup := model.NewLookup(q)

	queryCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var mu sync.Mutex
	var wg sync.WaitGroup
	var aborted int32
	settled := false // guarded by mu; once true, further responses are dropped rather than added

	for _, server := range targets {
		server := server
		gate := gates[server.Key()]
		wg.Add(1)
		go func() {
			defer wg.Done()

			n := atomic.AddInt32(&gate.refCount, 1)
			acquired := false
			if n == 1 {
				select {
				case globalSem <- struct{}{}:
					acquired = true
				case <-queryCtx.Done():
				}
			}
			defer func() {
				last := atomic.AddInt32(&gate.refCount, -1) == 0
				if acquired && last {
					<-globalSem
				}
			}()

			if queryCtx.Err() != nil {
				return
			}

			resp := gate.resolver.Query(queryCtx, q)

			mu.Lock()
			if settled {
				// The query already settled without this server (default
				// mode, wait_multiple_responses=false); drop the late
				// response instead of adding it to the aggregate.
				mu.Unlock()
				return
			}
			resp.Arrival = atomic.AddUint64(arrival, 1)
			lookup.Add(resp)
			settleNow := !budgets.WaitMultipleResponses
			if settleNow {
				settled = true
			}
			mu.Unlock()

			emit(Event{Kind: EventResponseReceived, ResponseReceived: &resp})

			if shouldAbort(resp, budgets) && atomic.CompareAndSwapInt32(&aborted, 0, 1) {
				logrus.WithFields(logrus.Fields{"query": q.String(), "server": server.String(), "kind": resp.Kind}).
					Debug("aborting remaining servers for query")
				mu.Lock()
				lookup.Aborted = true
				settled = true
				mu.Unlock()
				cancel()
				return
			}

			if settleNow {
				// wait_multiple_responses is off: the first terminal
				// response is enough to consider the query answered.
				// Cancel the rest rather than let them run to their own
				// timeout for nothing.
				cancel()
			}
		}()
	}
	wg.Wait()

	sortByArrival(lookup)
	lookup.Settled = true
	emit(Event{Kind: EventQuerySettled, QuerySettled: lookup})
	return lookup
}

func (e *Engine) selectTargets(q model.Query, servers []model.NameServer, budgets model.Budgets) []model.NameServer {
	if budgets.ResolversMode == model.ModeUni {
		return []model.NameServer{servers[e.rand.Intn(len(servers))]}
	}
	return servers
}

func shouldAbort(r model.Response, budgets model.Budgets) bool {
	if budgets.AbortOnError && r.Kind == model.KindError {
		return true
	}
	if budgets.AbortOnTimeout && r.Kind == model.KindTimeout {
		return true
	}
	return false
}

func sortByArrival(l *model.Lookup) {
	sort.SliceStable(l.Responses, func(i, j int) bool {
		return l.Responses[i].Arrival < l.Responses[j].Arrival
	})
}

func targetCount(budgets model.Budgets, poolSize int) int {
	if budgets.ResolversMode == model.ModeUni {
		return 1
	}
	return poolSize
}

func countDistinctTypes(qs []model.Query) int {
	seen := map[uint16]bool{}
	for _, q := range qs {
		seen[q.Type] = true
	}
	return len(seen)
}

func countDistinctNames(qs []model.Query) int {
	seen := map[string]bool{}
	for _, q := range qs {
		seen[q.Name] = true
	}
	return len(seen)
}

func max1(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}
