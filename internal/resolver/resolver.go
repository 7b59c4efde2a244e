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

// Package resolver implements the Single-Server Resolver: a thin façade
// over the DNS client library bound to one NameServer descriptor,
// enforcing per-server retry, timeout, and in-flight request ceiling.
package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/pkg/errors"

	"github.com/zmap/mhost/internal/model"
)

// Client is the transport seam the engine dispatches queries through.
// *Resolver is the production implementation; tests substitute a mock, the
// way the teacher's LookupClient/MockLookupClient pair lets lookup_test.go
// drive zdns.Resolver's fan-out logic without live network I/O.
type Client interface {
	Query(ctx context.Context, q model.Query) model.Response
	Server() model.NameServer
}

var _ Client = (*Resolver)(nil)

// Resolver is bound to exactly one NameServer for its lifetime. It is
// safe for concurrent use; the K semaphore is internal.
type Resolver struct {
	server  model.NameServer
	budgets model.Budgets
	sem     chan struct{}

	mu      sync.Mutex
	tlsConn *dns.Conn // reused DoT connection, lazily established
}

func New(server model.NameServer, budgets model.Budgets) *Resolver {
	k := budgets.MaxConcurrentRequestsPerServer
	if k <= 0 {
		k = 1
	}
	return &Resolver{
		server:  server,
		budgets: budgets,
		sem:     make(chan struct{}, k),
	}
}

func (r *Resolver) Server() model.NameServer {
	return r.server
}

// Query performs one Query against r's server, obeying the K semaphore,
// the per-attempt timeout, and the retry budget. It always returns exactly
// one terminal Response; only the final attempt is visible to the caller,
// per the "retries are internal" open-question resolution (spec.md §9).
func (r *Resolver) Query(ctx context.Context, q model.Query) model.Response {
	select {
	case r.sem <- struct{}{}:
	case <-ctx.Done():
		return model.ErrorResponse(r.server, q, model.ErrorTransport, ctx.Err())
	}
	defer func() { <-r.sem }()

	var last model.Response
	for attempt := 0; attempt <= r.budgets.Retries; attempt++ {
		last = r.attempt(ctx, q)
		if last.IsTerminalFailure() {
			return last
		}
		if last.Kind == model.KindRecords || last.Kind == model.KindNoRecords {
			return last
		}
		// Timeout or a retryable Error: retry unless the batch context
		// is already gone or we're out of attempts.
		if ctx.Err() != nil {
			return last
		}
	}
	return last
}

func (r *Resolver) attempt(ctx context.Context, q model.Query) model.Response {
	attemptCtx, cancel := context.WithTimeout(ctx, r.budgets.Timeout)
	defer cancel()

	start := time.Now()
	var (
		msg *dns.Msg
		err error
	)
	switch r.server.Transport {
	case model.TransportUDP:
		msg, err = r.wireUDP(attemptCtx, q)
		if err == nil && msg != nil && msg.Truncated {
			msg, err = r.wireTCP(attemptCtx, q)
		}
	case model.TransportTCP:
		msg, err = r.wireTCP(attemptCtx, q)
	case model.TransportDoT:
		msg, err = r.wireDoT(attemptCtx, q)
	case model.TransportDoH:
		msg, err = r.wireDoH(attemptCtx, q)
	default:
		return model.ErrorResponse(r.server, q, model.ErrorProtocol, errors.Errorf("unknown transport %q", r.server.Transport))
	}
	elapsed := time.Since(start)

	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded {
			return model.TimeoutResponse(r.server, q, elapsed)
		}
		return model.ErrorResponse(r.server, q, classifyError(err), err)
	}
	return classifyMessage(r.server, q, msg, elapsed)
}

func classifyError(err error) model.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.ErrorTransport
	}
	return model.ErrorTransport
}

func classifyMessage(server model.NameServer, q model.Query, msg *dns.Msg, elapsed time.Duration) model.Response {
	switch msg.Rcode {
	case dns.RcodeSuccess:
		if len(msg.Answer) == 0 {
			return model.NoRecordsResponse(server, q, elapsed)
		}
		return model.RecordsResponse(server, q, ConvertRecords(msg.Answer), elapsed)
	case dns.RcodeNameError:
		return model.NxDomainResponse(server, q, extractSOA(msg.Ns), elapsed)
	case dns.RcodeRefused:
		return model.ErrorResponse(server, q, model.ErrorRefused, errors.New("query refused"))
	case dns.RcodeServerFailure:
		return model.ErrorResponse(server, q, model.ErrorServFail, errors.New("server failure"))
	default:
		return model.ErrorResponse(server, q, model.ErrorProtocol, errors.Errorf("rcode %s", dns.RcodeToString[msg.Rcode]))
	}
}

func extractSOA(rrs []dns.RR) *model.SOAData {
	for _, rr := range rrs {
		if soa, ok := rr.(*dns.SOA); ok {
			return &model.SOAData{
				MName: soa.Ns, RName: soa.Mbox, Serial: soa.Serial,
				Refresh: soa.Refresh, Retry: soa.Retry, Expire: soa.Expire, Minimum: soa.Minttl,
			}
		}
	}
	return nil
}

func buildMsg(q model.Query) *dns.Msg {
	m := new(dns.Msg)
	m.SetQuestion(q.Name, q.Type)
	m.Question[0].Qclass = q.Class
	m.RecursionDesired = true
	m.SetEdns0(1232, false)
	return m
}
