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

package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ResponseKind is the outcome variant of one (server, query) attempt.
// The set mirrors the Response variants of the data model exactly.
type ResponseKind string

const (
	KindRecords   ResponseKind = "Response"
	KindNxDomain  ResponseKind = "NxDomain"
	KindNoRecords ResponseKind = "NoRecords"
	KindTimeout   ResponseKind = "Timeout"
	KindError     ResponseKind = "Error"
)

// ErrorKind classifies the failure behind a KindError Response, for
// --show-errors counting without revealing individual error text.
type ErrorKind string

const (
	ErrorTransport ErrorKind = "transport"
	ErrorRefused   ErrorKind = "refused"
	ErrorServFail  ErrorKind = "servfail"
	ErrorParse     ErrorKind = "parse"
	ErrorTLS       ErrorKind = "tls"
	ErrorProtocol  ErrorKind = "protocol"
)

// Response is the terminal outcome of one (server, query) attempt. Only
// the fields relevant to Kind are populated; retries are internal to the
// single-server resolver, so a Response is always the final attempt.
type Response struct {
	Kind         ResponseKind
	Server       NameServer
	Query        Query
	Records      []ResourceRecord
	AuthoritySOA *SOAData
	ResponseTime time.Duration
	TTLMin       uint32
	After        time.Duration
	ErrorKind    ErrorKind
	Err          error

	// Arrival is a monotonic counter assigned by the engine at the moment
	// the Response was produced, used to order Responses deterministically
	// under a mock clock instead of wall time.
	Arrival uint64
}

func RecordsResponse(server NameServer, query Query, records []ResourceRecord, rt time.Duration) Response {
	var ttlMin uint32
	for i, r := range records {
		if i == 0 || r.TTL < ttlMin {
			ttlMin = r.TTL
		}
	}
	return Response{Kind: KindRecords, Server: server, Query: query, Records: records, ResponseTime: rt, TTLMin: ttlMin}
}

func NxDomainResponse(server NameServer, query Query, soa *SOAData, rt time.Duration) Response {
	return Response{Kind: KindNxDomain, Server: server, Query: query, AuthoritySOA: soa, ResponseTime: rt}
}

func NoRecordsResponse(server NameServer, query Query, rt time.Duration) Response {
	return Response{Kind: KindNoRecords, Server: server, Query: query, ResponseTime: rt}
}

func TimeoutResponse(server NameServer, query Query, after time.Duration) Response {
	return Response{Kind: KindTimeout, Server: server, Query: query, After: after}
}

func ErrorResponse(server NameServer, query Query, kind ErrorKind, err error) Response {
	return Response{Kind: KindError, Server: server, Query: query, ErrorKind: kind, Err: err}
}

// IsTerminalFailure reports whether this outcome should never be retried
// by the single-server resolver (NXDOMAIN, NoRecords, or a REFUSED error).
func (r Response) IsTerminalFailure() bool {
	if r.Kind == KindNxDomain || r.Kind == KindNoRecords {
		return true
	}
	return r.Kind == KindError && r.ErrorKind == ErrorRefused
}

func (r Response) MarshalJSON() ([]byte, error) {
	type wire struct {
		Response *struct {
			Records []ResourceRecord `json:"records"`
		} `json:"Response,omitempty"`
		NxDomain *struct {
			AuthoritySOA *SOAData `json:"authority_soa,omitempty"`
		} `json:"NxDomain,omitempty"`
		NoRecords *struct{} `json:"NoRecords,omitempty"`
		Timeout   *struct {
			After string `json:"after"`
		} `json:"Timeout,omitempty"`
		Error *struct {
			Kind string `json:"kind"`
		} `json:"Error,omitempty"`
	}
	var w wire
	switch r.Kind {
	case KindRecords:
		w.Response = &struct {
			Records []ResourceRecord `json:"records"`
		}{Records: r.Records}
	case KindNxDomain:
		w.NxDomain = &struct {
			AuthoritySOA *SOAData `json:"authority_soa,omitempty"`
		}{AuthoritySOA: r.AuthoritySOA}
	case KindNoRecords:
		w.NoRecords = &struct{}{}
	case KindTimeout:
		w.Timeout = &struct {
			After string `json:"after"`
		}{After: r.After.String()}
	case KindError:
		w.Error = &struct {
			Kind string `json:"kind"`
		}{Kind: string(r.ErrorKind)}
	default:
		return nil, fmt.Errorf("model: unknown response kind %q", r.Kind)
	}
	return json.Marshal(w)
}

// Lookup is all Responses gathered for one Query across the dispatched
// server set. The invariant that every dispatched server produces exactly
// one terminal Response is enforced by the engine, not by this type.
type Lookup struct {
	Query     Query
	Responses []Response
	// Settled is set once the engine will emit no further Responses for
	// this Query, either by completion or by abort.
	Settled bool
	// Aborted records whether this Lookup ended early via abort_on_error
	// or abort_on_timeout rather than full completion.
	Aborted bool
}

func NewLookup(q Query) *Lookup {
	return &Lookup{Query: q}
}

func (l *Lookup) Add(r Response) {
	l.Responses = append(l.Responses, r)
}

func (l *Lookup) Records() []ResourceRecord {
	var out []ResourceRecord
	for _, r := range l.Responses {
		if r.Kind == KindRecords {
			out = append(out, r.Records...)
		}
	}
	return out
}

func (l *Lookup) RecordsOfType(rrType string) []ResourceRecord {
	var out []ResourceRecord
	for _, r := range l.Records() {
		if r.Type == rrType {
			out = append(out, r)
		}
	}
	return out
}

// SOASerials returns a histogram of SOA serial -> count of authoritative
// servers reporting it, used by the SOA divergence check (S2).
func (l *Lookup) SOASerials() map[uint32]int {
	out := map[uint32]int{}
	for _, rr := range l.RecordsOfType("SOA") {
		if soa, ok := rr.Data.(SOAData); ok {
			out[soa.Serial]++
		}
	}
	return out
}

func (l *Lookup) ServersWithKind(kind ResponseKind) []NameServer {
	var out []NameServer
	for _, r := range l.Responses {
		if r.Kind == kind {
			out = append(out, r.Server)
		}
	}
	return out
}

func (l *Lookup) MinMaxRecordCount() (min, max int) {
	first := true
	for _, r := range l.Responses {
		if r.Kind != KindRecords {
			continue
		}
		n := len(r.Records)
		if first {
			min, max = n, n
			first = false
			continue
		}
		if n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}
	return
}

// Lookups is the ordered collection of Lookup, one per distinct Query in
// a batch, in planner order.
type Lookups struct {
	Items []*Lookup
}

func NewLookups() *Lookups {
	return &Lookups{}
}

func (ls *Lookups) Add(l *Lookup) {
	ls.Items = append(ls.Items, l)
}

func (ls *Lookups) Len() int {
	return len(ls.Items)
}

// Merge folds other's Lookups into ls, appending to an existing Lookup
// when the Query already exists (used by the Discover pipeline to fold
// each step's results into the running aggregate).
func (ls *Lookups) Merge(other *Lookups) {
	if other == nil {
		return
	}
	byQuery := make(map[Query]*Lookup, len(ls.Items))
	for _, l := range ls.Items {
		byQuery[l.Query] = l
	}
	for _, l := range other.Items {
		if existing, ok := byQuery[l.Query]; ok {
			existing.Responses = append(existing.Responses, l.Responses...)
			continue
		}
		ls.Add(l)
		byQuery[l.Query] = l
	}
}

type lookupWire struct {
	Query    Query      `json:"query"`
	Result   Response   `json:"result"`
	Server   NameServer `json:"-"`
}

// MarshalJSON renders one entry per Response, matching the schema in
// SPEC_FULL.md §8 / spec.md §6: {"lookups":[{"query":...,"result":...,"server":...}]}.
func (ls *Lookups) MarshalJSON() ([]byte, error) {
	type serverWire struct {
		Transport string `json:"transport"`
		Addr      string `json:"addr"`
		Port      uint16 `json:"port"`
	}
	type entry struct {
		Query  Query      `json:"query"`
		Result Response   `json:"result"`
		Server serverWire `json:"server"`
	}
	type envelope struct {
		Lookups []entry `json:"lookups"`
	}
	var env envelope
	for _, l := range ls.Items {
		for _, r := range l.Responses {
			env.Lookups = append(env.Lookups, entry{
				Query:  l.Query,
				Result: r,
				Server: serverWire{
					Transport: string(r.Server.Transport),
					Addr:      r.Server.IP.String(),
					Port:      r.Server.Port,
				},
			})
		}
	}
	return json.Marshal(env)
}
