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

// Package planner implements the Query Planner: turning a user-supplied
// name, IP, CIDR, or service spec into a normalized, deterministic
// QueryBatch, applying FQDN qualification and reverse-lookup expansion.
package planner

import (
	"net"
	"strings"

	"github.com/miekg/dns"
	"github.com/pkg/errors"

	"github.com/zmap/mhost/internal/model"
)

// DefaultTypes is the record-type set used when the caller specifies none.
var DefaultTypes = []uint16{dns.TypeA, dns.TypeAAAA, dns.TypeCNAME, dns.TypeMX}

// AllTypes backs --all: every RR type mhost's ResourceRecord model covers.
var AllTypes = []uint16{
	dns.TypeA, dns.TypeAAAA, dns.TypeANAME, dns.TypeCNAME, dns.TypeMX,
	dns.TypeNS, dns.TypePTR, dns.TypeSOA, dns.TypeSRV, dns.TypeTXT,
	dns.TypeNULL, dns.TypeCAA,
}

// Options configures Plan; it is the planner-facing projection of the
// relevant global CLI flags (ndots, search domain, record types, limit).
type Options struct {
	Ndots        int
	SearchDomain string
	Types        []uint16
	Limit        int
}

// Plan turns target into a QueryBatch. target may be a hostname, a
// bare IP (reverse lookup), a CIDR (reverse lookup per host address), or
// a service spec (name[:proto]:domain).
func Plan(target string, opts Options) (model.QueryBatch, error) {
	if spec, ok := parseServiceSpec(target); ok {
		return model.NewQueryBatch(model.NewQuery(spec, dns.TypeSRV)), nil
	}

	if _, ipnet, err := net.ParseCIDR(target); err == nil {
		return planCIDR(ipnet, opts.Limit)
	}

	if ip := net.ParseIP(target); ip != nil {
		name, err := dns.ReverseAddr(ip.String())
		if err != nil {
			return model.QueryBatch{}, errors.Wrapf(err, "planning reverse lookup for %s", target)
		}
		return model.NewQueryBatch(model.NewQuery(name, dns.TypePTR)), nil
	}

	name := Qualify(target, opts.Ndots, opts.SearchDomain)
	types := opts.Types
	if len(types) == 0 {
		types = DefaultTypes
	}
	queries := make([]model.Query, 0, len(types))
	for _, t := range types {
		queries = append(queries, model.NewQuery(name, t))
	}
	return model.NewQueryBatch(queries...), nil
}

// Qualify applies the ndots/search-domain rule from spec.md §4.4.1: a
// name with strictly fewer than ndots interior dots gets the search
// domain appended, then is terminated with the root label. Already-FQDN
// input (trailing dot) is left alone, which is what makes plan(plan(x))
// idempotent (invariant 3).
func Qualify(name string, ndots int, searchDomain string) string {
	if dns.IsFqdn(name) {
		return name
	}
	if searchDomain != "" && strings.Count(name, ".") < ndots {
		name = name + "." + strings.TrimSuffix(searchDomain, ".")
	}
	return dns.Fqdn(name)
}

func planCIDR(ipnet *net.IPNet, limit int) (model.QueryBatch, error) {
	var queries []model.Query
	for ip := cloneIP(ipnet.IP.Mask(ipnet.Mask)); ipnet.Contains(ip); incIP(ip) {
		name, err := dns.ReverseAddr(ip.String())
		if err != nil {
			return model.QueryBatch{}, errors.Wrapf(err, "planning reverse lookup for %s", ip)
		}
		queries = append(queries, model.NewQuery(name, dns.TypePTR))
		if limit > 0 && len(queries) >= limit {
			break
		}
	}
	return model.NewQueryBatch(queries...), nil
}

func cloneIP(ip net.IP) net.IP {
	out := make(net.IP, len(ip))
	copy(out, ip)
	return out
}

func incIP(ip net.IP) {
	for i := len(ip) - 1; i >= 0; i-- {
		ip[i]++
		if ip[i] != 0 {
			return
		}
	}
}

// parseServiceSpec recognizes the SPEC_FULL.md §6 service grammar:
// name[:proto]:domain or name::domain (proto defaults to tcp), yielding
// _name._proto.domain.
func parseServiceSpec(target string) (string, bool) {
	parts := strings.Split(target, ":")
	if len(parts) != 3 {
		return "", false
	}
	name, proto, domain := parts[0], parts[1], parts[2]
	if name == "" || domain == "" {
		return "", false
	}
	if proto == "" {
		proto = "tcp"
	}
	return dns.Fqdn("_" + name + "._" + proto + "." + strings.TrimSuffix(domain, ".")), true
}
