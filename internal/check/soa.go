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

package check

import (
	"context"
	"fmt"
	"net"

	"github.com/miekg/dns"

	"github.com/zmap/mhost/internal/model"
	"github.com/zmap/mhost/internal/nameserver"
)

// checkSOA implements the SOA authority check from spec.md §4.6: resolve
// NS at the apex, resolve A/AAAA of each NS target, query SOA directly at
// each authoritative server using a synthetic ad-hoc pool tagged
// DiscoveredAuthoritative, then compare. Grounded on
// original_source/src/app/modules/check/lints/soa.rs's
// check_authoritative_servers/check_authoritative_records chain.
func checkSOA(ctx context.Context, rn *Runner, apex string) ([]Finding, error) {
	nsLookups, err := rn.run(ctx, rn.Servers, model.NewQueryBatch(model.NewQuery(apex, dns.TypeNS)))
	if err != nil {
		return nil, err
	}
	var nsTargets []string
	for _, rr := range nsLookups.Items[0].Records() {
		if d, ok := rr.Data.(model.NSData); ok {
			nsTargets = append(nsTargets, d.Target)
		}
	}
	if len(nsTargets) == 0 {
		return nil, errNoAuthority
	}

	addrBatch := model.NewQueryBatch()
	for _, ns := range nsTargets {
		addrBatch.Queries = append(addrBatch.Queries, model.NewQuery(ns, dns.TypeA), model.NewQuery(ns, dns.TypeAAAA))
	}
	addrLookups, err := rn.run(ctx, rn.Servers, addrBatch)
	if err != nil {
		return nil, err
	}

	var authoritative []model.NameServer
	for _, l := range addrLookups.Items {
		for _, rr := range l.Records() {
			var ip net.IP
			switch d := rr.Data.(type) {
			case model.AData:
				ip = net.ParseIP(d.Address)
			case model.AAAAData:
				ip = net.ParseIP(d.Address)
			}
			if ip != nil {
				authoritative = append(authoritative, model.NewNameServer(model.TransportUDP, ip, 53, "", l.Query.Name, model.OriginDiscoveredAuthoritative))
			}
		}
	}
	if len(authoritative) == 0 {
		return nil, errNoAuthority
	}

	adHocPool := nameserver.FromServers(authoritative)
	soaLookups, err := rn.run(ctx, adHocPool.Lookup(), model.NewQueryBatch(model.NewQuery(apex, dns.TypeSOA)))
	if err != nil {
		return nil, err
	}

	var findings []Finding
	serials := soaLookups.Items[0].SOASerials()
	if len(serials) > 1 {
		findings = append(findings, Finding{
			Lint: "soa", Verdict: VerdictFailed,
			Message: "SOA serial numbers diverge",
			Detail:  toIntKeyed(serials),
		})
	} else {
		findings = append(findings, Finding{Lint: "soa", Verdict: VerdictOK, Message: "SOA serial numbers agree across authoritative servers"})
	}

	if structural := structuralDivergence(soaLookups.Items[0]); structural {
		findings = append(findings, Finding{Lint: "soa", Verdict: VerdictFailed, Message: "SOA records structurally diverge (MNAME/RNAME/refresh/retry/expire/minimum)"})
	}

	// compare against the SOA seen from the default pool, if any.
	defaultLookups, err := rn.run(ctx, rn.Servers, model.NewQueryBatch(model.NewQuery(apex, dns.TypeSOA)))
	if err == nil && len(defaultLookups.Items) > 0 {
		defaultRecs := defaultLookups.Items[0].RecordsOfType("SOA")
		if len(defaultRecs) > 0 {
			if soa, ok := defaultRecs[0].Data.(model.SOAData); ok {
				if !seenAmongAuthoritative(soaLookups.Items[0], soa) {
					findings = append(findings, Finding{
						Lint: "soa", Verdict: VerdictWarning,
						Message: fmt.Sprintf("default pool's SOA (serial %d) not seen among authoritative servers", soa.Serial),
					})
				}
			}
		}
	}

	return findings, nil
}

func structuralDivergence(l *model.Lookup) bool {
	var first *model.SOAData
	for _, rr := range l.RecordsOfType("SOA") {
		soa, ok := rr.Data.(model.SOAData)
		if !ok {
			continue
		}
		if first == nil {
			first = &soa
			continue
		}
		if !first.StructurallyEqual(soa) {
			return true
		}
	}
	return false
}

func seenAmongAuthoritative(l *model.Lookup, target model.SOAData) bool {
	for _, rr := range l.RecordsOfType("SOA") {
		if soa, ok := rr.Data.(model.SOAData); ok && soa.Serial == target.Serial {
			return true
		}
	}
	return false
}

func toIntKeyed(m map[uint32]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[fmt.Sprintf("%d", k)] = v
	}
	return out
}
