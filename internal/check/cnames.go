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

	"github.com/miekg/dns"

	"github.com/zmap/mhost/internal/model"
)

// checkCNAMEs implements the CNAME placement lint from spec.md §4.6:
// no CNAME at the apex, no MX/SRV target is a CNAME, no CNAME chases
// another CNAME. Grounded on
// original_source/src/app/modules/check/lints/cnames.rs's record_lint!
// macro pattern, one sub-query per rule.
func checkCNAMEs(ctx context.Context, rn *Runner, apex string) ([]Finding, error) {
	batch := model.NewQueryBatch(
		model.NewQuery(apex, dns.TypeCNAME),
		model.NewQuery(apex, dns.TypeMX),
		model.NewQuery(apex, dns.TypeSRV),
	)
	lookups, err := rn.run(ctx, rn.Servers, batch)
	if err != nil {
		return nil, err
	}

	var findings []Finding

	apexCNAME := lookups.Items[0].RecordsOfType("CNAME")
	if len(apexCNAME) > 0 {
		findings = append(findings, Finding{Lint: "cnames", Verdict: VerdictFailed, Message: "apex has a CNAME record (RFC 1034 §3.6.2 violation)"})
	} else {
		findings = append(findings, Finding{Lint: "cnames", Verdict: VerdictOK, Message: "no CNAME at apex"})
	}

	cnameTargets := targetsOf(lookups.Items[0], func(rr model.ResourceRecord) (string, bool) {
		d, ok := rr.Data.(model.CNAMEData)
		return d.Target, ok
	})
	if chained := checkTargetsNotCNAME(ctx, rn, cnameTargets); len(chained) > 0 {
		findings = append(findings, Finding{Lint: "cnames", Verdict: VerdictWarning, Message: fmt.Sprintf("CNAME points to another CNAME: %v (RFC 1034 §3.6.2)", chained)})
	} else if len(cnameTargets) > 0 {
		findings = append(findings, Finding{Lint: "cnames", Verdict: VerdictOK, Message: "no CNAME chases another CNAME"})
	}

	mxTargets := targetsOf(lookups.Items[1], func(rr model.ResourceRecord) (string, bool) {
		d, ok := rr.Data.(model.MXData)
		return d.Exchange, ok
	})
	if bad := checkTargetsNotCNAME(ctx, rn, mxTargets); len(bad) > 0 {
		findings = append(findings, Finding{Lint: "cnames", Verdict: VerdictFailed, Message: fmt.Sprintf("MX target(s) point to a CNAME: %v", bad)})
	} else if len(mxTargets) > 0 {
		findings = append(findings, Finding{Lint: "cnames", Verdict: VerdictOK, Message: "no MX target is a CNAME"})
	}

	srvTargets := targetsOf(lookups.Items[2], func(rr model.ResourceRecord) (string, bool) {
		d, ok := rr.Data.(model.SRVData)
		return d.Target, ok
	})
	if bad := checkTargetsNotCNAME(ctx, rn, srvTargets); len(bad) > 0 {
		findings = append(findings, Finding{Lint: "cnames", Verdict: VerdictFailed, Message: fmt.Sprintf("SRV target(s) point to a CNAME: %v", bad)})
	} else if len(srvTargets) > 0 {
		findings = append(findings, Finding{Lint: "cnames", Verdict: VerdictOK, Message: "no SRV target is a CNAME"})
	}

	return findings, nil
}

func targetsOf(l *model.Lookup, extract func(model.ResourceRecord) (string, bool)) []string {
	var out []string
	for _, rr := range l.Records() {
		if v, ok := extract(rr); ok {
			out = append(out, v)
		}
	}
	return out
}

func checkTargetsNotCNAME(ctx context.Context, rn *Runner, targets []string) []string {
	var bad []string
	for _, t := range targets {
		batch := model.NewQueryBatch(model.NewQuery(t, dns.TypeCNAME))
		lookups, err := rn.run(ctx, rn.Servers, batch)
		if err != nil {
			continue
		}
		if len(lookups.Items[0].RecordsOfType("CNAME")) > 0 {
			bad = append(bad, t)
		}
	}
	return bad
}
