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
	"regexp"
	"strings"

	"github.com/miekg/dns"

	"github.com/zmap/mhost/internal/model"
)

// spfPrefixRegexp is the same constant zdns's SPF lookup module uses
// (src/modules/spf/spf.go) to recognize a candidate SPF TXT record.
var spfPrefixRegexp = regexp.MustCompile(`(?i)^v=spf1`)

// checkSPF implements the SPF lint from spec.md §4.6: exactly one TXT
// record at the apex beginning with v=spf1, structurally parseable per
// RFC 7208; recursive include:/redirect= expansion is explicitly not
// performed here. Grounded on
// original_source/src/app/modules/check/lints/spf.rs.
func checkSPF(ctx context.Context, rn *Runner, apex string) ([]Finding, error) {
	lookups, err := rn.run(ctx, rn.Servers, model.NewQueryBatch(model.NewQuery(apex, dns.TypeTXT)))
	if err != nil {
		return nil, err
	}

	var spfRecords []string
	for _, rr := range lookups.Items[0].RecordsOfType("TXT") {
		if d, ok := rr.Data.(model.TXTData); ok && spfPrefixRegexp.MatchString(d.Value) {
			spfRecords = append(spfRecords, d.Value)
		}
	}

	switch len(spfRecords) {
	case 0:
		return []Finding{{Lint: "spf", Verdict: VerdictWarning, Message: "no SPF record found at apex (RFC 7208 §3.1.2)"}}, nil
	case 1:
		if err := parseSPF(spfRecords[0]); err != nil {
			return []Finding{{Lint: "spf", Verdict: VerdictFailed, Message: fmt.Sprintf("SPF record does not parse: %v", err)}}, nil
		}
		return []Finding{{Lint: "spf", Verdict: VerdictOK, Message: "one well-formed SPF record found"}}, nil
	default:
		return []Finding{{Lint: "spf", Verdict: VerdictFailed, Message: fmt.Sprintf("%d SPF records found at apex, RFC 7208 permits exactly one", len(spfRecords))}}, nil
	}
}

// parseSPF does a structural check of an SPF record's mechanisms,
// qualifiers, and modifiers per RFC 7208 §4 without following
// include:/redirect= (that expansion belongs to a full SPF evaluator,
// out of scope for this lint).
func parseSPF(record string) error {
	terms := strings.Fields(record)
	if len(terms) == 0 || !strings.EqualFold(terms[0], "v=spf1") {
		return fmt.Errorf("record does not begin with v=spf1")
	}
	for _, term := range terms[1:] {
		t := term
		if len(t) > 0 && strings.ContainsRune("+-~?", rune(t[0])) {
			t = t[1:]
		}
		if t == "" {
			return fmt.Errorf("empty term in SPF record")
		}
		name := t
		if idx := strings.IndexAny(t, ":="); idx >= 0 {
			name = t[:idx]
		}
		if !isKnownSPFTerm(strings.ToLower(name)) {
			return fmt.Errorf("unknown SPF mechanism or modifier %q", name)
		}
	}
	return nil
}

var knownSPFTerms = map[string]bool{
	"all": true, "include": true, "a": true, "mx": true, "ptr": true,
	"ip4": true, "ip6": true, "exists": true, "redirect": true, "exp": true,
}

func isKnownSPFTerm(name string) bool {
	return knownSPFTerms[name]
}
