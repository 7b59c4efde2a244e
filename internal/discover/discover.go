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

// Package discover implements the Discover Pipeline: a multi-step walk
// that feeds its own outputs back through the engine to find wildcard
// behavior, authority topology, and well-known or wordlist-derived names
// under a target apex.
package discover

import (
	"context"
	"crypto/rand"
	"math/big"
	"os"
	"strings"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/zmap/mhost/internal/engine"
	"github.com/zmap/mhost/internal/model"
)

// wellKnownLabels backs step 3 of the pipeline: a built-in list of common
// hostnames plus SRV service prefixes, per spec.md §4.5.
var wellKnownLabels = []string{
	"www", "mail", "ftp", "api", "smtp", "pop", "imap", "webmail", "ns1", "ns2",
	"vpn", "admin", "portal", "dev", "staging", "test", "cdn", "static", "blog",
	"_smtp._tcp", "_http._tcp", "_sip._tcp", "_xmpp-client._tcp", "_caldav._tcp",
}

type Options struct {
	Apex                string
	RandNamesNumber     int
	RandNamesLen        int
	WordlistFromFile    string
	SubdomainsOnly      bool
	ShowPartialResults  bool
	ShowIntermediate    bool
}

// Result is the outcome of a full Discover run.
type Result struct {
	Lookups         *model.Lookups
	Wildcarded      bool
	WildcardTargets map[string]bool // A/AAAA rdata seen from the random-label probe
	DiscoveredNames []string
	// SuspiciousNames holds names whose only A/AAAA hits resolve to a
	// WildcardTargets address: the zone answers everything under it, so
	// these are wildcard artifacts rather than real discoveries.
	SuspiciousNames []string
	Partials        []*model.Lookups // populated when Options.ShowPartialResults
}

// Runner executes each pipeline step against the engine. It is
// constructed once per Discover invocation with the pool/budgets/events
// already bound, matching the engine's re-entrancy requirement.
type Runner struct {
	Engine  *engine.Engine
	Servers []model.NameServer
	Budgets model.Budgets
	Events  chan<- engine.Event
}

func (rn *Runner) run(ctx context.Context, batch model.QueryBatch) (*model.Lookups, error) {
	return rn.Engine.Run(ctx, batch, rn.Servers, rn.Budgets, rn.Events)
}

// Run executes the five discover steps in order, folding each into the
// aggregate and optionally recording partial snapshots.
func Run(ctx context.Context, rn *Runner, opts Options) (*Result, error) {
	apex := dns.Fqdn(opts.Apex)
	res := &Result{Lookups: model.NewLookups(), WildcardTargets: map[string]bool{}}

	// Step 1: wildcard detection.
	wildcardBatch, err := randomLabelBatch(apex, opts.RandNamesNumber, opts.RandNamesLen)
	if err != nil {
		return nil, errors.Wrap(err, "generating wildcard probe names")
	}
	wildcardLookups, err := rn.run(ctx, wildcardBatch)
	if err != nil {
		return nil, errors.Wrap(err, "wildcard detection step")
	}
	for _, l := range wildcardLookups.Items {
		recs := append(l.RecordsOfType("A"), l.RecordsOfType("AAAA")...)
		if len(recs) > 0 {
			res.Wildcarded = true
			for _, r := range recs {
				res.WildcardTargets[rdataString(r)] = true
			}
		}
	}
	res.Lookups.Merge(wildcardLookups)
	recordPartial(res, opts, wildcardLookups)

	// Step 2: authority enumeration at the apex.
	authorityBatch := model.NewQueryBatch(
		model.NewQuery(apex, dns.TypeNS), model.NewQuery(apex, dns.TypeMX),
		model.NewQuery(apex, dns.TypeSOA), model.NewQuery(apex, dns.TypeTXT),
		model.NewQuery(apex, dns.TypeCNAME), model.NewQuery(apex, dns.TypeSRV),
		model.NewQuery(apex, dns.TypeCAA),
	)
	authorityLookups, err := rn.run(ctx, authorityBatch)
	if err != nil {
		return nil, errors.Wrap(err, "authority enumeration step")
	}
	res.Lookups.Merge(authorityLookups)
	recordPartial(res, opts, authorityLookups)
	discovered := extractNames(authorityLookups)

	// Step 3: well-known labels.
	wellKnownBatch := labelsToBatch(apex, wellKnownLabels)
	wellKnownLookups, err := rn.run(ctx, wellKnownBatch)
	if err != nil {
		return nil, errors.Wrap(err, "well-known label step")
	}
	res.Lookups.Merge(wellKnownLookups)
	recordPartial(res, opts, wellKnownLookups)
	hits, suspicious := classifyHits(wellKnownLookups, res.WildcardTargets)
	discovered = append(discovered, hits...)
	res.SuspiciousNames = append(res.SuspiciousNames, suspicious...)

	// Step 4: wordlist expansion.
	if opts.WordlistFromFile != "" {
		words, err := readWordlist(opts.WordlistFromFile)
		if err != nil {
			return nil, errors.Wrapf(err, "reading wordlist %q", opts.WordlistFromFile)
		}
		wordlistBatch := labelsToBatch(apex, words)
		wordlistLookups, err := rn.run(ctx, wordlistBatch)
		if err != nil {
			return nil, errors.Wrap(err, "wordlist expansion step")
		}
		res.Lookups.Merge(wordlistLookups)
		recordPartial(res, opts, wordlistLookups)
		hits, suspicious := classifyHits(wordlistLookups, res.WildcardTargets)
		discovered = append(discovered, hits...)
		res.SuspiciousNames = append(res.SuspiciousNames, suspicious...)
	}

	// Step 5: subdomain filtering.
	discovered = dedupeStrings(discovered)
	if opts.SubdomainsOnly {
		discovered = filterSubdomains(discovered, apex)
	}
	res.DiscoveredNames = discovered
	res.SuspiciousNames = dedupeStrings(res.SuspiciousNames)

	logrus.WithFields(logrus.Fields{
		"apex": apex, "wildcarded": res.Wildcarded,
		"discovered": len(discovered), "suspicious": len(res.SuspiciousNames),
	}).Debug("discover pipeline complete")

	return res, nil
}

func recordPartial(res *Result, opts Options, step *model.Lookups) {
	if opts.ShowPartialResults {
		res.Partials = append(res.Partials, step)
	}
}

func randomLabelBatch(apex string, n, length int) (model.QueryBatch, error) {
	if n <= 0 {
		n = 3
	}
	if length <= 0 {
		length = 12
	}
	queries := make([]model.Query, 0, n*2)
	for i := 0; i < n; i++ {
		label, err := randomLabel(length)
		if err != nil {
			return model.QueryBatch{}, err
		}
		name := label + "." + apex
		queries = append(queries, model.NewQuery(name, dns.TypeA), model.NewQuery(name, dns.TypeAAAA))
	}
	return model.NewQueryBatch(queries...), nil
}

const alphanum = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomLabel(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphanum))))
		if err != nil {
			return "", err
		}
		b[i] = alphanum[n.Int64()]
	}
	return string(b), nil
}

func labelsToBatch(apex string, labels []string) model.QueryBatch {
	queries := make([]model.Query, 0, len(labels))
	for _, label := range labels {
		name := label + "." + apex
		queries = append(queries, model.NewQuery(name, dns.TypeA))
	}
	return model.NewQueryBatch(queries...)
}

// classifyHits splits lookups with at least one record into real hits and
// suspicious ones: a name whose A/AAAA answers all resolve to an address
// already seen from the wildcard probe (step 1) is a wildcard artifact,
// not a discovery, per spec.md §4.5 step 1.
func classifyHits(lookups *model.Lookups, wildcardTargets map[string]bool) (hits, suspicious []string) {
	for _, l := range lookups.Items {
		recs := l.Records()
		if len(recs) == 0 {
			continue
		}
		name := strings.TrimSuffix(l.Query.Name, ".")
		if allWildcardMatches(recs, wildcardTargets) {
			suspicious = append(suspicious, name)
		} else {
			hits = append(hits, name)
		}
	}
	return hits, suspicious
}

func allWildcardMatches(recs []model.ResourceRecord, wildcardTargets map[string]bool) bool {
	if len(wildcardTargets) == 0 {
		return false
	}
	for _, r := range recs {
		if !wildcardTargets[rdataString(r)] {
			return false
		}
	}
	return true
}

// extractNames pulls every name mentioned in the apex's authority
// records: NS targets, MX exchange, CNAME target, SRV target, SOA
// MNAME/RNAME, per spec.md §4.5 step 2.
func extractNames(lookups *model.Lookups) []string {
	var names []string
	for _, l := range lookups.Items {
		for _, rr := range l.Records() {
			switch d := rr.Data.(type) {
			case model.NSData:
				names = append(names, d.Target)
			case model.MXData:
				names = append(names, d.Exchange)
			case model.CNAMEData:
				names = append(names, d.Target)
			case model.SRVData:
				names = append(names, d.Target)
			case model.SOAData:
				names = append(names, d.MName, d.RName)
			}
		}
	}
	return names
}

func dedupeStrings(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		s = strings.TrimSuffix(s, ".")
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func filterSubdomains(names []string, apex string) []string {
	apex = strings.TrimSuffix(apex, ".")
	var out []string
	for _, n := range names {
		if dns.IsSubDomain(dns.Fqdn(apex), dns.Fqdn(n)) && !strings.EqualFold(n, apex) {
			out = append(out, n)
		}
	}
	return out
}

func readWordlist(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var words []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words, nil
}

func rdataString(rr model.ResourceRecord) string {
	switch d := rr.Data.(type) {
	case model.AData:
		return d.Address
	case model.AAAAData:
		return d.Address
	default:
		return ""
	}
}
