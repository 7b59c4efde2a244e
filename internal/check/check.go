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

// Package check implements the Check (Lint) Pipeline: SOA authority
// consistency, CNAME placement rules, and SPF record validity, each an
// independent lint composing on the engine.
package check

import (
	"context"

	"github.com/miekg/dns"
	"github.com/pkg/errors"

	"github.com/zmap/mhost/internal/engine"
	"github.com/zmap/mhost/internal/model"
)

// Verdict is the outcome of one lint.
type Verdict string

const (
	VerdictOK       Verdict = "ok"
	VerdictWarning  Verdict = "warning"
	VerdictFailed   Verdict = "failed"
	VerdictNotFound Verdict = "not_found"
)

type Finding struct {
	Lint    string
	Verdict Verdict
	Message string
	Detail  map[string]int // used for the SOA serial-divergence histogram
}

type Options struct {
	NoSOA                 bool
	NoCNAMEs              bool
	NoSPF                 bool
	ShowIntermediate      bool
	ShowPartialResults    bool
}

type Runner struct {
	Engine  *engine.Engine
	Servers []model.NameServer
	Budgets model.Budgets
	Events  chan<- engine.Event
}

func (rn *Runner) run(ctx context.Context, servers []model.NameServer, batch model.QueryBatch) (*model.Lookups, error) {
	return rn.Engine.Run(ctx, batch, servers, rn.Budgets, rn.Events)
}

type Report struct {
	Findings []Finding
}

// HasIssues reports whether any finding is Warning or Failed, the signal
// the CLI uses to select exit code 3 (spec.md §6).
func (r *Report) HasIssues() bool {
	for _, f := range r.Findings {
		if f.Verdict == VerdictWarning || f.Verdict == VerdictFailed {
			return true
		}
	}
	return false
}

// Run executes the three lints against apex, skipping any disabled by
// opts, and returns their findings.
func Run(ctx context.Context, rn *Runner, apex string, opts Options) (*Report, error) {
	apex = dns.Fqdn(apex)
	report := &Report{}

	if !opts.NoSOA {
		f, err := checkSOA(ctx, rn, apex)
		if err != nil {
			report.Findings = append(report.Findings, Finding{Lint: "soa", Verdict: VerdictNotFound, Message: err.Error()})
		} else {
			report.Findings = append(report.Findings, f...)
		}
	}
	if !opts.NoCNAMEs {
		f, err := checkCNAMEs(ctx, rn, apex)
		if err != nil {
			report.Findings = append(report.Findings, Finding{Lint: "cnames", Verdict: VerdictNotFound, Message: err.Error()})
		} else {
			report.Findings = append(report.Findings, f...)
		}
	}
	if !opts.NoSPF {
		f, err := checkSPF(ctx, rn, apex)
		if err != nil {
			report.Findings = append(report.Findings, Finding{Lint: "spf", Verdict: VerdictNotFound, Message: err.Error()})
		} else {
			report.Findings = append(report.Findings, f...)
		}
	}
	return report, nil
}

var errNoAuthority = errors.New("could not resolve apex NS records; skipping SOA authority check")
