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

package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/zmap/mhost/internal/model"
)

// GlobalOptions mirrors the authoritative flag list in SPEC_FULL.md §8 /
// spec.md §6, in the teacher's zflags struct-tag style.
type GlobalOptions struct {
	UseSystemResolvOpt  bool     `long:"use-system-resolv-opt" description:"honor timeout/attempts from resolv.conf in addition to nameservers"`
	NoSystemNameservers bool     `long:"no-system-nameservers" description:"do not add system resolvers to the lookup pool"`
	NoSystemLookups     bool     `short:"S" long:"no-system-lookups" description:"do not build a separate system-lookup sub-pool"`
	ResolvConfFile      string   `long:"resolv-conf" default:"/etc/resolv.conf" description:"path to resolv.conf"`
	Ndots               int      `long:"ndots" default:"1" description:"minimum interior dots before search domain is skipped"`
	SearchDomain        string   `long:"search-domain" description:"search domain to append to under-qualified names"`
	SystemNameserverIPs []string `long:"system-nameserver" description:"IP of a system-lookup server, repeatable"`
	NameServers         []string `short:"s" long:"nameserver" description:"name server SPEC, repeatable"`
	Predefined          bool     `short:"p" long:"predefined" description:"add the built-in predefined resolver list to the pool"`
	PredefinedFilter    []string `long:"predefined-filter" description:"restrict --predefined to these transports"`
	ListPredefined      bool     `long:"list-predefined" description:"print the predefined resolver list and exit"`
	NameServersFromFile string   `short:"f" long:"nameservers-from-file" description:"file of name server SPECs, one per line"`

	Limit                  int    `long:"limit" default:"100" description:"maximum pool size"`
	MaxConcurrentServers   int    `long:"max-concurrent-servers" default:"10" description:"global concurrent-server budget (M)"`
	MaxConcurrentRequests  int    `long:"max-concurrent-requests" default:"5" description:"per-server concurrent-request budget (K)"`
	Retries                int    `long:"retries" default:"0" description:"per-server retry count (R)"`
	TimeoutSeconds         int    `long:"timeout" default:"5" description:"per-attempt timeout in seconds (T)"`
	ResolversMode          string `short:"m" long:"resolvers-mode" default:"multi" description:"multi or uni"`
	WaitMultipleResponses  bool   `long:"wait-multiple-responses" description:"wait for every dispatched (server,query) instead of settling early"`
	NoAbortOnError         bool   `long:"no-abort-on-error" description:"do not cancel a query's remaining servers on first Error"`
	NoAbortOnTimeout       bool   `long:"no-abort-on-timeout" description:"do not cancel a query's remaining servers on first Timeout"`
	NoAborts               bool   `long:"no-aborts" description:"equivalent to --no-abort-on-error --no-abort-on-timeout"`
	BlacklistFile          string `long:"blacklist-file" description:"blacklist file of server IPs to exclude"`

	Output        string   `short:"o" long:"output" default:"summary" description:"summary or json"`
	OutputOptions []string `long:"output-options" description:"K=V output formatter options, repeatable"`
	ShowErrors    bool     `long:"show-errors" description:"reveal per-error-kind counts in summary output"`
	Quiet         bool     `short:"q" long:"quiet" description:"suppress non-essential output"`
	NoColor       bool     `long:"no-color" description:"disable ANSI color in summary output"`
	ASCII         bool     `long:"ascii" description:"restrict summary output to ASCII"`
	Verbose       bool     `short:"v" long:"verbose" description:"verbose logging"`
	Debug         bool     `long:"debug" description:"debug logging"`
}

// outputFormatterOptions is the parsed form of --output-options.
type outputFormatterOptions struct {
	Groups []model.OutputGroup
	Raw    bool
}

// ParseOutputOptions validates and normalizes the repeatable --output-options
// K=V pairs against a dedicated pflag.FlagSet, mirroring the teacher CLI
// worker's per-module CLIInit(gc, rc, flags *pflag.FlagSet) boundary: a
// module registers the flags it understands against a FlagSet rather than
// hand-parsing arbitrary strings itself.
func (gc GlobalOptions) ParseOutputOptions() (outputFormatterOptions, error) {
	fs := pflag.NewFlagSet("output-options", pflag.ContinueOnError)
	fs.Usage = func() {}
	groups := fs.StringSlice("groups", nil, "sheriff verbosity groups to render: short, normal, long, trace")
	raw := fs.Bool("raw", false, "skip rdata pretty-printing")

	args := make([]string, 0, len(gc.OutputOptions))
	for _, kv := range gc.OutputOptions {
		args = append(args, "--"+kv)
	}
	if err := fs.Parse(args); err != nil {
		return outputFormatterOptions{}, errors.Wrap(err, "parsing --output-options")
	}

	opts := outputFormatterOptions{Raw: *raw}
	for _, g := range *groups {
		opts.Groups = append(opts.Groups, model.OutputGroup(g))
	}
	return opts, nil
}
