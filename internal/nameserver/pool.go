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

// Package nameserver implements the Name-Server Descriptor & Pool
// component: parsing SPEC strings, holding the predefined resolver list,
// and building deduplicated system/lookup pools under a size limit.
package nameserver

import (
	"bufio"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/zmap/go-iptree/blacklist"

	"github.com/zmap/mhost/internal/model"
	"github.com/zmap/mhost/internal/sysconf"
)

// Config drives Build; fields correspond 1:1 to the global CLI flags
// documented in SPEC_FULL.md §8.
type Config struct {
	NameServers          []string // -s/--nameserver SPEC, repeatable
	NameServersFromFile  string   // -f/--nameservers-from-file
	Predefined           bool     // -p/--predefined
	PredefinedFilter     []model.Transport
	NoSystemNameservers  bool
	SystemNameserverIPs  []string // --system-nameserver, repeatable
	NoSystemLookups      bool     // -S/--no-system-lookups
	ResolvConfFile       string   // --resolv-conf, default /etc/resolv.conf
	UseSystemResolvOpt   bool     // --use-system-resolv-opt
	Limit                int      // --limit, default 100
	BlacklistFile        string
}

// Pool is an ordered, deduplicated collection of NameServer descriptors,
// partitioned into system and lookup sub-pools, capped at Config.Limit.
type Pool struct {
	system []model.NameServer
	lookup []model.NameServer
	limit  int
}

// Build assembles a Pool from cfg, applying sources in the order
// documented in spec.md §4.1: explicit --nameserver, --nameservers-from-file,
// --predefined, system descriptors from resolv.conf, then a separate
// system-lookup sub-pool. Earlier sources shadow later duplicates.
func Build(cfg Config) (*Pool, error) {
	var bl *blacklist.Blacklist
	if cfg.BlacklistFile != "" {
		b := blacklist.New()
		if err := b.ParseFromFile(cfg.BlacklistFile); err != nil {
			return nil, errors.Wrapf(err, "loading blacklist file %q", cfg.BlacklistFile)
		}
		bl = b
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = 100
	}

	p := &Pool{limit: limit}
	seen := map[string]bool{}

	add := func(ns model.NameServer) error {
		if bl != nil {
			blocked, err := bl.IsBlacklisted(ns.IP.String())
			if err != nil {
				return errors.Wrapf(err, "checking blacklist for %s", ns.IP)
			}
			if blocked {
				logrus.WithField("server", ns.String()).Info("dropping blacklisted name server")
				return nil
			}
		}
		if seen[ns.Key()] {
			return nil
		}
		if len(p.lookup) >= limit {
			return nil
		}
		seen[ns.Key()] = true
		p.lookup = append(p.lookup, ns)
		return nil
	}

	for _, spec := range cfg.NameServers {
		ns, err := ParseSpec(spec, model.OriginUserCLI)
		if err != nil {
			return nil, errors.Wrap(err, "config error")
		}
		if err := add(ns); err != nil {
			return nil, err
		}
	}

	if cfg.NameServersFromFile != "" {
		specs, err := readLines(cfg.NameServersFromFile)
		if err != nil {
			return nil, errors.Wrapf(err, "config error: reading %q", cfg.NameServersFromFile)
		}
		for _, spec := range specs {
			ns, err := ParseSpec(spec, model.OriginUserFile)
			if err != nil {
				return nil, errors.Wrap(err, "config error")
			}
			if err := add(ns); err != nil {
				return nil, err
			}
		}
	}

	if cfg.Predefined {
		for _, ns := range FilterByTransport(Predefined, cfg.PredefinedFilter) {
			if err := add(ns); err != nil {
				return nil, err
			}
		}
	}

	if !cfg.NoSystemNameservers {
		resolvConf := cfg.ResolvConfFile
		if resolvConf == "" {
			resolvConf = sysconf.DefaultResolvConfFile
		}
		conf, err := sysconf.Load(resolvConf)
		if err != nil {
			logrus.WithError(err).Warn("could not read resolv.conf, skipping system name servers")
		} else {
			for _, ns := range conf.NameServers(model.OriginSystem) {
				if err := add(ns); err != nil {
					return nil, err
				}
			}
		}
	}

	if !cfg.NoSystemLookups {
		var systemIPs []model.NameServer
		for _, ip := range cfg.SystemNameserverIPs {
			ns, err := ParseSpec(ip, model.OriginSystem)
			if err != nil {
				return nil, errors.Wrap(err, "config error")
			}
			systemIPs = append(systemIPs, ns)
		}
		if len(systemIPs) == 0 {
			resolvConf := cfg.ResolvConfFile
			if resolvConf == "" {
				resolvConf = sysconf.DefaultResolvConfFile
			}
			if conf, err := sysconf.Load(resolvConf); err == nil {
				systemIPs = conf.NameServers(model.OriginSystem)
			}
		}
		p.system = dedupe(systemIPs)
	}

	if len(p.lookup) == 0 {
		return nil, errors.New("config error: name server pool is empty")
	}

	return p, nil
}

func dedupe(in []model.NameServer) []model.NameServer {
	seen := map[string]bool{}
	var out []model.NameServer
	for _, ns := range in {
		if seen[ns.Key()] {
			continue
		}
		seen[ns.Key()] = true
		out = append(out, ns)
	}
	return out
}

func (p *Pool) System() []model.NameServer {
	return p.system
}

func (p *Pool) Lookup() []model.NameServer {
	return p.lookup
}

func (p *Pool) AllUnique() []model.NameServer {
	return dedupe(append(append([]model.NameServer{}, p.lookup...), p.system...))
}

// FromServers builds an ad-hoc, single-purpose Pool from an explicit
// server list, bypassing all config sources. Used by the Check pipeline's
// authoritative-server pool synthesis (spec.md §9).
func FromServers(servers []model.NameServer) *Pool {
	return &Pool{lookup: dedupe(servers), limit: len(servers)}
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
