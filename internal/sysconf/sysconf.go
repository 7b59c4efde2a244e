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

// Package sysconf loads the fields the engine cares about out of
// /etc/resolv.conf: nameserver addresses, ndots, search domains, timeout,
// and attempts. Everything else in the file is out of scope.
package sysconf

import (
	"net"
	"time"

	"github.com/miekg/dns"
	"github.com/pkg/errors"

	"github.com/zmap/mhost/internal/model"
)

const DefaultResolvConfFile = "/etc/resolv.conf"

// Config is the subset of resolv.conf that mhost consumes.
type Config struct {
	Servers []string
	Search  []string
	Ndots   int
	Timeout time.Duration
	Attempts int
}

// Load parses path using miekg/dns's resolv.conf reader, which already
// exposes Servers/Search/Ndots/Timeout/Attempts as struct fields.
func Load(path string) (*Config, error) {
	cc, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %q", path)
	}
	return &Config{
		Servers:  cc.Servers,
		Search:   cc.Search,
		Ndots:    cc.Ndots,
		Timeout:  time.Duration(cc.Timeout) * time.Second,
		Attempts: cc.Attempts,
	}, nil
}

// NameServers renders the parsed server addresses as UDP NameServer
// descriptors tagged with the given origin.
func (c *Config) NameServers(origin model.Origin) []model.NameServer {
	var out []model.NameServer
	for _, s := range c.Servers {
		ip := net.ParseIP(s)
		if ip == nil {
			continue
		}
		out = append(out, model.NewNameServer(model.TransportUDP, ip, 53, "", "", origin))
	}
	return out
}
