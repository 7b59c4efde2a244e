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

package nameserver

import (
	"net"

	"github.com/zmap/mhost/internal/model"
)

// Predefined is the built-in list surfaced by --predefined and
// --list-predefined: well-known public recursive resolvers over each
// transport they support.
var Predefined = []model.NameServer{
	model.NewNameServer(model.TransportUDP, net.ParseIP("8.8.8.8"), 0, "", "google", model.OriginPredefined),
	model.NewNameServer(model.TransportUDP, net.ParseIP("8.8.4.4"), 0, "", "google2", model.OriginPredefined),
	model.NewNameServer(model.TransportDoT, net.ParseIP("8.8.8.8"), 0, "dns.google", "google-dot", model.OriginPredefined),
	model.NewNameServer(model.TransportDoH, net.ParseIP("8.8.8.8"), 0, "dns.google", "google-doh", model.OriginPredefined),

	model.NewNameServer(model.TransportUDP, net.ParseIP("1.1.1.1"), 0, "", "cloudflare", model.OriginPredefined),
	model.NewNameServer(model.TransportUDP, net.ParseIP("1.0.0.1"), 0, "", "cloudflare2", model.OriginPredefined),
	model.NewNameServer(model.TransportDoT, net.ParseIP("1.1.1.1"), 0, "cloudflare-dns.com", "cloudflare-dot", model.OriginPredefined),
	model.NewNameServer(model.TransportDoH, net.ParseIP("1.1.1.1"), 0, "cloudflare-dns.com", "cloudflare-doh", model.OriginPredefined),

	model.NewNameServer(model.TransportUDP, net.ParseIP("9.9.9.9"), 0, "", "quad9", model.OriginPredefined),
	model.NewNameServer(model.TransportDoT, net.ParseIP("9.9.9.9"), 0, "dns.quad9.net", "quad9-dot", model.OriginPredefined),

	model.NewNameServer(model.TransportUDP, net.ParseIP("208.67.222.222"), 0, "", "opendns", model.OriginPredefined),
	model.NewNameServer(model.TransportUDP, net.ParseIP("208.67.220.220"), 0, "", "opendns2", model.OriginPredefined),
}

// FilterByTransport returns the subset of Predefined matching any of the
// given transports, for --predefined-filter.
func FilterByTransport(servers []model.NameServer, transports []model.Transport) []model.NameServer {
	if len(transports) == 0 {
		return servers
	}
	allowed := make(map[model.Transport]bool, len(transports))
	for _, t := range transports {
		allowed[t] = true
	}
	var out []model.NameServer
	for _, s := range servers {
		if allowed[s.Transport] {
			out = append(out, s)
		}
	}
	return out
}
