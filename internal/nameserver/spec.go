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
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/zmap/mhost/internal/model"
)

// ParseSpec parses the name-server SPEC grammar from spec.md §6:
//
//	[proto:]<host-or-ip>[:port][,tls_auth_name=NAME][,name=LABEL]
//
// Default proto is udp; default port is transport-dependent.
func ParseSpec(spec string, origin model.Origin) (model.NameServer, error) {
	parts := strings.Split(spec, ",")
	head := parts[0]

	transport := model.TransportUDP
	if idx := strings.Index(head, ":"); idx >= 0 {
		if proto, ok := knownTransport(head[:idx]); ok {
			transport = proto
			head = head[idx+1:]
		}
	}

	host, portStr, err := splitHostPort(head)
	if err != nil {
		return model.NameServer{}, errors.Wrapf(err, "nameserver spec %q", spec)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return model.NameServer{}, errors.Errorf("nameserver spec %q: %q is not a valid IP address", spec, host)
	}

	var port uint16
	if portStr != "" {
		p, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return model.NameServer{}, errors.Wrapf(err, "nameserver spec %q: invalid port", spec)
		}
		port = uint16(p)
	}

	var tlsAuthName, label string
	for _, kv := range parts[1:] {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return model.NameServer{}, errors.Errorf("nameserver spec %q: malformed option %q", spec, kv)
		}
		switch k {
		case "tls_auth_name":
			tlsAuthName = v
		case "name":
			label = v
		default:
			return model.NameServer{}, errors.Errorf("nameserver spec %q: unknown option %q", spec, k)
		}
	}

	return model.NewNameServer(transport, ip, port, tlsAuthName, label, origin), nil
}

func knownTransport(s string) (model.Transport, bool) {
	t := model.Transport(s)
	switch t {
	case model.TransportUDP, model.TransportTCP, model.TransportDoT, model.TransportDoH:
		return t, true
	}
	return "", false
}

// splitHostPort splits "host" or "host:port", tolerating bare IPv6
// addresses (which contain colons themselves) by requiring bracketed
// form for IPv6-with-port, matching net.SplitHostPort's own convention.
func splitHostPort(s string) (host, port string, err error) {
	if strings.Contains(s, "[") {
		return net.SplitHostPort(s)
	}
	// bare IPv6 literal, no port
	if strings.Count(s, ":") > 1 {
		return s, "", nil
	}
	if idx := strings.LastIndex(s, ":"); idx >= 0 {
		return s[:idx], s[idx+1:], nil
	}
	return s, "", nil
}
