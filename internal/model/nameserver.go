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

// Package model holds the data types shared across the resolver, engine,
// planner, and the discover/check pipelines: name server descriptors,
// queries, resource records, and the Lookup/Lookups result tree.
package model

import (
	"fmt"
	"net"
)

// Transport identifies the wire protocol used to reach a NameServer.
type Transport string

const (
	TransportUDP Transport = "udp"
	TransportTCP Transport = "tcp"
	TransportDoT Transport = "tls"
	TransportDoH Transport = "https"
)

// DefaultPort returns the conventional port for t, per the SPEC grammar.
func (t Transport) DefaultPort() uint16 {
	switch t {
	case TransportDoT:
		return 853
	case TransportDoH:
		return 443
	default:
		return 53
	}
}

func (t Transport) IsValid() bool {
	switch t {
	case TransportUDP, TransportTCP, TransportDoT, TransportDoH:
		return true
	}
	return false
}

// Origin records where a NameServer descriptor came from, for provenance
// in output and for the pool's shadowing rules.
type Origin string

const (
	OriginSystem                 Origin = "system"
	OriginPredefined             Origin = "predefined"
	OriginUserCLI                Origin = "user_cli"
	OriginUserFile               Origin = "user_file"
	OriginDiscoveredAuthoritative Origin = "discovered_authoritative"
)

// NameServer is an immutable descriptor of an upstream DNS server.
// Identity is (Transport, IP, Port, TLSAuthName); Label and Origin are
// metadata that do not participate in equality or deduplication.
type NameServer struct {
	Transport   Transport
	IP          net.IP
	Port        uint16
	TLSAuthName string
	Label       string
	Origin      Origin
}

// NewNameServer builds a NameServer, defaulting Port from Transport when
// port is zero.
func NewNameServer(transport Transport, ip net.IP, port uint16, tlsAuthName, label string, origin Origin) NameServer {
	if port == 0 {
		port = transport.DefaultPort()
	}
	return NameServer{
		Transport:   transport,
		IP:          ip,
		Port:        port,
		TLSAuthName: tlsAuthName,
		Label:       label,
		Origin:      origin,
	}
}

// Equal implements the identity rule from the data model: two descriptors
// are the same server iff transport, address, port, and TLS auth name match.
func (n NameServer) Equal(other NameServer) bool {
	return n.Transport == other.Transport &&
		n.IP.Equal(other.IP) &&
		n.Port == other.Port &&
		n.TLSAuthName == other.TLSAuthName
}

// Key returns a comparable string suitable for map-based deduplication.
func (n NameServer) Key() string {
	return fmt.Sprintf("%s|%s|%d|%s", n.Transport, n.IP.String(), n.Port, n.TLSAuthName)
}

func (n NameServer) String() string {
	switch n.Transport {
	case TransportDoT:
		return fmt.Sprintf("tls:%s:%d,tls_auth_name=%s", n.IP, n.Port, n.TLSAuthName)
	case TransportDoH:
		return fmt.Sprintf("https:%s:%d,tls_auth_name=%s", n.IP, n.Port, n.TLSAuthName)
	default:
		return fmt.Sprintf("%s:%s:%d", n.Transport, n.IP, n.Port)
	}
}

func (n NameServer) Address() string {
	return net.JoinHostPort(n.IP.String(), fmt.Sprintf("%d", n.Port))
}

// IsSystem reports whether this descriptor was sourced from the local
// resolver configuration rather than the user or a predefined list.
func (n NameServer) IsSystem() bool {
	return n.Origin == OriginSystem
}

// address classification of the descriptor; grounded
// on net.IP's own RFC1918/loopback predicates, not a third-party library —
// no example repo wires a dedicated IP-classification package for this.
func (n NameServer) IsLoopback() bool {
	return n.IP.IsLoopback()
}

func (n NameServer) IsPrivate() bool {
	return n.IP.IsPrivate()
}
