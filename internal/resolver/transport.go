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

package resolver

import (
	"context"
	"io"
	"net"
	"strings"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
	"github.com/zmap/zcrypto/tls"
	zgrabhttp "github.com/zmap/zgrab2/lib/http"
	"github.com/zmap/zgrab2/lib/output"

	"github.com/zmap/mhost/internal/model"
)

func (r *Resolver) wireUDP(ctx context.Context, q model.Query) (*dns.Msg, error) {
	m := buildMsg(q)
	c := &dns.Client{Net: "udp", Timeout: r.budgets.Timeout}
	msg, _, err := c.ExchangeContext(ctx, m, r.server.Address())
	return msg, err
}

func (r *Resolver) wireTCP(ctx context.Context, q model.Query) (*dns.Msg, error) {
	m := buildMsg(q)
	c := &dns.Client{Net: "tcp", Timeout: r.budgets.Timeout}
	msg, _, err := c.ExchangeContext(ctx, m, r.server.Address())
	return msg, err
}

// wireDoT establishes (or reuses) a persistent TLS connection to the
// server, using zcrypto/tls so the handshake log can be captured and
// stripped through zgrab2's output processor, matching the teacher's
// doDoTLookup connection-reuse strategy.
func (r *Resolver) wireDoT(ctx context.Context, q model.Query) (*dns.Msg, error) {
	m := buildMsg(q)

	r.mu.Lock()
	conn := r.tlsConn
	r.mu.Unlock()

	if conn == nil {
		dialer := &net.Dialer{}
		tcpConn, err := dialer.DialContext(ctx, "tcp", r.server.Address())
		if err != nil {
			return nil, errors.Wrap(err, "could not connect to DoT server")
		}
		tlsConn := tls.Client(tcpConn, &tls.Config{
			ServerName:         r.server.TLSAuthName,
			InsecureSkipVerify: r.server.TLSAuthName == "",
		})
		if err := tlsConn.Handshake(); err != nil {
			_ = tlsConn.Close()
			return nil, errors.Wrap(err, "TLS handshake with DoT server failed")
		}
		if hs := tlsConn.GetHandshakeLog(); hs != nil {
			proc := output.Processor{Verbose: false}
			_, _ = proc.Process(hs) // handshake detail is logging-only, not surfaced in Response
		}
		conn = &dns.Conn{Conn: tlsConn}
		r.mu.Lock()
		r.tlsConn = conn
		r.mu.Unlock()
	}

	// One exchange at a time on the shared connection, so concurrent
	// queries cannot read each other's responses.
	r.mu.Lock()
	defer r.mu.Unlock()
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	if err := conn.WriteMsg(m); err != nil {
		r.tlsConn = nil
		return nil, errors.Wrap(err, "could not write query over DoT")
	}
	resp, err := conn.ReadMsg()
	if err != nil {
		r.tlsConn = nil
		return nil, errors.Wrap(err, "could not read response over DoT")
	}
	return resp, nil
}

// wireDoH POSTs the wire-format query to the server's /dns-query endpoint
// using zgrab2's HTTP client, matching the teacher's doDoHLookup.
func (r *Resolver) wireDoH(ctx context.Context, q model.Query) (*dns.Msg, error) {
	m := buildMsg(q)
	packed, err := m.Pack()
	if err != nil {
		return nil, errors.Wrap(err, "could not pack DNS message")
	}

	name := r.server.TLSAuthName
	if name == "" {
		name = r.server.IP.String()
	}
	url := name
	if !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}
	if !strings.HasSuffix(url, "/dns-query") {
		url += "/dns-query"
	}

	req, err := zgrabhttp.NewRequest("POST", url, strings.NewReader(string(packed)))
	if err != nil {
		return nil, errors.Wrap(err, "could not build DoH request")
	}
	req.Header.Set("Content-Type", "application/dns-message")
	req.Header.Set("Accept", "application/dns-message")
	req = req.WithContext(ctx)

	client := &zgrabhttp.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "DoH request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "could not read DoH response body")
	}

	out := new(dns.Msg)
	if err := out.Unpack(body); err != nil {
		return nil, errors.Wrap(err, "could not unpack DoH response")
	}
	return out, nil
}
