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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zmap/mhost/internal/model"
)

func TestParseSpecPlainIP(t *testing.T) {
	ns, err := ParseSpec("8.8.8.8", model.OriginUserCLI)
	assert.NoError(t, err)
	assert.Equal(t, model.TransportUDP, ns.Transport)
	assert.True(t, ns.IP.Equal(net.ParseIP("8.8.8.8")))
	assert.Equal(t, uint16(53), ns.Port)
}

func TestParseSpecExplicitPort(t *testing.T) {
	ns, err := ParseSpec("8.8.8.8:5353", model.OriginUserCLI)
	assert.NoError(t, err)
	assert.Equal(t, uint16(5353), ns.Port)
}

func TestParseSpecTLSTransport(t *testing.T) {
	ns, err := ParseSpec("tls:1.1.1.1:853,tls_auth_name=cloudflare-dns.com", model.OriginUserCLI)
	assert.NoError(t, err)
	assert.Equal(t, model.TransportDoT, ns.Transport)
	assert.Equal(t, "cloudflare-dns.com", ns.TLSAuthName)
	assert.Equal(t, uint16(853), ns.Port)
}

func TestParseSpecHTTPSTransportDefaultsPort443(t *testing.T) {
	ns, err := ParseSpec("https:9.9.9.9,tls_auth_name=dns.quad9.net", model.OriginUserCLI)
	assert.NoError(t, err)
	assert.Equal(t, model.TransportDoH, ns.Transport)
	assert.Equal(t, uint16(443), ns.Port)
}

func TestParseSpecLabel(t *testing.T) {
	ns, err := ParseSpec("8.8.8.8,name=google-primary", model.OriginUserCLI)
	assert.NoError(t, err)
	assert.Equal(t, "google-primary", ns.Label)
}

func TestParseSpecBareIPv6(t *testing.T) {
	ns, err := ParseSpec("2001:4860:4860::8888", model.OriginUserCLI)
	assert.NoError(t, err)
	assert.True(t, ns.IP.Equal(net.ParseIP("2001:4860:4860::8888")))
	assert.Equal(t, uint16(53), ns.Port)
}

func TestParseSpecBracketedIPv6WithPort(t *testing.T) {
	ns, err := ParseSpec("[2001:4860:4860::8888]:5353", model.OriginUserCLI)
	assert.NoError(t, err)
	assert.True(t, ns.IP.Equal(net.ParseIP("2001:4860:4860::8888")))
	assert.Equal(t, uint16(5353), ns.Port)
}

func TestParseSpecInvalidIP(t *testing.T) {
	_, err := ParseSpec("not-an-ip", model.OriginUserCLI)
	assert.Error(t, err)
}

func TestParseSpecUnknownOption(t *testing.T) {
	_, err := ParseSpec("8.8.8.8,bogus=1", model.OriginUserCLI)
	assert.Error(t, err)
}
