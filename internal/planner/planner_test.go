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

package planner

import (
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
)

func TestQualify(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		ndots        int
		searchDomain string
		expected     string
	}{
		{"already fqdn passes through", "www.example.com.", 1, "corp.example", "www.example.com."},
		{"below ndots gets search domain", "host", 2, "corp.example", "host.corp.example."},
		{"at ndots skips search domain", "host.sub", 1, "corp.example", "host.sub."},
		{"no search domain configured", "host", 5, "", "host."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Qualify(tt.input, tt.ndots, tt.searchDomain))
		})
	}
}

func TestQualifyIdempotent(t *testing.T) {
	once := Qualify("host", 2, "corp.example")
	twice := Qualify(once, 2, "corp.example")
	assert.Equal(t, once, twice)
}

func TestPlanHostname(t *testing.T) {
	batch, err := Plan("example.com", Options{Ndots: 1})
	assert.NoError(t, err)
	assert.Equal(t, len(DefaultTypes), len(batch.Queries))
	for i, q := range batch.Queries {
		assert.Equal(t, "example.com.", q.Name)
		assert.Equal(t, DefaultTypes[i], q.Type)
	}
}

func TestPlanBareIP(t *testing.T) {
	batch, err := Plan("8.8.8.8", Options{})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(batch.Queries))
	assert.Equal(t, dns.TypePTR, batch.Queries[0].Type)
	assert.Equal(t, "8.8.8.8.in-addr.arpa.", batch.Queries[0].Name)
}

func TestPlanCIDR(t *testing.T) {
	batch, err := Plan("192.0.2.0/30", Options{})
	assert.NoError(t, err)
	assert.Equal(t, 4, len(batch.Queries))
	for _, q := range batch.Queries {
		assert.Equal(t, dns.TypePTR, q.Type)
	}
}

func TestPlanCIDRRespectsLimit(t *testing.T) {
	batch, err := Plan("192.0.2.0/28", Options{Limit: 3})
	assert.NoError(t, err)
	assert.Equal(t, 3, len(batch.Queries))
}

func TestPlanServiceSpec(t *testing.T) {
	batch, err := Plan("sip:tcp:example.com", Options{})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(batch.Queries))
	assert.Equal(t, "_sip._tcp.example.com.", batch.Queries[0].Name)
	assert.Equal(t, dns.TypeSRV, batch.Queries[0].Type)
}

func TestPlanServiceSpecDefaultsProtoToTCP(t *testing.T) {
	batch, err := Plan("sip::example.com", Options{})
	assert.NoError(t, err)
	assert.Equal(t, "_sip._tcp.example.com.", batch.Queries[0].Name)
}

func TestPlanExplicitTypes(t *testing.T) {
	batch, err := Plan("example.com", Options{Types: []uint16{dns.TypeTXT}})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(batch.Queries))
	assert.Equal(t, dns.TypeTXT, batch.Queries[0].Type)
}
