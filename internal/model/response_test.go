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

package model

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testServer() NameServer {
	return NewNameServer(TransportUDP, net.ParseIP("8.8.8.8"), 0, "", "", OriginUserCLI)
}

func TestIsTerminalFailure(t *testing.T) {
	q := NewQuery("example.com", 1)
	assert.True(t, NxDomainResponse(testServer(), q, nil, time.Millisecond).IsTerminalFailure())
	assert.True(t, NoRecordsResponse(testServer(), q, time.Millisecond).IsTerminalFailure())
	assert.True(t, ErrorResponse(testServer(), q, ErrorRefused, nil).IsTerminalFailure())
	assert.False(t, ErrorResponse(testServer(), q, ErrorTransport, nil).IsTerminalFailure())
	assert.False(t, TimeoutResponse(testServer(), q, time.Second).IsTerminalFailure())
}

func TestResponseMarshalJSONTaggedUnion(t *testing.T) {
	q := NewQuery("example.com", 1)
	rec := RecordsResponse(testServer(), q, []ResourceRecord{{Name: "example.com.", Type: "A", TTL: 300, Data: AData{Address: "1.2.3.4"}}}, time.Millisecond)

	data, err := json.Marshal(rec)
	assert.NoError(t, err)

	var decoded map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal(data, &decoded))
	_, hasResponse := decoded["Response"]
	assert.True(t, hasResponse)
	_, hasNxDomain := decoded["NxDomain"]
	assert.False(t, hasNxDomain)
}

func TestLookupMinMaxRecordCount(t *testing.T) {
	q := NewQuery("example.com", 1)
	l := NewLookup(q)
	l.Add(RecordsResponse(testServer(), q, []ResourceRecord{{Type: "A"}, {Type: "A"}}, time.Millisecond))
	l.Add(RecordsResponse(testServer(), q, []ResourceRecord{{Type: "A"}}, time.Millisecond))

	min, max := l.MinMaxRecordCount()
	assert.Equal(t, 1, min)
	assert.Equal(t, 2, max)
}

func TestLookupSOASerials(t *testing.T) {
	q := NewQuery("example.com", 6)
	l := NewLookup(q)
	l.Add(RecordsResponse(testServer(), q, []ResourceRecord{{Type: "SOA", Data: SOAData{Serial: 100}}}, time.Millisecond))
	l.Add(RecordsResponse(testServer(), q, []ResourceRecord{{Type: "SOA", Data: SOAData{Serial: 100}}}, time.Millisecond))
	l.Add(RecordsResponse(testServer(), q, []ResourceRecord{{Type: "SOA", Data: SOAData{Serial: 200}}}, time.Millisecond))

	serials := l.SOASerials()
	assert.Equal(t, 2, serials[100])
	assert.Equal(t, 1, serials[200])
}

func TestLookupsMergeFoldsSameQuery(t *testing.T) {
	q := NewQuery("example.com", 1)
	a := NewLookups()
	l := NewLookup(q)
	l.Add(RecordsResponse(testServer(), q, []ResourceRecord{{Type: "A"}}, time.Millisecond))
	a.Add(l)

	b := NewLookups()
	l2 := NewLookup(q)
	l2.Add(RecordsResponse(testServer(), q, []ResourceRecord{{Type: "A"}}, time.Millisecond))
	b.Add(l2)

	a.Merge(b)

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 2, len(a.Items[0].Responses))
}

func TestLookupsMergeAppendsNewQuery(t *testing.T) {
	a := NewLookups()
	a.Add(NewLookup(NewQuery("a.example.com", 1)))

	b := NewLookups()
	b.Add(NewLookup(NewQuery("b.example.com", 1)))

	a.Merge(b)
	assert.Equal(t, 2, a.Len())
}
