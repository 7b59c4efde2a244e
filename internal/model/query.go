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
	"fmt"

	"github.com/miekg/dns"
)

// ClassIN is the only DNS class mhost speaks; see Non-goals.
const ClassIN = dns.ClassINET

// Query is a (name, type, class) tuple. Name must be fully qualified
// (terminal empty label) before it is admitted to the engine; the planner
// is responsible for that invariant.
type Query struct {
	Name  string `json:"name"`
	Type  uint16 `json:"-"`
	Class uint16 `json:"-"`
}

func NewQuery(name string, qtype uint16) Query {
	return Query{Name: dns.Fqdn(name), Type: qtype, Class: ClassIN}
}

func (q Query) TypeString() string {
	return dns.TypeToString[q.Type]
}

func (q Query) ClassString() string {
	return dns.ClassToString[q.Class]
}

func (q Query) String() string {
	return fmt.Sprintf("%s %s %s", q.Name, q.ClassString(), q.TypeString())
}

// MarshalJSON renders Query the way the JSON output schema requires:
// {"name": "...", "type": "A", "class": "IN"}.
func (q Query) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"name":%q,"type":%q,"class":%q}`, q.Name, q.TypeString(), q.ClassString())), nil
}

// QueryBatch is an ordered set of Queries. The servers they are sent to
// are not part of the batch: engine.Engine.Run takes them as a separate
// argument, either the caller's default pool or an ad-hoc one built by a
// pipeline (see nameserver.FromServers).
type QueryBatch struct {
	Queries []Query
}

func NewQueryBatch(queries ...Query) QueryBatch {
	return QueryBatch{Queries: queries}
}
