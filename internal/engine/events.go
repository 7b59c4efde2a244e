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

package engine

import "github.com/zmap/mhost/internal/model"

type EventKind string

const (
	EventQueryDispatched  EventKind = "QueryDispatched"
	EventResponseReceived EventKind = "ResponseReceived"
	EventQuerySettled     EventKind = "QuerySettled"
	EventBatchSettled     EventKind = "BatchSettled"
)

// QueryDispatchedPayload accompanies EventQueryDispatched, giving a
// consumer (e.g. a progress bar) the batch shape up front.
type QueryDispatchedPayload struct {
	Count       int
	ServerCount int
	TypeCount   int
	NameCount   int
}

// Event is a single entry on the engine's partial-result stream (§4.7).
// Exactly one of the payload fields is populated, selected by Kind.
type Event struct {
	Kind             EventKind
	QueryDispatched  *QueryDispatchedPayload
	ResponseReceived *model.Response
	QuerySettled     *model.Lookup
	BatchSettled     *model.Lookups
}
