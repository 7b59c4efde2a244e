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

import "time"

// ResolversMode selects how a QueryBatch is fanned out across the pool.
type ResolversMode string

const (
	ModeMulti ResolversMode = "multi"
	ModeUni   ResolversMode = "uni"
)

// Budgets are the engine-wide concurrency and retry limits. Defaults
// mirror the CLI's documented defaults (SPEC_FULL.md §8 / spec.md §6).
type Budgets struct {
	MaxConcurrentServers          int
	MaxConcurrentRequestsPerServer int
	Retries                       int
	Timeout                       time.Duration
	WaitMultipleResponses         bool
	AbortOnError                  bool
	AbortOnTimeout                bool
	ResolversMode                 ResolversMode
	Limit                         int
}

func DefaultBudgets() Budgets {
	return Budgets{
		MaxConcurrentServers:           10,
		MaxConcurrentRequestsPerServer: 5,
		Retries:                        0,
		Timeout:                        5 * time.Second,
		WaitMultipleResponses:          false,
		AbortOnError:                   true,
		AbortOnTimeout:                 true,
		ResolversMode:                  ModeMulti,
		Limit:                          100,
	}
}
