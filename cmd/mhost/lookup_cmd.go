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

package main

import (
	"context"
	"fmt"

	"github.com/miekg/dns"
	"github.com/pkg/errors"

	"github.com/zmap/mhost/internal/engine"
	"github.com/zmap/mhost/internal/planner"
)

// LookupCommand implements `mhost lookup <target>`.
type LookupCommand struct {
	Types []string `short:"t" long:"type" description:"record type to query, repeatable"`
	All   bool     `long:"all" description:"query every supported record type"`
}

func (c *LookupCommand) Execute(args []string) error {
	if len(args) != 1 {
		lastExitCode = exitUserError
		return errors.New("lookup expects exactly one target: name, IP, CIDR, or service spec")
	}
	target := args[0]

	gc, err := loadGlobals()
	if err != nil {
		lastExitCode = exitOperationalError
		return err
	}

	pool, err := buildPool(gc)
	if err != nil {
		lastExitCode = exitOperationalError
		return err
	}
	budgets, err := buildBudgets(gc)
	if err != nil {
		lastExitCode = exitUserError
		return err
	}

	types, err := resolveTypes(c.Types, c.All)
	if err != nil {
		lastExitCode = exitUserError
		return err
	}

	batch, err := planner.Plan(target, planner.Options{
		Ndots:        gc.Ndots,
		SearchDomain: gc.SearchDomain,
		Types:        types,
		Limit:        gc.Limit,
	})
	if err != nil {
		lastExitCode = exitUserError
		return err
	}

	eng := engine.New(1)
	events := make(chan engine.Event, 64)
	done := make(chan struct{})
	go func() {
		progressConsumer(events, gc.Quiet || gc.Output == "json")
		close(done)
	}()

	lookups, err := eng.Run(context.Background(), batch, pool.Lookup(), budgets, events)
	close(events)
	<-done
	if err != nil {
		lastExitCode = exitOperationalError
		return err
	}

	if gc.Output == "json" {
		outOpts, err := gc.ParseOutputOptions()
		if err != nil {
			lastExitCode = exitUserError
			return err
		}
		return writeJSON(lookups, outOpts)
	}
	return writeSummary(lookups, gc.ShowErrors)
}

func resolveTypes(names []string, all bool) ([]uint16, error) {
	if all {
		return planner.AllTypes, nil
	}
	if len(names) == 0 {
		return nil, nil
	}
	out := make([]uint16, 0, len(names))
	for _, n := range names {
		t, ok := dns.StringToType[n]
		if !ok {
			return nil, fmt.Errorf("unknown record type %q", n)
		}
		out = append(out, t)
	}
	return out, nil
}
