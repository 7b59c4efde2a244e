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

	"github.com/pkg/errors"

	"github.com/zmap/mhost/internal/discover"
	"github.com/zmap/mhost/internal/engine"
)

// DiscoverCommand implements `mhost discover <apex>`.
type DiscoverCommand struct {
	RandNamesNumber    int    `long:"rnd-names-number" default:"3" description:"random labels probed for wildcard detection"`
	RandNamesLen       int    `long:"rnd-names-len" default:"12" description:"length of each random wildcard-probe label"`
	WordlistFromFile   string `long:"wordlist-from-file" description:"file of labels to try under the apex"`
	SubdomainsOnly     bool   `long:"subdomains-only" description:"drop discovered names that are not proper subdomains of the apex"`
	ShowPartialResults bool   `long:"show-partial-results" description:"print each step's intermediate Lookups in summary output"`
}

func (c *DiscoverCommand) Execute(args []string) error {
	if len(args) != 1 {
		lastExitCode = exitUserError
		return errors.New("discover expects exactly one apex")
	}
	apex := args[0]

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

	eng := engine.New(1)
	events := make(chan engine.Event, 64)
	done := make(chan struct{})
	go func() {
		progressConsumer(events, gc.Quiet || gc.Output == "json")
		close(done)
	}()

	runner := &discover.Runner{Engine: eng, Servers: pool.Lookup(), Budgets: budgets, Events: events}
	result, err := discover.Run(context.Background(), runner, discover.Options{
		Apex:               apex,
		RandNamesNumber:    c.RandNamesNumber,
		RandNamesLen:       c.RandNamesLen,
		WordlistFromFile:   c.WordlistFromFile,
		SubdomainsOnly:     c.SubdomainsOnly,
		ShowPartialResults: c.ShowPartialResults,
	})
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
		return writeJSON(result.Lookups, outOpts)
	}
	for i, p := range result.Partials {
		fmt.Printf("partial results after step %d:\n", i+1)
		if err := writeSummary(p, gc.ShowErrors); err != nil {
			return err
		}
	}
	if result.Wildcarded {
		fmt.Printf("zone appears wildcarded (%d target(s))\n", len(result.WildcardTargets))
	}
	fmt.Printf("discovered %d name(s)\n", len(result.DiscoveredNames))
	for _, n := range result.DiscoveredNames {
		fmt.Println(n)
	}
	if len(result.SuspiciousNames) > 0 {
		fmt.Printf("%d suspicious (wildcard-matching) name(s) excluded:\n", len(result.SuspiciousNames))
		for _, n := range result.SuspiciousNames {
			fmt.Printf("? %s\n", n)
		}
	}
	return writeSummary(result.Lookups, gc.ShowErrors)
}
