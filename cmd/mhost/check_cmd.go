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
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/zmap/mhost/internal/check"
	"github.com/zmap/mhost/internal/engine"
)

// CheckCommand implements `mhost check <apex>`, running the SOA
// consistency, CNAME placement, and SPF lints.
type CheckCommand struct {
	NoSOA    bool `long:"no-soa" description:"skip the SOA authority consistency check"`
	NoCNAMEs bool `long:"no-cnames" description:"skip the CNAME placement check"`
	NoSPF    bool `long:"no-spf" description:"skip the SPF record check"`
	Strict   bool `long:"strict" description:"exit non-zero when any finding is a warning or failure"`

	ShowPartialResults bool `long:"show-partial-results" description:"accepted but has no effect: check prints only its findings, not intermediate Lookups"`
}

func (c *CheckCommand) Execute(args []string) error {
	if len(args) != 1 {
		lastExitCode = exitUserError
		return errors.New("check expects exactly one apex")
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

	runner := &check.Runner{Engine: eng, Servers: pool.Lookup(), Budgets: budgets, Events: events}
	report, err := check.Run(context.Background(), runner, apex, check.Options{
		NoSOA:              c.NoSOA,
		NoCNAMEs:           c.NoCNAMEs,
		NoSPF:              c.NoSPF,
		ShowPartialResults: c.ShowPartialResults,
	})
	close(events)
	<-done
	if err != nil {
		lastExitCode = exitOperationalError
		return err
	}

	if gc.Output == "json" {
		data, jerr := json.Marshal(report)
		if jerr != nil {
			return jerr
		}
		_, jerr = os.Stdout.Write(append(data, '\n'))
		if jerr != nil {
			return jerr
		}
	} else {
		for _, f := range report.Findings {
			fmt.Printf("[%s] %s: %s\n", f.Verdict, f.Lint, f.Message)
		}
	}

	if c.Strict && report.HasIssues() {
		lastExitCode = exitLintIssuesFound
	}
	return nil
}
