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
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/zmap/mhost/internal/engine"
	"github.com/zmap/mhost/internal/model"
)

// progressConsumer drains an engine event channel into a progress bar,
// the way benchmark/main.go drives progressbar.Default off a line count.
// It returns once the channel is closed (BatchSettled has been emitted).
func progressConsumer(events <-chan engine.Event, quiet bool) {
	var bar *progressbar.ProgressBar
	for ev := range events {
		switch ev.Kind {
		case engine.EventQueryDispatched:
			if !quiet {
				bar = progressbar.Default(int64(ev.QueryDispatched.Count), "querying")
			}
		case engine.EventResponseReceived:
			if bar != nil {
				_ = bar.Add(1)
			}
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
}

// writeJSON renders lookups to stdout. With no groups requested it emits the
// full tagged-union wire schema from Lookups.MarshalJSON; when --output-options
// selects one or more sheriff groups, it renders the flattened, group-filtered
// record view instead (model.MarshalGrouped), the way the teacher CLI worker's
// sheriff.Options{Groups: gc.OutputGroups} call trims fields per verbosity.
func writeJSON(lookups *model.Lookups, opts outputFormatterOptions) error {
	var (
		data []byte
		err  error
	)
	if len(opts.Groups) > 0 {
		data, err = model.MarshalGrouped(groupedRecords(lookups), opts.Groups...)
	} else {
		data, err = json.Marshal(lookups)
	}
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(append(data, '\n'))
	return err
}

// groupedRecords flattens every ResourceRecord across a Lookups aggregate so
// MarshalGrouped's sheriff filtering (which operates over ResourceRecord's
// own group tags) has something field-tagged to trim.
func groupedRecords(lookups *model.Lookups) []model.ResourceRecord {
	var out []model.ResourceRecord
	for _, l := range lookups.Items {
		out = append(out, l.Records()...)
	}
	return out
}

// writeSummary renders the "Received N (min a, max b records) answers
// from M servers" + per-type histogram lines from scenario S1.
func writeSummary(lookups *model.Lookups, showErrors bool) error {
	for _, l := range lookups.Items {
		servers := len(l.Responses)
		min, max := l.MinMaxRecordCount()
		fmt.Printf("%s\n", l.Query.String())
		fmt.Printf("Received %d (min %d, max %d records) answers from %d servers\n", servers, min, max, servers)

		byTypeCount := map[string]map[string]int{}
		for _, rr := range l.Records() {
			val := rdataSummary(rr)
			if byTypeCount[rr.Type] == nil {
				byTypeCount[rr.Type] = map[string]int{}
			}
			byTypeCount[rr.Type][val]++
		}
		for rrType, counts := range byTypeCount {
			for val, n := range counts {
				fmt.Printf("* %s: %s (%d)\n", rrType, val, n)
			}
		}

		if showErrors {
			errCounts := map[string]int{}
			for _, r := range l.Responses {
				if r.Kind == model.KindError {
					errCounts[string(r.ErrorKind)]++
				}
			}
			for kind, n := range errCounts {
				fmt.Printf("! %s errors: %d\n", kind, n)
			}
		}
	}
	return nil
}

func rdataSummary(rr model.ResourceRecord) string {
	switch d := rr.Data.(type) {
	case model.AData:
		return d.Address
	case model.AAAAData:
		return d.Address
	case model.CNAMEData:
		return d.Target
	case model.MXData:
		return fmt.Sprintf("%d %s", d.Preference, d.Exchange)
	case model.NSData:
		return d.Target
	case model.PTRData:
		return d.Target
	case model.TXTData:
		return d.Value
	case model.SRVData:
		return fmt.Sprintf("%d %d %d %s", d.Priority, d.Weight, d.Port, d.Target)
	case model.SOAData:
		return fmt.Sprintf("%s %s %d", d.MName, d.RName, d.Serial)
	default:
		return fmt.Sprintf("%v", d)
	}
}
