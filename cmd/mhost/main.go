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

// Command mhost is the CLI entry point: argument parsing, pool/budget
// construction, and dispatch into the lookup/discover/check pipelines.
// Everything domain-specific lives under internal/; this package is
// intentionally thin, matching the split the teacher draws between
// src/cli (external collaborator surface) and src/zdns (the core).
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	flags "github.com/zmap/zflags"

	"github.com/zmap/mhost/internal/nameserver"
)

const mhostVersion = "0.1.0"

// exitCode taxonomy from spec.md §6.
const (
	exitSuccess          = 0
	exitUserError        = 1
	exitOperationalError = 2
	exitLintIssuesFound  = 3
)

type rootOptions struct {
	GlobalOptions
	Lookup      LookupCommand      `command:"lookup" description:"query a name, IP, CIDR, or service spec against the pool"`
	Discover    DiscoverCommand    `command:"discover" description:"walk a zone for wildcard behavior and discoverable names"`
	Check       CheckCommand       `command:"check" description:"audit SOA consistency, CNAME placement, and SPF validity"`
	ServerLists ServerListsCommand `command:"server-lists" description:"fetch or manage third-party name-server lists"`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

var parsedOpts rootOptions

func loadGlobals() (GlobalOptions, error) {
	return parsedOpts.GlobalOptions, nil
}

func run(args []string) int {
	opts := &parsedOpts
	parser := flags.NewParser(opts, flags.Default)
	parser.CommandHandler = func(command flags.Commander, cmdArgs []string) error {
		configureLogging(opts.GlobalOptions)
		if opts.ListPredefined {
			for _, ns := range nameserver.Predefined {
				fmt.Printf("%s (%s)\n", ns.String(), ns.Label)
			}
			return nil
		}
		if command == nil {
			return fmt.Errorf("no command given; expected lookup, discover, check, or server-lists")
		}
		return command.Execute(cmdArgs)
	}

	if _, err := parser.ParseArgs(args); err != nil {
		if code, ok := exitCodeFor(err); ok {
			return code
		}
		fmt.Fprintln(os.Stderr, err)
		return exitUserError
	}
	return lastExitCode
}

// lastExitCode lets a command's Execute report a richer outcome (e.g.
// exitLintIssuesFound for `check`) without changing the flags.Commander
// interface's plain error return.
var lastExitCode = exitSuccess

func exitCodeFor(err error) (int, bool) {
	if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
		return exitSuccess, true
	}
	return 0, false
}

func configureLogging(gc GlobalOptions) {
	logrus.SetOutput(os.Stderr)
	switch {
	case gc.Debug:
		logrus.SetLevel(logrus.DebugLevel)
	case gc.Verbose:
		logrus.SetLevel(logrus.InfoLevel)
	case gc.Quiet:
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.WarnLevel)
	}
}

var _ = mhostVersion
