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
	"fmt"

	"github.com/pkg/errors"

	"github.com/zmap/mhost/internal/nameserver"
)

// ServerListsCommand manages the file consumed by --nameservers-from-file.
// Fetching third-party public-dns/opennic lists is an external collaborator's
// job; this command only validates and reports on the shape of a list already
// on disk.
type ServerListsCommand struct {
	Validate string `long:"validate" description:"parse a name-server list file and report how many entries were usable"`
}

func (c *ServerListsCommand) Execute(args []string) error {
	if c.Validate == "" {
		lastExitCode = exitUserError
		return errors.New("server-lists requires --validate=<file>; fetching remote lists is out of scope for mhost itself")
	}

	pool, err := nameserver.Build(nameserver.Config{NameServersFromFile: c.Validate})
	if err != nil {
		lastExitCode = exitOperationalError
		return err
	}
	fmt.Printf("%d usable name server(s) in %s\n", len(pool.Lookup()), c.Validate)
	return nil
}
