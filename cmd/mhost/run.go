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
	"time"

	"github.com/pkg/errors"

	"github.com/zmap/mhost/internal/model"
	"github.com/zmap/mhost/internal/nameserver"
	"github.com/zmap/mhost/internal/sysconf"
)

func buildPool(gc GlobalOptions) (*nameserver.Pool, error) {
	var filter []model.Transport
	for _, t := range gc.PredefinedFilter {
		filter = append(filter, model.Transport(t))
	}
	cfg := nameserver.Config{
		NameServers:         gc.NameServers,
		NameServersFromFile: gc.NameServersFromFile,
		Predefined:          gc.Predefined,
		PredefinedFilter:    filter,
		NoSystemNameservers: gc.NoSystemNameservers,
		SystemNameserverIPs: gc.SystemNameserverIPs,
		NoSystemLookups:     gc.NoSystemLookups,
		ResolvConfFile:      gc.ResolvConfFile,
		UseSystemResolvOpt:  gc.UseSystemResolvOpt,
		Limit:               gc.Limit,
		BlacklistFile:       gc.BlacklistFile,
	}
	pool, err := nameserver.Build(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "building name server pool")
	}
	return pool, nil
}

func buildBudgets(gc GlobalOptions) (model.Budgets, error) {
	b := model.DefaultBudgets()
	b.MaxConcurrentServers = gc.MaxConcurrentServers
	b.MaxConcurrentRequestsPerServer = gc.MaxConcurrentRequests
	b.Retries = gc.Retries
	b.Timeout = time.Duration(gc.TimeoutSeconds) * time.Second
	b.WaitMultipleResponses = gc.WaitMultipleResponses
	b.AbortOnError = !gc.NoAbortOnError && !gc.NoAborts
	b.AbortOnTimeout = !gc.NoAbortOnTimeout && !gc.NoAborts
	b.Limit = gc.Limit
	if gc.UseSystemResolvOpt {
		if conf, err := sysconf.Load(gc.ResolvConfFile); err == nil {
			if conf.Timeout > 0 {
				b.Timeout = conf.Timeout
			}
			if conf.Attempts > 0 {
				b.Retries = conf.Attempts - 1
			}
		}
	}

	switch model.ResolversMode(gc.ResolversMode) {
	case model.ModeMulti, "":
		b.ResolversMode = model.ModeMulti
	case model.ModeUni:
		b.ResolversMode = model.ModeUni
	default:
		return b, errors.Errorf("config error: unknown resolvers-mode %q", gc.ResolversMode)
	}
	return b, nil
}
