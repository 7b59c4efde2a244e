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
	"github.com/liip/sheriff"
)

// ModelVersion is compared against sheriff's since/until group tags; it
// gives the Result Model a version axis the way zdns's worker output does,
// even though mhost has never shipped a breaking schema change yet.
const ModelVersion = "1.0.0"

// OutputGroup is the caller-selected verbosity for MarshalGrouped, mirroring
// the teacher CLI worker's sheriff.Options{Groups: gc.OutputGroups} call.
type OutputGroup string

const (
	GroupShort  OutputGroup = "short"
	GroupNormal OutputGroup = "normal"
	GroupLong   OutputGroup = "long"
	GroupTrace  OutputGroup = "trace"
)

// MarshalGrouped renders v (typically a ResourceRecord or a slice of them)
// filtered to the fields tagged for the requested groups.
func MarshalGrouped(v any, groups ...OutputGroup) ([]byte, error) {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = string(g)
	}
	opts := &sheriff.Options{
		Groups:     names,
		ApiVersion: mustVersion(ModelVersion),
	}
	data, err := sheriff.Marshal(opts, v)
	if err != nil {
		return nil, err
	}
	return marshalAny(data)
}
