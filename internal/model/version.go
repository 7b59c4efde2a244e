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
	"encoding/json"

	"github.com/hashicorp/go-version"
)

func mustVersion(s string) *version.Version {
	v, err := version.NewVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func marshalAny(v any) ([]byte, error) {
	return json.Marshal(v)
}
