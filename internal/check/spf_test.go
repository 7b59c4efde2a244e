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

package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSPFValid(t *testing.T) {
	tests := []string{
		"v=spf1 mx include:_spf.google.com -all",
		"v=spf1 a a:example.com ip4:192.0.2.0/24 ip6:2001:db8::/32 -all",
		"v=spf1 redirect=_spf.example.com",
		"v=spf1 ~all",
	}
	for _, record := range tests {
		assert.NoError(t, parseSPF(record), record)
	}
}

func TestParseSPFMissingVersion(t *testing.T) {
	assert.Error(t, parseSPF("mx include:_spf.google.com -all"))
}

func TestParseSPFUnknownMechanism(t *testing.T) {
	assert.Error(t, parseSPF("v=spf1 bogus-mechanism -all"))
}

func TestParseSPFEmptyTerm(t *testing.T) {
	assert.Error(t, parseSPF("v=spf1 - -all"))
}

func TestSPFPrefixRegexpCaseInsensitive(t *testing.T) {
	assert.True(t, spfPrefixRegexp.MatchString("V=SPF1 -all"))
	assert.False(t, spfPrefixRegexp.MatchString("not an spf record"))
}
