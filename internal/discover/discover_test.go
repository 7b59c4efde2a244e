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

package discover

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeStrings(t *testing.T) {
	in := []string{"a.example.com.", "a.example.com", "b.example.com", "", "b.example.com"}
	out := dedupeStrings(in)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, out)
}

func TestFilterSubdomains(t *testing.T) {
	names := []string{"www.example.com", "example.com", "other.com", "sub.www.example.com"}
	out := filterSubdomains(names, "example.com")
	assert.Equal(t, []string{"www.example.com", "sub.www.example.com"}, out)
}

func TestRandomLabelLength(t *testing.T) {
	label, err := randomLabel(16)
	assert.NoError(t, err)
	assert.Equal(t, 16, len(label))
	for _, c := range label {
		assert.True(t, containsRune(alphanum, c))
	}
}

func TestRandomLabelDiffers(t *testing.T) {
	a, err := randomLabel(20)
	assert.NoError(t, err)
	b, err := randomLabel(20)
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestLabelsToBatch(t *testing.T) {
	batch := labelsToBatch("example.com.", []string{"www", "mail"})
	assert.Equal(t, 2, len(batch.Queries))
	assert.Equal(t, "www.example.com.", batch.Queries[0].Name)
	assert.Equal(t, "mail.example.com.", batch.Queries[1].Name)
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}
