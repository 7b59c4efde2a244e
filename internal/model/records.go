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

// ResourceRecord is a typed, JSON-stable rendering of one answer RR.
// Data holds one of the *Data payload types below, matching the RR's Type.
type ResourceRecord struct {
	Name string `json:"name,omitempty" groups:"long,trace"`
	Type string `json:"type" groups:"short,normal,long,trace"`
	TTL  uint32 `json:"ttl" groups:"normal,long,trace"`
	Data any    `json:"data" groups:"short,normal,long,trace"`
}

type AData struct {
	Address string `json:"A"`
}

type AAAAData struct {
	Address string `json:"AAAA"`
}

type ANAMEData struct {
	Target string `json:"ANAME"`
}

type CNAMEData struct {
	Target string `json:"CNAME"`
}

type MXData struct {
	Preference uint16 `json:"preference"`
	Exchange   string `json:"exchange"`
}

type NSData struct {
	Target string `json:"NS"`
}

type PTRData struct {
	Target string `json:"PTR"`
}

type SOAData struct {
	MName   string `json:"mname"`
	RName   string `json:"rname"`
	Serial  uint32 `json:"serial"`
	Refresh uint32 `json:"refresh"`
	Retry   uint32 `json:"retry"`
	Expire  uint32 `json:"expire"`
	Minimum uint32 `json:"minimum"`
}

// StructurallyEqual compares the fields relevant to structural divergence, per the
// SOA authority check (name/serial excluded — those are compared separately).
func (s SOAData) StructurallyEqual(o SOAData) bool {
	return s.MName == o.MName && s.RName == o.RName &&
		s.Refresh == o.Refresh && s.Retry == o.Retry &&
		s.Expire == o.Expire && s.Minimum == o.Minimum
}

type SRVData struct {
	Priority uint16 `json:"priority"`
	Weight   uint16 `json:"weight"`
	Port     uint16 `json:"port"`
	Target   string `json:"target"`
}

type TXTData struct {
	Value string `json:"TXT"`
}

type NULLData struct {
	Raw string `json:"raw"`
}

type CAAData struct {
	Flag  uint8  `json:"flag"`
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// UnsupportedData is the fallthrough for RR types mhost does not model
// explicitly; TypeCode is the numeric RR type, Raw its string rendering.
type UnsupportedData struct {
	TypeCode uint16 `json:"type_code"`
	Raw      string `json:"raw"`
}
