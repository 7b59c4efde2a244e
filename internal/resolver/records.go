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

package resolver

import (
	"github.com/miekg/dns"

	"github.com/zmap/mhost/internal/model"
)

// ConvertRecords maps miekg/dns RR values onto mhost's stable
// ResourceRecord/*Data schema, covering the RR types spec.md §3 names,
// with UnsupportedData as the fallthrough.
func ConvertRecords(rrs []dns.RR) []model.ResourceRecord {
	out := make([]model.ResourceRecord, 0, len(rrs))
	for _, rr := range rrs {
		out = append(out, convertOne(rr))
	}
	return out
}

func convertOne(rr dns.RR) model.ResourceRecord {
	hdr := rr.Header()
	base := model.ResourceRecord{Name: hdr.Name, TTL: hdr.Ttl}

	switch v := rr.(type) {
	case *dns.A:
		base.Type = "A"
		base.Data = model.AData{Address: v.A.String()}
	case *dns.AAAA:
		base.Type = "AAAA"
		base.Data = model.AAAAData{Address: v.AAAA.String()}
	case *dns.CNAME:
		base.Type = "CNAME"
		base.Data = model.CNAMEData{Target: v.Target}
	case *dns.MX:
		base.Type = "MX"
		base.Data = model.MXData{Preference: v.Preference, Exchange: v.Mx}
	case *dns.NS:
		base.Type = "NS"
		base.Data = model.NSData{Target: v.Ns}
	case *dns.PTR:
		base.Type = "PTR"
		base.Data = model.PTRData{Target: v.Ptr}
	case *dns.SOA:
		base.Type = "SOA"
		base.Data = model.SOAData{
			MName: v.Ns, RName: v.Mbox, Serial: v.Serial,
			Refresh: v.Refresh, Retry: v.Retry, Expire: v.Expire, Minimum: v.Minttl,
		}
	case *dns.SRV:
		base.Type = "SRV"
		base.Data = model.SRVData{Priority: v.Priority, Weight: v.Weight, Port: v.Port, Target: v.Target}
	case *dns.TXT:
		base.Type = "TXT"
		joined := ""
		for i, s := range v.Txt {
			if i > 0 {
				joined += ""
			}
			joined += s
		}
		base.Data = model.TXTData{Value: joined}
	case *dns.NULL:
		base.Type = "NULL"
		base.Data = model.NULLData{Raw: v.Data}
	case *dns.CAA:
		base.Type = "CAA"
		base.Data = model.CAAData{Flag: v.Flag, Tag: v.Tag, Value: v.Value}
	default:
		base.Type = "Unsupported"
		base.Data = model.UnsupportedData{TypeCode: hdr.Rrtype, Raw: rr.String()}
	}
	return base
}
