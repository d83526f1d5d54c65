package report

import (
	"math"

	"sub-inspector/internal/model"
	"sub-inspector/internal/region"
)

// Aggregate builds a report from decoded nodes. It has no side effects and
// returns equal reports for equal inputs; buckets keep first-seen order.
func Aggregate(nodes []model.Node, traffic *model.TrafficInfo, airportName string) model.Report {
	r := model.Report{
		AirportName: airportName,
		Nodes:       append([]model.Node(nil), nodes...),
		Traffic:     traffic,
	}

	for _, n := range r.Nodes {
		country := n.Country
		if country == "" {
			country = region.Unknown.Name
		}
		r.CountryCounts.Inc(country)
		r.ProtocolCounts.Inc(string(n.Protocol))
		if n.ServerCountry != "" {
			r.ServerCountries.Inc(n.ServerCountry)
		}
	}

	r.UsagePercent = UsagePercent(traffic)
	return r
}

// UsagePercent is used/total*100 rounded to one decimal, or nil when
// either side is unknown or total is zero.
func UsagePercent(t *model.TrafficInfo) *float64 {
	if t == nil || t.Used == nil || t.Total == nil || *t.Total == 0 {
		return nil
	}
	pct := math.Round(float64(*t.Used)/float64(*t.Total)*1000) / 10
	return &pct
}
