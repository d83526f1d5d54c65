package model

import (
	"encoding/json"
	"testing"
)

func TestCountsKeepFirstSeenOrder(t *testing.T) {
	var c Counts
	for _, k := range []string{"Japan", "Hong Kong", "Japan", "Unknown", "Hong Kong", "Japan"} {
		c.Inc(k)
	}
	items := c.Items()
	if len(items) != 3 || items[0].Key != "Japan" || items[1].Key != "Hong Kong" || items[2].Key != "Unknown" {
		t.Fatalf("unexpected order %v", items)
	}
	if c.Get("Japan") != 3 || c.Get("missing") != 0 || c.Total() != 6 {
		t.Fatalf("unexpected counts %v", items)
	}

	items[0].Count = 100
	if c.Get("Japan") != 3 {
		t.Fatalf("Items must return a copy")
	}
}

func TestCountsJSON(t *testing.T) {
	var empty Counts
	data, err := json.Marshal(Report{CountryCounts: empty})
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if string(out["country_counts"]) != "[]" {
		t.Fatalf("empty counts should encode as [], got %s", out["country_counts"])
	}

	var c Counts
	c.Inc("SS")
	c.Inc("SS")
	data, _ = json.Marshal(c)
	if string(data) != `[{"key":"SS","count":2}]` {
		t.Fatalf("unexpected json %s", data)
	}
}

func TestRemaining(t *testing.T) {
	u, tot := uint64(1100), uint64(1000)
	if rem, ok := (&TrafficInfo{Used: &u, Total: &tot}).Remaining(); !ok || rem != -100 {
		t.Fatalf("got %d, %v", rem, ok)
	}
	if _, ok := (&TrafficInfo{Total: &tot}).Remaining(); ok {
		t.Fatalf("remaining needs used")
	}
}

func TestNodeEnrichmentCopies(t *testing.T) {
	n := Node{Tag: "HK 01"}
	m := n.WithCountry("Hong Kong").WithServerCountry("HK")
	if n.Country != "" || m.Country != "Hong Kong" || m.ServerCountry != "HK" {
		t.Fatalf("unexpected nodes %+v %+v", n, m)
	}
}

func TestRemainingOutOfRange(t *testing.T) {
	u, tot := uint64(1), uint64(1)<<63
	if _, ok := (&TrafficInfo{Used: &u, Total: &tot}).Remaining(); ok {
		t.Fatalf("totals above int64 must not produce a remaining value")
	}
}
