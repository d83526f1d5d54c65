package model

import (
	"encoding/json"
	"math"
	"time"
)

type TrafficInfo struct {
	Upload   *uint64    `json:"upload,omitempty"`
	Download *uint64    `json:"download,omitempty"`
	Total    *uint64    `json:"total,omitempty"`
	Used     *uint64    `json:"used,omitempty"`
	Expire   *time.Time `json:"expire,omitempty"`
}

// Remaining is total minus used. It goes negative when usage overruns the quota.
func (t *TrafficInfo) Remaining() (int64, bool) {
	if t == nil || t.Total == nil || t.Used == nil {
		return 0, false
	}
	if *t.Total > math.MaxInt64 || *t.Used > math.MaxInt64 {
		return 0, false
	}
	return int64(*t.Total) - int64(*t.Used), true
}

// Count is one bucket of an ordered tally.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Counts is a tally that keeps keys in first-seen order.
type Counts struct {
	items []Count
	index map[string]int
}

func (c *Counts) Inc(key string) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if i, ok := c.index[key]; ok {
		c.items[i].Count++
		return
	}
	c.index[key] = len(c.items)
	c.items = append(c.items, Count{Key: key, Count: 1})
}

func (c *Counts) Get(key string) int {
	if i, ok := c.index[key]; ok {
		return c.items[i].Count
	}
	return 0
}

// Items returns a copy of the buckets in first-seen order.
func (c *Counts) Items() []Count {
	return append([]Count(nil), c.items...)
}

func (c *Counts) Len() int { return len(c.items) }

func (c *Counts) Total() int {
	sum := 0
	for _, it := range c.items {
		sum += it.Count
	}
	return sum
}

func (c Counts) MarshalJSON() ([]byte, error) {
	if c.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.items)
}

type Report struct {
	AirportName     string       `json:"airport_name,omitempty"`
	Format          Format       `json:"format"`
	Nodes           []Node       `json:"nodes"`
	CountryCounts   Counts       `json:"country_counts"`
	ProtocolCounts  Counts       `json:"protocol_counts"`
	ServerCountries Counts       `json:"server_countries"`
	Traffic         *TrafficInfo `json:"traffic,omitempty"`
	UsagePercent    *float64     `json:"usage_percent,omitempty"`
}

func (r *Report) NodeCount() int { return len(r.Nodes) }

type WarningKind string

const (
	WarnUnrecognizedFormat     WarningKind = "UnrecognizedFormat"
	WarnDecodeError            WarningKind = "DecodeError"
	WarnTrafficHeaderMalformed WarningKind = "TrafficHeaderMalformed"
	WarnInconsistentUsage      WarningKind = "InconsistentUsage"
)

// Warning describes a recovered failure. Index is the entry position for
// DecodeError and -1 otherwise.
type Warning struct {
	Kind   WarningKind `json:"kind"`
	Index  int         `json:"index"`
	Detail string      `json:"detail"`
}

func (w Warning) String() string {
	return string(w.Kind) + ": " + w.Detail
}
