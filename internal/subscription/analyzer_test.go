package subscription

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"sub-inspector/internal/model"
)

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func goodLinks() []string {
	return []string{
		"ss://" + b64("aes-256-gcm:secret") + "@1.2.3.4:8388#HK%20%E9%A6%99%E6%B8%AF%2001",
		"vmess://" + b64(`{"ps":"美国 US 01","add":"8.8.8.8","port":"443"}`),
		"trojan://pw@tr.example.com:443#%F0%9F%87%AF%F0%9F%87%B5%20Tokyo",
		"vless://id@5.6.7.8:443#HK%2002",
	}
}

func usageHeader() http.Header {
	h := http.Header{}
	h.Set("Subscription-Userinfo", "upload=100; download=50; total=1000; expire=1893456000")
	return h
}

func TestAnalyzeBase64Subscription(t *testing.T) {
	a := NewAnalyzer(WithWorkers(4))
	res := a.Analyze(Input{
		URL:    "https://sub.example.com/link?token=abc",
		Body:   []byte(b64(strings.Join(goodLinks(), "\n"))),
		Header: usageHeader(),
	})

	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}
	r := res.Report
	if r.Format != model.FormatBase64NodeList {
		t.Fatalf("expected base64 format, got %s", r.Format)
	}
	if r.NodeCount() != 4 {
		t.Fatalf("expected 4 nodes, got %d", r.NodeCount())
	}
	if r.CountryCounts.Total() != r.NodeCount() || r.ProtocolCounts.Total() != r.NodeCount() {
		t.Fatalf("bucket totals must equal node count")
	}
	if r.CountryCounts.Get("Hong Kong") != 2 || r.CountryCounts.Get("United States") != 1 || r.CountryCounts.Get("Japan") != 1 {
		t.Fatalf("unexpected countries: %v", r.CountryCounts.Items())
	}
	if first := r.CountryCounts.Items()[0].Key; first != "Hong Kong" {
		t.Fatalf("expected first-seen order, got %q first", first)
	}
	if r.Nodes[0].Country != "Hong Kong" {
		t.Fatalf("node not enriched: %+v", r.Nodes[0])
	}
	if r.Traffic == nil || *r.Traffic.Used != 150 || *r.Traffic.Total != 1000 {
		t.Fatalf("unexpected traffic: %+v", r.Traffic)
	}
	if !r.Traffic.Expire.Equal(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected expiry %v", r.Traffic.Expire)
	}
	if r.UsagePercent == nil || *r.UsagePercent != 15.0 {
		t.Fatalf("expected usage 15.0, got %v", r.UsagePercent)
	}
	if r.AirportName != "example.com" {
		t.Fatalf("expected host-derived name, got %q", r.AirportName)
	}
}

func TestAnalyzeOneBadEntry(t *testing.T) {
	links := goodLinks()
	withBad := append([]string{}, links[:2]...)
	withBad = append(withBad, "ss://"+b64("no-server-here"))
	withBad = append(withBad, links[2:]...)

	res := NewAnalyzer().Analyze(Input{Body: []byte(b64(strings.Join(withBad, "\n")))})

	if res.Report.NodeCount() != len(links) {
		t.Fatalf("expected %d nodes, got %d", len(links), res.Report.NodeCount())
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %v", res.Warnings)
	}
	if w := res.Warnings[0]; w.Kind != model.WarnDecodeError || w.Index != 2 {
		t.Fatalf("unexpected warning: %+v", w)
	}
}

func TestAnalyzeUnparseableBody(t *testing.T) {
	for _, body := range []string{"", "<html>gateway timeout</html>"} {
		res := NewAnalyzer().Analyze(Input{Body: []byte(body)})
		if res.Report.NodeCount() != 0 {
			t.Fatalf("expected zero nodes")
		}
		if res.Report.Traffic != nil {
			t.Fatalf("expected absent traffic")
		}
		if !res.IsUnrecognized() || res.Report.Format != model.FormatUnrecognized {
			t.Fatalf("expected UnrecognizedFormat, got %v", res.Warnings)
		}
	}
}

func TestAnalyzeUnparseableBodyStillReadsTraffic(t *testing.T) {
	res := NewAnalyzer().Analyze(Input{Body: []byte("nope"), Header: usageHeader()})
	if !res.IsUnrecognized() {
		t.Fatalf("expected UnrecognizedFormat warning")
	}
	if res.Report.Traffic == nil || *res.Report.Traffic.Used != 150 {
		t.Fatalf("expected traffic from header, got %+v", res.Report.Traffic)
	}
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	body := []byte(b64(strings.Join(append(goodLinks(), "garbage"), "\n")))
	a := NewAnalyzer(WithWorkers(8))

	first, err := json.Marshal(a.Analyze(Input{URL: "https://x.test/s", Body: body, Header: usageHeader()}))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(a.Analyze(Input{URL: "https://x.test/s", Body: body, Header: usageHeader()}))
		if err != nil {
			t.Fatal(err)
		}
		if string(first) != string(again) {
			t.Fatalf("run %d differs:\n%s\n%s", i, first, again)
		}
	}
}

func TestAnalyzeClashDocument(t *testing.T) {
	doc := `
subscription-userinfo: upload=10; download=20; total=100; expire=0
proxies:
  - {name: "Demo - 香港 01", type: ss, server: 1.1.1.1, port: 1}
  - {name: "Demo - 日本 01", type: hysteria2, server: 2.2.2.2, port: 2}
  - {name: "Demo | 自建", type: wireguard, server: 3.3.3.3, port: 3}
  - "not a mapping"
`
	res := NewAnalyzer().Analyze(Input{Body: []byte(doc)})
	r := res.Report
	if r.Format != model.FormatClashYAML {
		t.Fatalf("expected clash format, got %s", r.Format)
	}
	if r.NodeCount() != 3 || len(res.Warnings) != 1 {
		t.Fatalf("expected 3 nodes and 1 warning, got %d / %v", r.NodeCount(), res.Warnings)
	}
	if r.ProtocolCounts.Get("Other") != 1 || r.ProtocolCounts.Get("Hysteria") != 1 {
		t.Fatalf("unexpected protocols: %v", r.ProtocolCounts.Items())
	}
	if r.CountryCounts.Get("Unknown") != 1 {
		t.Fatalf("unknown type should still be counted: %v", r.CountryCounts.Items())
	}
	if r.Traffic == nil || *r.Traffic.Used != 30 || r.Traffic.Expire != nil {
		t.Fatalf("expected traffic from embedded field, got %+v", r.Traffic)
	}
	if r.AirportName != "Demo" {
		t.Fatalf("expected tag-prefix name, got %q", r.AirportName)
	}
}

type mapLocator map[string]string

func (m mapLocator) Lookup(host string) (string, bool) {
	code, ok := m[host]
	return code, ok
}

func TestAnalyzeWithLocator(t *testing.T) {
	a := NewAnalyzer(WithLocator(mapLocator{"1.2.3.4": "HK", "8.8.8.8": "US"}))
	res := a.Analyze(Input{Body: []byte(b64(strings.Join(goodLinks(), "\n")))})

	sc := res.Report.ServerCountries
	if sc.Len() != 2 || sc.Get("HK") != 1 || sc.Get("US") != 1 {
		t.Fatalf("unexpected server countries: %v", sc.Items())
	}
	if res.Report.Nodes[0].ServerCountry != "HK" {
		t.Fatalf("node missing server country: %+v", res.Report.Nodes[0])
	}
}

func TestAnalyzeInconsistentUsage(t *testing.T) {
	h := http.Header{}
	h.Set("Subscription-Userinfo", "upload=900; download=200; total=1000")
	res := NewAnalyzer().Analyze(Input{Body: []byte(b64(goodLinks()[0])), Header: h})

	if len(res.Warnings) != 1 || res.Warnings[0].Kind != model.WarnInconsistentUsage {
		t.Fatalf("expected InconsistentUsage, got %v", res.Warnings)
	}
	if *res.Report.UsagePercent != 110.0 {
		t.Fatalf("usage should not be clamped, got %v", *res.Report.UsagePercent)
	}
}

func TestAirportName(t *testing.T) {
	cases := []struct {
		name string
		cd   string
		tags []string
		url  string
		want string
	}{
		{"rfc5987", `attachment; filename*=UTF-8''%E4%B8%89%E5%88%86%E6%9C%BA%E5%9C%BA.yaml`, nil, "", "三分机场"},
		{"quoted", `attachment; filename="MyAirport.txt"`, nil, "", "MyAirport"},
		{"prefix", "", []string{"Foo - HK 01", "Bar | US", "Foo - JP"}, "https://a.test", "Foo"},
		{"prefix tie", "", []string{"B-1", "A-1"}, "", "B"},
		{"host", "", []string{"HK 01"}, "https://sub.example.com/api?token=1", "example.com"},
		{"nothing", "", nil, "not a url", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := http.Header{}
			if tc.cd != "" {
				h.Set("Content-Disposition", tc.cd)
			}
			var nodes []model.Node
			for _, tag := range tc.tags {
				nodes = append(nodes, model.Node{Tag: tag})
			}
			if got := AirportName(h, nodes, tc.url); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
