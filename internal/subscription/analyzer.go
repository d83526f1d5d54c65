package subscription

import (
	"log/slog"
	"net/http"

	"sub-inspector/internal/model"
	"sub-inspector/internal/parser"
	"sub-inspector/internal/region"
	"sub-inspector/internal/report"
	"sub-inspector/internal/traffic"
)

// Locator maps a node server to an ISO country code.
type Locator interface {
	Lookup(host string) (string, bool)
}

type Analyzer struct {
	workers int
	locator Locator
}

type Option func(*Analyzer)

// WithWorkers sets how many entries are decoded concurrently.
func WithWorkers(n int) Option {
	return func(a *Analyzer) { a.workers = n }
}

// WithLocator enables server-location statistics.
func WithLocator(l Locator) Option {
	return func(a *Analyzer) { a.locator = l }
}

func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{workers: 1}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Input is what the fetch step hands over.
type Input struct {
	URL         string
	Body        []byte
	Header      http.Header
	ContentType string
}

type Result struct {
	Report   model.Report
	Warnings []model.Warning
}

// Analyze runs the whole pipeline on one fetched document. It never
// fails: every problem ends up in Warnings and the report is partial or
// empty.
func (a *Analyzer) Analyze(in Input) Result {
	log := slog.With("url", in.URL)
	var warnings []model.Warning

	// 1. Format detection
	format := model.FormatUnrecognized
	doc, err := parser.Detect(in.Body, in.ContentType)
	if err != nil {
		log.Warn("format_unrecognized", "error", err, "bytes", len(in.Body))
		warnings = append(warnings, model.Warning{
			Kind:   model.WarnUnrecognizedFormat,
			Index:  -1,
			Detail: err.Error(),
		})
	} else {
		format = doc.Format
	}

	// 2. Node decoding
	var nodes []model.Node
	for _, res := range parser.Decode(doc, a.workers) {
		if !res.OK() {
			log.Debug("entry_skipped", "index", res.Index, "error", res.Err)
			warnings = append(warnings, model.Warning{
				Kind:   model.WarnDecodeError,
				Index:  res.Index,
				Detail: res.Err.Error(),
			})
			continue
		}
		nodes = append(nodes, a.enrich(res.Node))
	}

	// 3. Traffic
	var userinfo string
	if doc != nil {
		userinfo = doc.Userinfo
	}
	info, trafficWarnings := traffic.FromHeader(in.Header, userinfo)
	warnings = append(warnings, trafficWarnings...)

	// 4. Aggregate
	rep := report.Aggregate(nodes, info, AirportName(in.Header, nodes, in.URL))
	rep.Format = format

	log.Debug("subscription_analyzed",
		"format", format,
		"nodes", len(nodes),
		"warnings", len(warnings),
	)
	return Result{Report: rep, Warnings: warnings}
}

func (a *Analyzer) enrich(n model.Node) model.Node {
	n = n.WithCountry(region.Label(n.Tag))
	if a.locator != nil && n.Server != "" {
		if code, ok := a.locator.Lookup(n.Server); ok {
			n = n.WithServerCountry(code)
		}
	}
	return n
}

// IsUnrecognized reports whether a result carries an UnrecognizedFormat
// warning.
func (r Result) IsUnrecognized() bool {
	for _, w := range r.Warnings {
		if w.Kind == model.WarnUnrecognizedFormat {
			return true
		}
	}
	return false
}
