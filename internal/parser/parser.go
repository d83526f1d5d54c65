package parser

import (
	"errors"
	"fmt"
	"strings"

	"sub-inspector/internal/model"

	"golang.org/x/sync/errgroup"
)

var (
	ErrUnrecognizedFormat = errors.New("unrecognized subscription format")
	ErrDecode             = errors.New("decode failed")
	ErrUnsupportedScheme  = errors.New("unsupported scheme")
)

// Result holds the outcome of decoding one entry. Exactly one of Node or
// Err is meaningful.
type Result struct {
	Index int
	Node  model.Node
	Err   error
}

func (r Result) OK() bool { return r.Err == nil }

// DecodeEntry dispatches one raw entry to the decoder for its scheme or
// clash type.
func DecodeEntry(e Entry) (model.Node, error) {
	if e.Proxy != nil {
		return decodeClashProxy(e.Proxy)
	}
	return DecodeLink(e.Raw)
}

// DecodeLink decodes a single proxy URI.
func DecodeLink(raw string) (model.Node, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.Node{}, fmt.Errorf("%w: empty link", ErrDecode)
	}

	scheme, _, ok := strings.Cut(raw, "://")
	if !ok {
		return model.Node{}, fmt.Errorf("%w: no scheme in %q", ErrDecode, truncate(raw, 32))
	}
	scheme = strings.ToLower(scheme)

	var (
		node     model.Node
		err      error
		protocol model.Protocol
	)
	switch scheme {
	case "ss":
		protocol = model.ProtocolSS
		node, err = decodeSS(raw)
	case "ssr":
		protocol = model.ProtocolSSR
		node, err = decodeSSR(raw)
	case "vmess":
		protocol = model.ProtocolVMess
		node = decodeVMess(raw)
	case "vless":
		protocol = model.ProtocolVLess
		node, err = decodeStandardURI(raw, protocol)
	case "trojan":
		protocol = model.ProtocolTrojan
		node, err = decodeStandardURI(raw, protocol)
	case "hysteria", "hysteria2", "hy2":
		protocol = model.ProtocolHysteria
		node, err = decodeStandardURI(raw, protocol)
	default:
		return model.Node{}, fmt.Errorf("%w: %s", ErrUnsupportedScheme, scheme)
	}
	if err != nil {
		// second opinion on shapes our decoders reject
		converted, convErr := convertLink(raw, protocol)
		if convErr != nil {
			return model.Node{}, err
		}
		node = converted
	}

	node.Raw = raw
	node.Scheme = scheme
	if node.Server == "" {
		node.Server, node.Port = endpointFallback(raw)
	}
	if node.Server == "" {
		node.Server, node.Port = convertEndpoint(raw)
	}
	return node, nil
}

// Decode runs every entry of doc through DecodeEntry using up to workers
// goroutines. Results come back in document order.
func Decode(doc *Document, workers int) []Result {
	if doc == nil || len(doc.Entries) == 0 {
		return nil
	}
	results := make([]Result, len(doc.Entries))

	if workers <= 1 {
		for i, e := range doc.Entries {
			node, err := DecodeEntry(e)
			results[i] = Result{Index: i, Node: node, Err: err}
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, e := range doc.Entries {
		g.Go(func() error {
			node, err := DecodeEntry(e)
			results[i] = Result{Index: i, Node: node, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
