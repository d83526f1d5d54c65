package parser

import (
	"fmt"
	"net/url"
	"strings"

	"sub-inspector/internal/model"
)

// decodeSSR decodes ssr://base64(host:port:protocol:method:obfs:base64pass/?params).
func decodeSSR(raw string) (model.Node, error) {
	body, tag := splitFragment(strings.TrimPrefix(raw[len("ssr"):], "://"))

	decoded, err := decodeBase64(body)
	if err != nil {
		return model.Node{}, fmt.Errorf("%w: ssr payload: %v", ErrDecode, err)
	}

	main, params, _ := strings.Cut(string(decoded), "/?")
	main = strings.TrimSuffix(main, "/")

	// host may be an IPv6 literal, so count fields from the right.
	parts := strings.Split(main, ":")
	if len(parts) < 6 {
		return model.Node{}, fmt.Errorf("%w: ssr expects 6 fields, got %d", ErrDecode, len(parts))
	}
	n := len(parts)
	host := strings.Trim(strings.Join(parts[:n-5], ":"), "[]")
	if host == "" {
		return model.Node{}, fmt.Errorf("%w: ssr missing host", ErrDecode)
	}
	port, err := parsePort(parts[n-5])
	if err != nil {
		return model.Node{}, fmt.Errorf("%w: ssr: %v", ErrDecode, err)
	}
	if _, err := decodeBase64(parts[n-1]); err != nil {
		return model.Node{}, fmt.Errorf("%w: ssr password: %v", ErrDecode, err)
	}

	if tag == "" && params != "" {
		if q, err := url.ParseQuery(params); err == nil {
			if remarks, err := decodeBase64(q.Get("remarks")); err == nil {
				tag = strings.TrimSpace(string(remarks))
			}
		}
	}

	return model.Node{
		Protocol: model.ProtocolSSR,
		Tag:      tag,
		Server:   host,
		Port:     port,
	}, nil
}
