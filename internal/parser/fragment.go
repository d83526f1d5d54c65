package parser

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// splitFragment separates "body#tag" and percent-decodes the tag.
func splitFragment(raw string) (string, string) {
	body, frag, ok := strings.Cut(raw, "#")
	if !ok {
		return raw, ""
	}
	return body, unescapeTag(frag)
}

func unescapeTag(s string) string {
	if tag, err := url.PathUnescape(s); err == nil {
		return strings.TrimSpace(tag)
	}
	return strings.TrimSpace(s)
}

// splitHostPort accepts "host:port" and "[v6]:port".
func splitHostPort(hostport string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return "", 0, err
	}
	if host == "" {
		return "", 0, fmt.Errorf("missing host in %q", hostport)
	}
	port, err := parsePort(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return port, nil
}
