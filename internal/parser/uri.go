package parser

import (
	"fmt"
	"net/url"
	"strings"

	"sub-inspector/internal/model"
)

// decodeStandardURI covers schemes that are plain URLs:
// scheme://credential@host:port?params#tag.
// The tag is split off first so a stray "%" or space in it cannot fail
// the whole link.
func decodeStandardURI(raw string, protocol model.Protocol) (model.Node, error) {
	name := strings.ToLower(string(protocol))
	body, tag := splitFragment(raw)

	credential, host, portStr, err := uriParts(body)
	if err != nil {
		return model.Node{}, fmt.Errorf("%w: %s uri: %v", ErrDecode, name, err)
	}
	if host == "" {
		return model.Node{}, fmt.Errorf("%w: %s uri has no host", ErrDecode, name)
	}
	if protocol == model.ProtocolTrojan && credential == "" {
		return model.Node{}, fmt.Errorf("%w: trojan uri has no password", ErrDecode)
	}

	var port int
	if portStr != "" {
		if port, err = parsePort(portStr); err != nil {
			return model.Node{}, fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
		}
	}

	return model.Node{
		Protocol: protocol,
		Tag:      tag,
		Server:   host,
		Port:     port,
	}, nil
}

// uriParts prefers net/url and falls back to cutting the authority by hand
// when the credential holds characters url.Parse refuses.
func uriParts(body string) (credential, host, port string, err error) {
	if u, perr := url.Parse(body); perr == nil {
		return u.User.Username(), u.Hostname(), u.Port(), nil
	}

	_, rest, ok := strings.Cut(body, "://")
	if !ok {
		return "", "", "", fmt.Errorf("no authority in %q", truncate(body, 32))
	}
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		rest = rest[:i]
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		credential, rest = unescapeTag(rest[:at]), rest[at+1:]
	}

	host = rest
	if strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end < 0 {
			return "", "", "", fmt.Errorf("unclosed ipv6 host in %q", truncate(body, 32))
		}
		host, rest = rest[1:end], rest[end+1:]
		port = strings.TrimPrefix(rest, ":")
	} else if h, p, found := strings.Cut(rest, ":"); found {
		host, port = h, p
	}
	return credential, host, port, nil
}
