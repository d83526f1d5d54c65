package parser

import (
	"fmt"
	"net/url"
	"strings"

	"sub-inspector/internal/model"
)

// decodeSS handles both SIP002 (ss://userinfo@host:port) and the legacy
// form where everything before the fragment is base64.
func decodeSS(raw string) (model.Node, error) {
	body, tag := splitFragment(strings.TrimPrefix(raw[len("ss"):], "://"))
	body, _, _ = strings.Cut(body, "?")
	body = strings.TrimSuffix(body, "/")

	var userinfo, hostport string
	if at := strings.LastIndex(body, "@"); at >= 0 {
		userinfo, hostport = body[:at], body[at+1:]
		if decoded, err := decodeBase64(userinfo); err == nil && strings.Contains(string(decoded), ":") {
			userinfo = string(decoded)
		} else if unescaped, err := url.PathUnescape(userinfo); err == nil {
			userinfo = unescaped
		}
	} else {
		decoded, err := decodeBase64(body)
		if err != nil {
			return model.Node{}, fmt.Errorf("%w: ss payload: %v", ErrDecode, err)
		}
		at := strings.LastIndex(string(decoded), "@")
		if at < 0 {
			return model.Node{}, fmt.Errorf("%w: ss payload has no server", ErrDecode)
		}
		userinfo, hostport = string(decoded[:at]), string(decoded[at+1:])
	}

	method, password, ok := strings.Cut(userinfo, ":")
	if !ok || method == "" || password == "" {
		return model.Node{}, fmt.Errorf("%w: ss credentials", ErrDecode)
	}
	host, port, err := splitHostPort(hostport)
	if err != nil {
		return model.Node{}, fmt.Errorf("%w: ss server: %v", ErrDecode, err)
	}

	return model.Node{
		Protocol: model.ProtocolSS,
		Tag:      tag,
		Server:   host,
		Port:     port,
	}, nil
}
