package parser

import (
	"fmt"
	"log/slog"

	"github.com/metacubex/mihomo/common/convert"

	"sub-inspector/internal/model"
)

// convertLink runs one share link through mihomo's converter. It is the
// second opinion for links our decoders rejected, so the result must carry
// everything the matching decoder would have required.
func convertLink(raw string, protocol model.Protocol) (node model.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("convert_panic", "panic", r)
			node, err = model.Node{}, fmt.Errorf("%w: converter panic", ErrDecode)
		}
	}()

	proxies, err := convert.ConvertsV2Ray([]byte(raw))
	if err != nil || len(proxies) != 1 {
		return model.Node{}, fmt.Errorf("%w: converter rejected link", ErrDecode)
	}
	p := proxies[0]

	server, _ := p["server"].(string)
	port := portFromAny(p["port"])
	if server == "" || port == 0 {
		return model.Node{}, fmt.Errorf("%w: converter found no endpoint", ErrDecode)
	}
	switch protocol {
	case model.ProtocolSS, model.ProtocolSSR:
		if !nonEmpty(p, "cipher", "password") {
			return model.Node{}, fmt.Errorf("%w: converter found no credentials", ErrDecode)
		}
	case model.ProtocolTrojan:
		if !nonEmpty(p, "password") {
			return model.Node{}, fmt.Errorf("%w: trojan has no password", ErrDecode)
		}
	}

	name, _ := p["name"].(string)
	return model.Node{
		Protocol: protocol,
		Tag:      unescapeTag(name),
		Server:   server,
		Port:     port,
	}, nil
}

// convertEndpoint asks the converter only for a server and port.
func convertEndpoint(raw string) (string, int) {
	n, err := convertLink(raw, model.ProtocolOther)
	if err != nil {
		return "", 0
	}
	return n.Server, n.Port
}

func nonEmpty(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if s, _ := m[k].(string); s == "" {
			return false
		}
	}
	return true
}
