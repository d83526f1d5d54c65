package parser

import (
	"fmt"
	"strconv"
	"strings"

	"sub-inspector/internal/model"

	"gopkg.in/yaml.v3"
)

// clashPort accepts both `port: 443` and `port: "443"`. Anything else
// leaves the port unset; it is informational only.
type clashPort int

func (p *clashPort) UnmarshalYAML(value *yaml.Node) error {
	if n, err := strconv.Atoi(strings.TrimSpace(value.Value)); err == nil {
		*p = clashPort(n)
	}
	return nil
}

type clashProxy struct {
	Name   string    `yaml:"name"`
	Type   string    `yaml:"type"`
	Server string    `yaml:"server"`
	Port   clashPort `yaml:"port"`
}

var clashTypes = map[string]model.Protocol{
	"ss":           model.ProtocolSS,
	"shadowsocks":  model.ProtocolSS,
	"ssr":          model.ProtocolSSR,
	"shadowsocksr": model.ProtocolSSR,
	"vmess":        model.ProtocolVMess,
	"vless":        model.ProtocolVLess,
	"trojan":       model.ProtocolTrojan,
	"hysteria":     model.ProtocolHysteria,
	"hysteria2":    model.ProtocolHysteria,
	"hy2":          model.ProtocolHysteria,
	"http":         model.ProtocolHTTP,
}

func clashProtocol(typ string) model.Protocol {
	if p, ok := clashTypes[typ]; ok {
		return p
	}
	return model.ProtocolOther
}

func decodeClashProxy(n *yaml.Node) (model.Node, error) {
	if n.Kind != yaml.MappingNode {
		return model.Node{}, fmt.Errorf("%w: proxy entry is not a mapping", ErrDecode)
	}

	var p clashProxy
	if err := n.Decode(&p); err != nil {
		return model.Node{}, fmt.Errorf("%w: proxy entry: %v", ErrDecode, err)
	}
	typ := strings.ToLower(strings.TrimSpace(p.Type))
	if typ == "" {
		return model.Node{}, fmt.Errorf("%w: proxy %q has no type", ErrDecode, p.Name)
	}

	return model.Node{
		Raw:      flowYAML(n),
		Protocol: clashProtocol(typ),
		Scheme:   typ,
		Tag:      strings.TrimSpace(p.Name),
		Server:   p.Server,
		Port:     int(p.Port),
	}, nil
}

// flowYAML renders a proxy mapping on one line, the way it would appear
// in an inline clash list.
func flowYAML(n *yaml.Node) string {
	flow := *n
	flow.Style = yaml.FlowStyle
	out, err := yaml.Marshal(&flow)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
