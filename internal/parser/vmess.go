package parser

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"sub-inspector/internal/model"
)

// vmessConfig is the v2rayN share format. Port and aid appear as both
// numbers and strings in the wild.
type vmessConfig struct {
	Ps   string `json:"ps"`
	Add  string `json:"add"`
	Port any    `json:"port"`
	ID   string `json:"id"`
	Net  string `json:"net"`
}

// decodeVMess never fails: a vmess:// prefix alone identifies the
// protocol, so a broken payload degrades to an untagged node.
func decodeVMess(raw string) model.Node {
	payload := strings.TrimSpace(raw[len("vmess://"):])
	body, fragTag := splitFragment(payload)

	node := model.Node{Protocol: model.ProtocolVMess}

	cfg, err := parseVMessJSON(body)
	if err != nil {
		slog.Debug("vmess_payload_degraded", "error", err)
		node.Tag = fragTag
		// vmess://uuid@host:port?...#tag
		if strings.Contains(body, "@") {
			if u, err := url.Parse(raw); err == nil {
				node.Server = u.Hostname()
				node.Port, _ = parsePort(u.Port())
			}
		}
		return node
	}

	node.Tag = strings.TrimSpace(cfg.Ps)
	if node.Tag == "" {
		node.Tag = fragTag
	}
	node.Server = cfg.Add
	node.Port = portFromAny(cfg.Port)
	return node
}

func parseVMessJSON(body string) (*vmessConfig, error) {
	decoded, err := decodeBase64(body)
	if err != nil {
		return nil, fmt.Errorf("base64: %w", err)
	}
	var cfg vmessConfig
	if err := json.Unmarshal(decoded, &cfg); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return &cfg, nil
}

func portFromAny(v any) int {
	switch p := v.(type) {
	case int:
		if p >= 1 && p <= 65535 {
			return p
		}
	case int64:
		if p >= 1 && p <= 65535 {
			return int(p)
		}
	case float64:
		if p >= 1 && p <= 65535 {
			return int(p)
		}
	case string:
		if port, err := strconv.Atoi(strings.TrimSpace(p)); err == nil && port >= 1 && port <= 65535 {
			return port
		}
	}
	return 0
}
