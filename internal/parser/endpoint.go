package parser

import (
	"log/slog"

	"github.com/gvcgo/vpnparser/pkgs/outbound"
)

// endpointFallback asks vpnparser for the server of links our own
// decoders could not place, e.g. vmess variants with odd payloads.
func endpointFallback(raw string) (addr string, port int) {
	defer func() {
		// untrusted input must not take the whole report down
		if r := recover(); r != nil {
			slog.Debug("endpoint_fallback_panic", "panic", r)
			addr, port = "", 0
		}
	}()

	item := outbound.ParseRawUriToProxyItem(raw)
	if item == nil {
		return "", 0
	}
	return item.Address, item.Port
}
