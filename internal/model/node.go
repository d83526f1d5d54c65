package model

type Protocol string

const (
	ProtocolSS       Protocol = "SS"
	ProtocolSSR      Protocol = "SSR"
	ProtocolVMess    Protocol = "VMess"
	ProtocolVLess    Protocol = "VLess"
	ProtocolTrojan   Protocol = "Trojan"
	ProtocolHysteria Protocol = "Hysteria"
	ProtocolHTTP     Protocol = "HTTP"
	ProtocolOther    Protocol = "Other"
)

// Format is the detected shape of a subscription body.
type Format string

const (
	FormatBase64NodeList Format = "base64"
	FormatPlainNodeList  Format = "plain"
	FormatClashYAML      Format = "clash"
	FormatUnrecognized   Format = "unrecognized"
)

// Node is one decoded proxy entry. Decoders build it once and it is
// passed by value afterwards.
type Node struct {
	// --- Identity ---
	Raw      string   `json:"raw"`
	Protocol Protocol `json:"protocol"`
	Scheme   string   `json:"scheme"` // literal scheme or yaml type, e.g. "hysteria2"
	Tag      string   `json:"tag"`

	// --- Endpoint (best effort) ---
	Server string `json:"server,omitempty"`
	Port   int    `json:"port,omitempty"`

	// --- Enrichment ---
	Country       string `json:"country,omitempty"`        // from the tag keyword table
	ServerCountry string `json:"server_country,omitempty"` // ISO code from GeoIP, IP literals only
}

// WithCountry returns a copy of n carrying the given country label.
func (n Node) WithCountry(country string) Node {
	n.Country = country
	return n
}

// WithServerCountry returns a copy of n carrying the given ISO code.
func (n Node) WithServerCountry(code string) Node {
	n.ServerCountry = code
	return n
}
