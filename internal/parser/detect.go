package parser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"sub-inspector/internal/model"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Entry is one raw proxy entry prior to decoding: a URI line or a clash
// proxy mapping.
type Entry struct {
	Raw   string
	Proxy *yaml.Node
}

// Document is a classified subscription body.
type Document struct {
	Format  model.Format
	Entries []Entry

	// Userinfo is the top-level "subscription-userinfo" field of a clash
	// document, if any.
	Userinfo string
}

var knownSchemes = []string{
	"vmess://", "vless://", "ss://", "ssr://", "trojan://",
	"hysteria://", "hysteria2://", "hy2://",
}

func hasKnownScheme(line string) bool {
	lower := strings.ToLower(line)
	return lo.ContainsBy(knownSchemes, func(prefix string) bool {
		return strings.HasPrefix(lower, prefix)
	})
}

// Detect classifies body. contentType is only a hint and may be empty.
func Detect(body []byte, contentType string) (*Document, error) {
	text := strings.TrimSpace(strings.TrimPrefix(string(body), "\ufeff"))
	if text == "" {
		return nil, fmt.Errorf("%w: empty body", ErrUnrecognizedFormat)
	}

	// 1. Clash YAML
	doc, yamlErr := detectClash(text)
	if doc != nil {
		return doc, nil
	}

	// 2. Base64 node list
	if decoded, err := decodeBase64(text); err == nil && utf8.Valid(decoded) {
		if lines := splitLines(string(decoded)); lo.ContainsBy(lines, hasKnownScheme) {
			return linesDocument(model.FormatBase64NodeList, lines), nil
		}
	}

	// 3. Plain node list
	if lines := splitLines(text); lo.ContainsBy(lines, hasKnownScheme) {
		return linesDocument(model.FormatPlainNodeList, lines), nil
	}

	if yamlErr != nil && strings.Contains(strings.ToLower(contentType), "yaml") {
		return nil, fmt.Errorf("%w: declared %s but %v", ErrUnrecognizedFormat, contentType, yamlErr)
	}
	return nil, ErrUnrecognizedFormat
}

// detectClash returns a document when text is a YAML mapping with a
// "proxies" sequence.
func detectClash(text string) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return nil, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, nil
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, nil
	}

	var (
		proxies  *yaml.Node
		userinfo string
	)
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, val := top.Content[i], top.Content[i+1]
		switch key.Value {
		case "proxies":
			if val.Kind == yaml.SequenceNode {
				proxies = val
			}
		case "subscription-userinfo":
			if val.Kind == yaml.ScalarNode {
				userinfo = val.Value
			}
		}
	}
	if proxies == nil {
		return nil, nil
	}

	doc := &Document{Format: model.FormatClashYAML, Userinfo: userinfo}
	for _, p := range proxies.Content {
		doc.Entries = append(doc.Entries, Entry{Proxy: p})
	}
	return doc, nil
}

func linesDocument(format model.Format, lines []string) *Document {
	doc := &Document{Format: format}
	for _, line := range lines {
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		doc.Entries = append(doc.Entries, Entry{Raw: line})
	}
	return doc
}

func splitLines(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	return lo.Compact(lo.Map(lines, func(line string, _ int) string {
		return strings.TrimSpace(line)
	}))
}
