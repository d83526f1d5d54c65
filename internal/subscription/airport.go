package subscription

import (
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"sub-inspector/internal/model"
)

var (
	fileExtRe   = regexp.MustCompile(`(?i)\.(ya?ml|txt|conf)$`)
	hostTrimRe  = regexp.MustCompile(`^(www|api|sub)\.`)
	tagPrefixes = []string{"-", "|"}
)

// AirportName guesses the provider name: the Content-Disposition filename
// first, then the most common node tag prefix, then the URL host.
func AirportName(h http.Header, nodes []model.Node, rawURL string) string {
	if name := nameFromDisposition(h.Get("Content-Disposition")); name != "" {
		return name
	}
	if name := commonTagPrefix(nodes); name != "" {
		return name
	}
	return nameFromURL(rawURL)
}

func nameFromDisposition(cd string) string {
	if cd == "" {
		return ""
	}

	var filename string
	if _, params, err := mime.ParseMediaType(cd); err == nil {
		// mime decodes filename*=UTF-8''... into "filename".
		filename = params["filename"]
	} else if _, rest, ok := strings.Cut(cd, "filename*="); ok {
		rest, _, _ = strings.Cut(rest, ";")
		rest = strings.TrimSpace(rest)
		if len(rest) > 7 && strings.EqualFold(rest[:7], "utf-8''") {
			filename, _ = url.PathUnescape(rest[7:])
		}
	} else if _, rest, ok := strings.Cut(cd, "filename="); ok {
		rest, _, _ = strings.Cut(rest, ";")
		filename = strings.Trim(strings.TrimSpace(rest), `"`)
	}

	return strings.TrimSpace(fileExtRe.ReplaceAllString(filename, ""))
}

// commonTagPrefix returns the most frequent text before "-" or "|" in
// node tags. Ties go to the prefix seen first.
func commonTagPrefix(nodes []model.Node) string {
	var prefixes model.Counts
	for _, n := range nodes {
		for _, sep := range tagPrefixes {
			if head, _, ok := strings.Cut(n.Tag, sep); ok {
				if head = strings.TrimSpace(head); head != "" {
					prefixes.Inc(head)
				}
				break
			}
		}
	}

	best := ""
	bestCount := 0
	for _, c := range prefixes.Items() {
		if c.Count > bestCount {
			best, bestCount = c.Key, c.Count
		}
	}
	return best
}

func nameFromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	return hostTrimRe.ReplaceAllString(u.Hostname(), "")
}
