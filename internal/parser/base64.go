package parser

import (
	"encoding/base64"
	"errors"
	"strings"
)

var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.URLEncoding,
	base64.RawStdEncoding,
	base64.RawURLEncoding,
}

// decodeBase64 tries the standard and URL alphabets, padded and raw,
// after dropping any whitespace the provider wrapped the payload with.
func decodeBase64(s string) ([]byte, error) {
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return nil, errors.New("empty base64 payload")
	}

	var lastErr error
	for _, enc := range base64Encodings {
		decoded, err := enc.DecodeString(s)
		if err == nil {
			return decoded, nil
		}
		lastErr = err
	}
	// Some providers pad inconsistently.
	if decoded, err := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); err == nil {
		return decoded, nil
	}
	if decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "=")); err == nil {
		return decoded, nil
	}
	return nil, lastErr
}
