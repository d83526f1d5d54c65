package traffic

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sub-inspector/internal/model"
)

// HeaderName is the de facto header subscription servers use to report
// usage, e.g. "upload=1; download=2; total=3; expire=1700000000".
const HeaderName = "Subscription-Userinfo"

var ErrMalformedField = errors.New("malformed usage field")

// FromHeader reads the usage header, falling back to the given value
// (typically a field embedded in the document) when the header is absent.
func FromHeader(h http.Header, fallback string) (*model.TrafficInfo, []model.Warning) {
	value := h.Get(HeaderName)
	if strings.TrimSpace(value) == "" {
		value = fallback
	}
	return Parse(value)
}

// Parse decodes one usage descriptor. Each key is handled on its own: a
// bad value leaves that field unknown and yields a warning. The result is
// nil when no field could be read.
func Parse(value string) (*model.TrafficInfo, []model.Warning) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	var (
		info     model.TrafficInfo
		warnings []model.Warning
		found    bool
	)
	warn := func(err error) {
		warnings = append(warnings, model.Warning{
			Kind:   model.WarnTrafficHeaderMalformed,
			Index:  -1,
			Detail: err.Error(),
		})
	}

	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, raw, ok := strings.Cut(part, "=")
		if !ok {
			warn(fmt.Errorf("%w: %q has no value", ErrMalformedField, part))
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		switch key {
		case "upload", "download", "total", "expire":
		default:
			continue
		}

		n, err := parseCounter(raw)
		if err != nil {
			warn(fmt.Errorf("%w: %s: %v", ErrMalformedField, key, err))
			continue
		}
		if key != "expire" && n > math.MaxInt64 {
			warn(fmt.Errorf("%w: %s: %d is out of range", ErrMalformedField, key, n))
			continue
		}
		found = true

		switch key {
		case "upload":
			info.Upload = &n
		case "download":
			info.Download = &n
		case "total":
			info.Total = &n
		case "expire":
			// 0 means the subscription never expires.
			if n > 0 && n <= math.MaxInt64 {
				t := time.Unix(int64(n), 0).UTC()
				info.Expire = &t
			}
		}
	}

	if !found {
		return nil, warnings
	}

	if info.Upload != nil && info.Download != nil {
		// both are capped at MaxInt64, so the sum cannot wrap
		if used := *info.Upload + *info.Download; used <= math.MaxInt64 {
			info.Used = &used
		} else {
			warn(fmt.Errorf("%w: upload+download is out of range", ErrMalformedField))
		}
	}
	if info.Used != nil && info.Total != nil && *info.Used > *info.Total {
		warnings = append(warnings, model.Warning{
			Kind:   model.WarnInconsistentUsage,
			Index:  -1,
			Detail: fmt.Sprintf("used %d exceeds total %d", *info.Used, *info.Total),
		})
	}
	return &info, warnings
}

// parseCounter accepts non-negative integers, and floats in exponent form
// which some panels emit for large quotas.
func parseCounter(raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty value")
	}
	if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) || f >= math.MaxUint64 {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return uint64(f), nil
}
