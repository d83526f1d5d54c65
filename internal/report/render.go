package report

import (
	"fmt"
	"strings"
	"time"

	"sub-inspector/internal/model"
	"sub-inspector/internal/region"
)

const TimeLayout = "2006-01-02 15:04:05"

type RenderOptions struct {
	Location *time.Location // nil means UTC
	Now      time.Time      // zero means time.Now()
	URL      string
}

// Render formats a report as the plain-text block sent to users.
func Render(r model.Report, warnings []model.Warning, opts RenderOptions) string {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	var b strings.Builder
	b.WriteString("🚀 Subscription Report\n\n")

	name := r.AirportName
	if name == "" {
		name = "Unknown"
	}
	fmt.Fprintf(&b, "Name: %s\n", name)
	fmt.Fprintf(&b, "Nodes: %d\n", r.NodeCount())

	writeTraffic(&b, r, loc, now)

	if r.CountryCounts.Len() > 0 {
		b.WriteString("\n🌍 Regions:\n")
		for _, c := range countryOrder(r.CountryCounts) {
			country, _ := region.ByName(c.Key)
			label := c.Key
			if country.Local != "" {
				label = country.Local + " " + c.Key
			}
			flag := country.Flag
			if flag == "" {
				flag = region.Unknown.Flag
			}
			fmt.Fprintf(&b, "%s %s: %d\n", flag, label, c.Count)
		}
	}

	if r.ProtocolCounts.Len() > 0 {
		b.WriteString("\n🔐 Protocols:\n")
		for _, c := range r.ProtocolCounts.Items() {
			fmt.Fprintf(&b, "%s: %d\n", strings.ToUpper(c.Key), c.Count)
		}
	}

	if r.ServerCountries.Len() > 0 {
		b.WriteString("\n📡 Server locations:\n")
		for _, c := range r.ServerCountries.Items() {
			fmt.Fprintf(&b, "%s %s: %d\n", flagForCode(c.Key), c.Key, c.Count)
		}
	}

	if len(warnings) > 0 {
		fmt.Fprintf(&b, "\n⚠️ Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	if opts.URL != "" {
		fmt.Fprintf(&b, "\n📋 %s\n", opts.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeTraffic(b *strings.Builder, r model.Report, loc *time.Location, now time.Time) {
	t := r.Traffic
	if t == nil {
		b.WriteString("Traffic: n/a\n")
		return
	}

	if t.Used != nil || t.Total != nil {
		fmt.Fprintf(b, "Traffic: %s / %s", bytesOrUnknown(t.Used), bytesOrUnknown(t.Total))
		if r.UsagePercent != nil {
			fmt.Fprintf(b, " (%.1f%%)", *r.UsagePercent)
		}
		b.WriteString("\n")
		if r.UsagePercent != nil {
			fmt.Fprintf(b, "Usage: %s %.1f%%\n", ProgressBar(*r.UsagePercent, 10), *r.UsagePercent)
		}
		if remaining, ok := t.Remaining(); ok {
			fmt.Fprintf(b, "Remaining: %s\n", FormatSignedBytes(remaining))
		}
	}

	if t.Expire != nil {
		fmt.Fprintf(b, "Expires: %s\n", t.Expire.In(loc).Format(TimeLayout))
		fmt.Fprintf(b, "Time left: %s\n", TimeLeft(*t.Expire, now))
	} else {
		b.WriteString("Expires: never\n")
	}
}

// countryOrder keeps first-seen order but moves the Unknown bucket last.
func countryOrder(c model.Counts) []model.Count {
	items := c.Items()
	out := make([]model.Count, 0, len(items))
	var unknown *model.Count
	for i := range items {
		if items[i].Key == region.Unknown.Name {
			unknown = &items[i]
			continue
		}
		out = append(out, items[i])
	}
	if unknown != nil {
		out = append(out, *unknown)
	}
	return out
}

func bytesOrUnknown(n *uint64) string {
	if n == nil {
		return "?"
	}
	return FormatBytes(*n)
}

var units = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatBytes renders n with binary units and two decimals, e.g. "10.50 GB".
func FormatBytes(n uint64) string {
	if n == 0 {
		return "0 B"
	}
	size := float64(n)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", size, units[i])
}

func FormatSignedBytes(n int64) string {
	if n < 0 {
		return "-" + FormatBytes(uint64(-n))
	}
	return FormatBytes(uint64(n))
}

// ProgressBar draws percent as filled/empty cells. The bar is clamped to
// [0,100]; the caller prints the raw number next to it.
func ProgressBar(percent float64, length int) string {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	filled := int(float64(length) * percent / 100)
	if percent > 0 && filled == 0 {
		filled = 1
	}
	return "[" + strings.Repeat("■", filled) + strings.Repeat("□", length-filled) + "]"
}

func TimeLeft(expire, now time.Time) string {
	if !expire.After(now) {
		return "expired"
	}
	d := expire.Sub(now)
	days := int(d / (24 * time.Hour))
	d -= time.Duration(days) * 24 * time.Hour
	hours := int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
}

func flagForCode(code string) string {
	if len(code) != 2 {
		return region.Unknown.Flag
	}
	code = strings.ToUpper(code)
	if code[0] < 'A' || code[0] > 'Z' || code[1] < 'A' || code[1] > 'Z' {
		return region.Unknown.Flag
	}
	return string(rune(code[0])+0x1F1A5) + string(rune(code[1])+0x1F1A5)
}
