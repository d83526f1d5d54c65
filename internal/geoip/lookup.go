package geoip

import (
	"net"
	"strings"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// Database resolves node servers to ISO country codes. Results are cached
// per host since subscriptions tend to reuse a handful of servers.
type Database struct {
	reader *geoip2.Reader
	cache  sync.Map // host -> string ("" for a miss)
}

func Open(path string) (*Database, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &Database{reader: r}, nil
}

// Lookup returns the country code for an IP literal. Hostnames are not
// resolved, so they always miss.
func (d *Database) Lookup(host string) (string, bool) {
	if d == nil || d.reader == nil {
		return "", false
	}
	if v, ok := d.cache.Load(host); ok {
		code := v.(string)
		return code, code != ""
	}

	code := d.country(host)
	d.cache.Store(host, code)
	return code, code != ""
}

func (d *Database) country(host string) string {
	ip := net.ParseIP(strings.Trim(host, "[]"))
	if ip == nil {
		return ""
	}
	record, err := d.reader.Country(ip)
	if err != nil {
		return ""
	}
	return record.Country.IsoCode
}

func (d *Database) Close() error {
	if d == nil || d.reader == nil {
		return nil
	}
	return d.reader.Close()
}
