// Package cookies implements parsing of Cookie request headers and
// serialization of Set-Cookie response headers.
package cookies

import (
	"net/url"
	"strconv"
	"strings"
)

// Options holds the Set-Cookie attributes supported by the service.
// MaxAgeMillis is tracked in milliseconds to match session expiry config;
// serialization floors it to whole seconds.
type Options struct {
	MaxAgeMillis int64
	HasMaxAge    bool
	Path         string
	Domain       string
	HTTPOnly     bool
	Secure       bool
	SameSite     string
}

// Parse splits a Cookie header into name/value pairs. An empty header yields
// an empty map; entries without a name are skipped. Values are URL-decoded,
// falling back to the raw value when decoding fails.
func Parse(header string) map[string]string {
	out := map[string]string{}
	if header == "" {
		return out
	}
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		if name == "" {
			continue
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		out[name] = value
	}
	return out
}

// Serialize builds a Set-Cookie header value. Attributes are appended in a
// fixed order: Max-Age, Path, Domain, HttpOnly, Secure, SameSite.
func Serialize(name, value string, opts Options) string {
	var b strings.Builder
	b.WriteString(url.QueryEscape(name))
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(value))

	if opts.HasMaxAge {
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.FormatInt(opts.MaxAgeMillis/1000, 10))
	}
	if opts.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(opts.Path)
	}
	if opts.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(opts.Domain)
	}
	if opts.HTTPOnly {
		b.WriteString("; HttpOnly")
	}
	if opts.Secure {
		b.WriteString("; Secure")
	}
	if opts.SameSite != "" {
		b.WriteString("; SameSite=")
		b.WriteString(opts.SameSite)
	}
	return b.String()
}

// Clear builds a Set-Cookie header that removes the cookie: empty value with
// Max-Age=0 so the client drops it immediately.
func Clear(name string, opts Options) string {
	opts.MaxAgeMillis = 0
	opts.HasMaxAge = true
	return Serialize(name, "", opts)
}
