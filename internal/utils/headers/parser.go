package headers

import (
	"strings"
)

// ParseHeaders converts an array of header strings ("Key: Value") into a map
func ParseHeaders(h []string) map[string]string {
	m := make(map[string]string)
	for _, hdr := range h {
		parts := strings.SplitN(hdr, ":", 2)
		if len(parts) == 2 {
			m[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return m
}

// CookiePair is one name=value entry of a Cookie header
type CookiePair struct {
	Name  string
	Value string
}

// ParseCookies splits "a=1; b=2" into pairs. A leading "Cookie:" is ignored
// and entries without a name are dropped.
func ParseCookies(header string) []CookiePair {
	header = strings.TrimSpace(header)
	if len(header) >= 7 && strings.EqualFold(header[:7], "cookie:") {
		header = header[7:]
	}

	var pairs []CookiePair
	for _, part := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		pairs = append(pairs, CookiePair{Name: name, Value: strings.TrimSpace(value)})
	}
	return pairs
}

// JoinCookies renders pairs as a Cookie header value
func JoinCookies(pairs []CookiePair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.Name == "" {
			continue
		}
		parts = append(parts, p.Name+"="+p.Value)
	}
	return strings.Join(parts, "; ")
}

// NormalizeCookieHeader canonicalizes a pasted cookie header
func NormalizeCookieHeader(header string) string {
	return JoinCookies(ParseCookies(header))
}
