package auth

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Import formats accepted by ImportCookies
const (
	FormatHeader   = "header"
	FormatJSON     = "json"
	FormatNetscape = "netscape"
)

// ImportCookies reads cookies exported from a browser. The header format is a
// single "a=1; b=2" line, json is a DevTools cookie array and netscape is the
// tab separated cookies.txt layout used by curl.
func ImportCookies(r io.Reader, format, domain string) ([]Cookie, error) {
	switch format {
	case FormatHeader, "":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read cookie header: %w", err)
		}
		return ParseCookieHeader(string(data), domain), nil
	case FormatJSON:
		var cookies []Cookie
		if err := json.NewDecoder(r).Decode(&cookies); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return cookies, nil
	case FormatNetscape:
		return importNetscape(r)
	default:
		return nil, fmt.Errorf("unsupported format: %s (use: header, json, netscape)", format)
	}
}

func importNetscape(r io.Reader) ([]Cookie, error) {
	var cookies []Cookie
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		httpOnly := false
		if rest, ok := strings.CutPrefix(line, "#HttpOnly_"); ok {
			line = rest
			httpOnly = true
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 7 {
			continue
		}

		cookie := Cookie{
			Domain:   fields[0],
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			Name:     fields[5],
			Value:    fields[6],
			HTTPOnly: httpOnly,
		}
		if expiry, err := strconv.ParseInt(fields[4], 10, 64); err == nil && expiry > 0 {
			cookie.Expires = float64(expiry)
		}

		cookies = append(cookies, cookie)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cookies, nil
}
