package headers

import (
	"reflect"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	in := []string{"User-Agent: Bot", "Accept: text/html", "BadHeader"}
	out := ParseHeaders(in)
	expected := map[string]string{"User-Agent": "Bot", "Accept": "text/html"}
	if !reflect.DeepEqual(out, expected) {
		t.Fatalf("unexpected parse result: %#v", out)
	}
}

func TestParseCookies(t *testing.T) {
	out := ParseCookies("Cookie: ASP.NET_SessionId=abc;  .AUTH=x=y ; junk; =nameless")
	expected := []CookiePair{{"ASP.NET_SessionId", "abc"}, {".AUTH", "x=y"}}
	if !reflect.DeepEqual(out, expected) {
		t.Fatalf("unexpected parse result: %#v", out)
	}
}

func TestNormalizeCookieHeader(t *testing.T) {
	got := NormalizeCookieHeader("  cookie:a=1;b=2;  ")
	if got != "a=1; b=2" {
		t.Fatalf("unexpected header: %q", got)
	}
	if NormalizeCookieHeader("garbage") != "" {
		t.Fatal("expected empty header for input without pairs")
	}
}
