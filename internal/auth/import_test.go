package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestImportCookies_Header(t *testing.T) {
	cookies, err := ImportCookies(strings.NewReader("Cookie: sid=1; auth=two\n"), FormatHeader, "portal.example.edu")
	require.NoError(t, err)
	require.Len(t, cookies, 2)
	require.Equal(t, "portal.example.edu", cookies[0].Domain)

	session := SessionData{Cookies: cookies}
	require.Equal(t, "sid=1; auth=two", session.CookieHeader())
}

func TestImportCookies_JSON(t *testing.T) {
	in := `[{"name": "sid", "value": "1", "domain": ".example.edu", "path": "/", "expires": 1893456000}]`
	cookies, err := ImportCookies(strings.NewReader(in), FormatJSON, "")
	require.NoError(t, err)
	require.Equal(t, []Cookie{{Name: "sid", Value: "1", Domain: ".example.edu", Path: "/", Expires: 1893456000}}, cookies)

	_, err = ImportCookies(strings.NewReader("not json"), FormatJSON, "")
	require.Error(t, err)
}

func TestImportCookies_Netscape(t *testing.T) {
	in := "# Netscape HTTP Cookie File\n" +
		".example.edu\tTRUE\t/\tTRUE\t1893456000\tsid\tabc\n" +
		"#HttpOnly_.example.edu\tTRUE\t/\tFALSE\t0\tauth\txyz\n" +
		"short line\n"

	cookies, err := ImportCookies(strings.NewReader(in), FormatNetscape, "")
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	require.Equal(t, "sid", cookies[0].Name)
	require.True(t, cookies[0].Secure)
	require.Equal(t, float64(1893456000), cookies[0].Expires)

	require.Equal(t, "auth", cookies[1].Name)
	require.True(t, cookies[1].HTTPOnly)
	require.Zero(t, cookies[1].Expires)
	require.Equal(t, int64(1893456000), EarliestExpiry(cookies).Unix())
}

func TestImportCookies_UnknownFormat(t *testing.T) {
	_, err := ImportCookies(strings.NewReader(""), "yaml", "")
	require.Error(t, err)
}
