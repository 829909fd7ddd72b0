package resolve

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

var specialSchemes = map[string]bool{"http": true, "https": true, "ws": true, "wss": true, "ftp": true}

var stripTabsAndNewlines = strings.NewReplacer("\t", "", "\n", "", "\r", "")

// ExtractDomain returns the lowercased ASCII hostname of rawURL, without
// port or brackets. It returns "" when rawURL is empty, cannot be parsed,
// has an out-of-range port, or has no authority component ("not a url",
// "about:blank").
//
// http(s), ws(s) and ftp URLs are read the way browsers read them:
// backslashes count as slashes, and any run of slashes after the scheme
// opens the authority, so "https://a.com\x" and "https:a.com" are a.com.
func ExtractDomain(rawURL string) string {
	rawURL = stripTabsAndNewlines.Replace(strings.TrimSpace(rawURL))
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(normalizeSpecial(rawURL))
	if err != nil || u.Scheme == "" {
		return ""
	}
	if p := u.Port(); p != "" {
		if n, err := strconv.Atoi(p); err != nil || n > 65535 {
			return ""
		}
	}
	host := u.Hostname()
	if host == "" {
		return ""
	}
	host = strings.ToLower(host)
	if ascii, err := idna.Lookup.ToASCII(host); err == nil && ascii != "" {
		return ascii
	}
	return host
}

func normalizeSpecial(raw string) string {
	scheme, rest, ok := strings.Cut(raw, ":")
	if !ok || !specialSchemes[strings.ToLower(scheme)] {
		return raw
	}
	rest = strings.ReplaceAll(rest, `\`, "/")
	return scheme + "://" + strings.TrimLeft(rest, "/")
}
