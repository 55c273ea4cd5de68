package cookies

import (
	"net/http"
	"strings"
)

// Parser turns a raw cookie string, as handed out by a browser cookie manager,
// into cookies scoped to domain.
type Parser interface {
	Parse(raw, domain string) []*http.Cookie
}

// WebViewParser parses the "name=value; name2=value2" strings produced by
// embedded browser cookie managers. It never fails: segments without a name are
// skipped and a missing "=" yields an empty value.
type WebViewParser struct{}

var _ Parser = WebViewParser{}

// Parse returns the cookies in the order they appear in raw.
func (WebViewParser) Parse(raw, domain string) []*http.Cookie {
	var out []*http.Cookie

	for segment := range strings.SplitSeq(raw, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		name, value, _ := strings.Cut(segment, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		out = append(out, &http.Cookie{
			Name:   name,
			Value:  unquote(strings.TrimSpace(value)),
			Domain: domain,
			Path:   "/",
		})
	}

	return out
}

// unquote strips a single pair of surrounding double quotes.
func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}

// Find returns the value of the last cookie whose trimmed name equals name.
func Find(cookies []*http.Cookie, name string) (string, bool) {
	var (
		value string
		found bool
	)
	for _, c := range cookies {
		if strings.TrimSpace(c.Name) == name {
			value = c.Value
			found = true
		}
	}
	return value, found
}
