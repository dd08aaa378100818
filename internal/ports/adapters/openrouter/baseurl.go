package openrouter

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

const defaultBaseURL = "https://openrouter.ai"

// hostSet holds lower-case host names without scheme or port.
type hostSet map[string]struct{}

var openRouterHosts = hostSet{
	"openrouter.ai":     {},
	"api.openrouter.ai": {},
}

// BaseURLError reports why a configured OPENROUTER_BASE_URL was refused.
type BaseURLError struct {
	URL    string
	Reason string
}

func (e *BaseURLError) Error() string {
	return fmt.Sprintf("invalid OPENROUTER_BASE_URL %q: %s", e.URL, e.Reason)
}

// ValidateBaseURL decides whether the API key may be sent to baseURL.
//
// Remote endpoints need https and a host from allowedHosts (OpenRouter's own
// hosts when the list is empty). A model server on this machine, such as a
// local OpenAI-compatible proxy on http://127.0.0.1:PORT, is accepted over
// plain http without being listed.
func ValidateBaseURL(baseURL string, allowedHosts []string) error {
	raw := normalizeBaseURL(baseURL)
	refuse := func(reason string) error { return &BaseURLError{URL: raw, Reason: reason} }

	u, err := url.Parse(raw)
	switch {
	case err != nil:
		return fmt.Errorf("invalid OPENROUTER_BASE_URL: %w", err)
	case !u.IsAbs() || u.Hostname() == "":
		return refuse("absolute URL with host is required")
	case u.User != nil:
		return refuse("userinfo is not allowed")
	case u.RawQuery != "" || u.Fragment != "":
		return refuse("query and fragment are not allowed")
	}

	host := strings.ToLower(u.Hostname())
	if isLoopback(host) {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return nil
		}
		return refuse("http or https is required")
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return refuse("https is required")
	}
	if _, ok := parseHosts(allowedHosts)[host]; !ok {
		return refuse(fmt.Sprintf("host %q is not in OPENROUTER_ALLOWED_HOSTS", host))
	}
	return nil
}

func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// apiBaseURL is the OpenAI-compatible root under the configured base URL.
func apiBaseURL(baseURL string) string {
	baseURL = normalizeBaseURL(baseURL)
	if strings.HasSuffix(baseURL, "/api/v1") {
		return baseURL
	}
	return baseURL + "/api/v1"
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// parseHosts accepts bare hosts, host:port and URLs, as people paste them
// into OPENROUTER_ALLOWED_HOSTS.
func parseHosts(entries []string) hostSet {
	out := hostSet{}
	for _, e := range entries {
		e = strings.ToLower(strings.TrimSpace(e))
		if i := strings.Index(e, "://"); i >= 0 {
			e = e[i+3:]
		}
		e, _, _ = strings.Cut(e, "/")
		if h, _, err := net.SplitHostPort(e); err == nil {
			e = h
		}
		if e != "" {
			out[e] = struct{}{}
		}
	}
	if len(out) == 0 {
		return openRouterHosts
	}
	return out
}
