package provider

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidateBaseURL rejects upstream base URLs that are not plain http(s) origins.
// Loopback and private hosts are refused unless allowPrivate is set, which local
// mock upstreams need.
func ValidateBaseURL(raw string, allowPrivate bool) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}

	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("invalid base_url scheme %q (must be http or https)", u.Scheme)
	case u.Hostname() == "":
		return fmt.Errorf("invalid base_url host %q", u.Host)
	case u.User != nil:
		return fmt.Errorf("base_url must not contain userinfo")
	case u.RawQuery != "" || u.Fragment != "":
		return fmt.Errorf("base_url must not contain a query or fragment")
	}

	if !allowPrivate && isLocalHost(u.Hostname()) {
		return fmt.Errorf("base_url host %q is private/loopback (set allow_private_base_url to override)", u.Hostname())
	}
	return nil
}

func isLocalHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "localhost" || strings.HasSuffix(h, ".localhost") {
		return true
	}

	ip := net.ParseIP(h)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() || !ip.IsGlobalUnicast()
}
