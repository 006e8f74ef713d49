// Package security checks where the client is allowed to send requests.
package security

import (
	"net/netip"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

var ErrDisallowedURL = errors.New("backend url not allowed")

// BackendURLOptions relaxes ValidateBackendURL. The zero value only accepts
// https on public hosts.
type BackendURLOptions struct {
	AllowHTTP          bool `mapstructure:"allow-http" yaml:"allow-http"`
	AllowLocalNetworks bool `mapstructure:"allow-local-networks" yaml:"allow-local-networks"`
}

// LocalDevelopment allows a backend on http://localhost.
func LocalDevelopment() BackendURLOptions {
	return BackendURLOptions{AllowHTTP: true, AllowLocalNetworks: true}
}

// ValidateBackendURL rejects URLs with an unsupported scheme or a target
// outside of what opts allows. IP literals are checked without DNS lookups.
func ValidateBackendURL(rawURL string, opts BackendURLOptions) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrap(ErrDisallowedURL, err.Error())
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if !opts.AllowHTTP {
			return errors.Wrapf(ErrDisallowedURL, "%s: plain http", rawURL)
		}
	default:
		return errors.Wrapf(ErrDisallowedURL, "%s: unsupported scheme %q", rawURL, parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return errors.Wrapf(ErrDisallowedURL, "%s: missing host", rawURL)
	}

	if !opts.AllowLocalNetworks && (host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local")) {
		return errors.Wrapf(ErrDisallowedURL, "%s: local hostname", rawURL)
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return nil
	}
	if addr.Zone() != "" && !opts.AllowLocalNetworks {
		return errors.Wrapf(ErrDisallowedURL, "%s: zoned address", rawURL)
	}
	addr = addr.Unmap()
	if addr.IsUnspecified() || addr.IsMulticast() {
		return errors.Wrapf(ErrDisallowedURL, "%s: unroutable address", rawURL)
	}
	if !opts.AllowLocalNetworks &&
		(addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast()) {
		return errors.Wrapf(ErrDisallowedURL, "%s: local network address", rawURL)
	}
	return nil
}
