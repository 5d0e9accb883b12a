package util

import (
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http/httpproxy"
)

// ProxySettings are explicit proxy overrides; empty fields fall back to the
// HTTP_PROXY, HTTPS_PROXY and NO_PROXY environment variables.
type ProxySettings struct {
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// NewProxyFunc creates a transport proxy function honoring NO_PROXY.
// Loopback hosts are never proxied.
func NewProxyFunc(s ProxySettings) func(*http.Request) (*url.URL, error) {
	cfg := httpproxy.FromEnvironment()
	if s.HTTPProxy != "" {
		cfg.HTTPProxy = s.HTTPProxy
	}
	if s.HTTPSProxy != "" {
		cfg.HTTPSProxy = s.HTTPSProxy
	}
	if s.NoProxy != "" {
		cfg.NoProxy = s.NoProxy
	}

	proxy := cfg.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return proxy(req.URL)
	}
}

// NewHTTPClient returns a client with the given timeout routed through the proxy settings
func NewHTTPClient(timeout time.Duration, s ProxySettings) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = NewProxyFunc(s)
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
