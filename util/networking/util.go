package networking

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"m3u8dl/models"

	"go.uber.org/zap"
)

// HeaderMapTransport sets fixed headers on every outgoing request.
// headers already present on the request win.
type HeaderMapTransport struct {
	Headers   map[string]string
	UserAgent string
	Base      http.RoundTripper
}

func (t *HeaderMapTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	if t.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func configureProxyTransport(
	transport *http.Transport,
	cfg *models.HostConfig,
) {
	var httpProxyURL, httpsProxyURL *url.URL
	var err error

	if cfg.HTTPProxy != "" {
		httpProxyURL, err = url.Parse(cfg.HTTPProxy)
		if err != nil {
			zap.S().Warnf("invalid HTTP proxy URL '%s': %v", cfg.HTTPProxy, err)
		}
	}
	if cfg.HTTPSProxy != "" {
		httpsProxyURL, err = url.Parse(cfg.HTTPSProxy)
		if err != nil {
			zap.S().Warnf("invalid HTTPS proxy URL '%s': %v", cfg.HTTPSProxy, err)
		}
	}
	if httpProxyURL == nil && httpsProxyURL == nil {
		return
	}
	noProxyList := parseNoProxyList(cfg.NoProxy)
	transport.Proxy = func(req *http.Request) (*url.URL, error) {
		return selectProxy(req.URL, httpProxyURL, httpsProxyURL, noProxyList), nil
	}
}

func selectProxy(
	target *url.URL,
	httpProxyURL *url.URL,
	httpsProxyURL *url.URL,
	noProxyList []string,
) *url.URL {
	if shouldBypassProxy(target.Hostname(), noProxyList) {
		return nil
	}
	if target.Scheme == "https" && httpsProxyURL != nil {
		return httpsProxyURL
	}
	if target.Scheme == "http" && httpProxyURL != nil {
		return httpProxyURL
	}
	if httpsProxyURL != nil {
		return httpsProxyURL
	}
	return httpProxyURL
}

func parseNoProxyList(noProxy string) []string {
	if noProxy == "" {
		return nil
	}
	list := strings.Split(noProxy, ",")
	for i := range list {
		list[i] = strings.TrimSpace(list[i])
	}
	return list
}

func shouldBypassProxy(host string, noProxyList []string) bool {
	for _, p := range noProxyList {
		if p == "" {
			continue
		}
		if p == "*" || p == host || (strings.HasPrefix(p, ".") && strings.HasSuffix(host, p)) {
			return true
		}
	}
	return false
}

// builds a GET request carrying the run's custom headers and cookies
func NewRequest(
	ctx context.Context,
	rawURL string,
	headers map[string]string,
	cookies []*http.Cookie,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	return req, nil
}
