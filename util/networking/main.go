package networking

import (
	"net"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"m3u8dl/models"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

var (
	defaultClient     *http.Client
	defaultClientOnce sync.Once
)

// the default client carries no client-level timeout,
// callers bound each request with a context deadline
func GetDefaultHTTPClient() *http.Client {
	defaultClientOnce.Do(func() {
		defaultClient = &http.Client{
			Transport: GetBaseTransport(),
			Jar:       newCookieJar(),
		}
	})
	return defaultClient
}

func GetBaseTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConnsPerHost:   100,
		MaxConnsPerHost:       100,
		DisableCompression:    false,
	}
}

func NewClientFromConfig(cfg *models.HostConfig) *http.Client {
	if cfg == nil {
		return GetDefaultHTTPClient()
	}
	transport := GetBaseTransport()
	if cfg.HTTPProxy != "" || cfg.HTTPSProxy != "" {
		configureProxyTransport(transport, cfg)
	}
	var roundTripper http.RoundTripper = transport
	if len(cfg.Headers) > 0 || cfg.UserAgent != "" {
		roundTripper = &HeaderMapTransport{
			Headers:   cfg.Headers,
			UserAgent: cfg.UserAgent,
			Base:      transport,
		}
	}
	return &http.Client{
		Transport: roundTripper,
		Jar:       newCookieJar(),
	}
}

func newCookieJar() http.CookieJar {
	jar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		zap.S().Warnf("failed to create cookie jar: %v", err)
		return nil
	}
	return jar
}
