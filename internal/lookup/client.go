package lookup

import (
	"context"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"phishguard/internal/proxy"
)

type contextKey string

const proxyCtxKey contextKey = "proxyURL"

var sharedClient = &http.Client{
	Timeout: 20 * time.Second,
	Transport: &http.Transport{
		Proxy: func(req *http.Request) (*url.URL, error) {
			if p, ok := req.Context().Value(proxyCtxKey).(*url.URL); ok && p != nil {
				return p, nil
			}
			return nil, nil
		},
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// sharedNoRedirectClient reuses the same underlying Transport (and therefore
// the same connection pool) as sharedClient, but does not follow redirects.
// The redirect tracer walks each Location header by hand, so every hop must
// come back to it unconsumed.
var sharedNoRedirectClient = &http.Client{
	Timeout: 15 * time.Second,
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	},
	Transport: sharedClient.Transport,
}

var browserUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// genericUserAgent is used where a full browser fingerprint is unnecessary,
// e.g. HEAD requests during redirect tracing.
const genericUserAgent = "Mozilla/5.0"

func randomBrowserUserAgent() string {
	return browserUserAgents[rand.Intn(len(browserUserAgents))]
}

// DoProxiedRequest executes req through the shared client, routing it via
// pURL when the proxy pool is enabled. Proxy slots are bounded by the
// global semaphore so bulk scans cannot saturate a single exit.
func DoProxiedRequest(req *http.Request, pURL *url.URL) (*http.Response, error) {
	reqCtx := context.WithValue(req.Context(), proxyCtxKey, pURL)
	req = req.WithContext(reqCtx)

	if pURL != nil && proxy.Enabled() {
		select {
		case proxy.Semaphore <- struct{}{}:
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
		defer func() { <-proxy.Semaphore }()
	}
	return sharedClient.Do(req)
}

// doProxiedNoRedirectRequest is identical to DoProxiedRequest but uses
// sharedNoRedirectClient so that HTTP redirects are not followed.
func doProxiedNoRedirectRequest(req *http.Request, pURL *url.URL) (*http.Response, error) {
	reqCtx := context.WithValue(req.Context(), proxyCtxKey, pURL)
	req = req.WithContext(reqCtx)

	if pURL != nil && proxy.Enabled() {
		select {
		case proxy.Semaphore <- struct{}{}:
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
		defer func() { <-proxy.Semaphore }()
	}
	return sharedNoRedirectClient.Do(req)
}
