package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/prostogovorite/helpbot/core/telegram/netutil"
)

// Transport tuning for api.telegram.org. Everything goes to one host, so
// idle connections are kept per host rather than globally.
const (
	dialTimeout        = 5 * time.Second
	keepAlive          = 30 * time.Second
	tlsHandshake       = 5 * time.Second
	idleConnTimeout    = 90 * time.Second
	maxIdlePerHost     = 16
	responseTimeout    = 5 * time.Second
	clientTimeout      = 30 * time.Second
	undeliveredRetry   = 2
	undeliveredBackoff = 500 * time.Millisecond
)

// BuildHTTPClient returns the HTTP client used for Bot API calls. longPoll
// is the getUpdates hold time; the header and client timeouts are widened
// by it so an idle long poll is not cut short.
func BuildHTTPClient(longPoll time.Duration) *http.Client {
	if longPoll < 0 {
		longPoll = 0
	}
	return &http.Client{
		Timeout: clientTimeout + longPoll,
		Transport: &netutil.RetryTransport{
			Base:    newTransport(responseTimeout + longPoll),
			Retries: undeliveredRetry,
			Backoff: undeliveredBackoff,
		},
	}
}

func newTransport(headerTimeout time.Duration) *http.Transport {
	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   maxIdlePerHost,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   tlsHandshake,
		ResponseHeaderTimeout: headerTimeout,
		ExpectContinueTimeout: time.Second,
	}
}
