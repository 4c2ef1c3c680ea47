package telegram

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prostogovorite/helpbot/core/telegram/netutil"
)

func transportOf(t *testing.T, c *http.Client) (*netutil.RetryTransport, *http.Transport) {
	t.Helper()
	rt, ok := c.Transport.(*netutil.RetryTransport)
	if !ok {
		t.Fatalf("transport = %T", c.Transport)
	}
	base, ok := rt.Base.(*http.Transport)
	if !ok {
		t.Fatalf("base = %T", rt.Base)
	}
	return rt, base
}

func TestBuildHTTPClientTuning(t *testing.T) {
	rt, base := transportOf(t, BuildHTTPClient(0))
	if rt.Retries != undeliveredRetry || rt.Backoff != undeliveredBackoff {
		t.Fatalf("retry = %d/%s", rt.Retries, rt.Backoff)
	}
	if base.MaxIdleConnsPerHost != maxIdlePerHost || base.IdleConnTimeout != idleConnTimeout {
		t.Fatalf("idle pool = %d/%s", base.MaxIdleConnsPerHost, base.IdleConnTimeout)
	}
	if base.TLSHandshakeTimeout != tlsHandshake || base.ResponseHeaderTimeout != responseTimeout {
		t.Fatalf("timeouts = %s/%s", base.TLSHandshakeTimeout, base.ResponseHeaderTimeout)
	}
	if base.Proxy == nil || !base.ForceAttemptHTTP2 {
		t.Fatal("proxy from environment and HTTP/2 must stay enabled")
	}
}

func TestBuildHTTPClientWidensTimeoutsForLongPoll(t *testing.T) {
	client := BuildHTTPClient(10 * time.Second)
	if client.Timeout != clientTimeout+10*time.Second {
		t.Fatalf("client timeout = %s", client.Timeout)
	}
	_, base := transportOf(t, client)
	if base.ResponseHeaderTimeout != responseTimeout+10*time.Second {
		t.Fatalf("response header timeout = %s", base.ResponseHeaderTimeout)
	}
	if c := BuildHTTPClient(-time.Second); c.Timeout != clientTimeout {
		t.Fatalf("negative long poll must be ignored, timeout = %s", c.Timeout)
	}
}

func TestBuildHTTPClientRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	resp, err := BuildHTTPClient(0).Post(srv.URL+"/botX/getMe", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
