package netutil

import (
	"net/http"
	"time"
)

// RetryTransport repeats requests that failed before reaching the server
// (see NotDelivered). Anything that may have been delivered is returned as is.
type RetryTransport struct {
	Base http.RoundTripper
	// Retries is the number of extra attempts.
	Retries int
	// Backoff grows linearly: attempt n waits n*Backoff.
	Backoff time.Duration
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	var lastErr error
	for attempt := 0; attempt <= t.Retries; attempt++ {
		if attempt > 0 {
			if err := wait(req, time.Duration(attempt)*t.Backoff); err != nil {
				return nil, err
			}
		}
		curr, err := rewind(req, attempt)
		if err != nil {
			return nil, err
		}
		resp, err := base.RoundTrip(curr)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !NotDelivered(err) {
			break
		}
	}
	return nil, lastErr
}

// rewind returns req for the first attempt and a clone with a fresh body
// afterwards. Bodies without GetBody cannot be replayed.
func rewind(req *http.Request, attempt int) (*http.Request, error) {
	if attempt == 0 {
		return req, nil
	}
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errNoRewind
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}

func wait(req *http.Request, d time.Duration) error {
	if d <= 0 {
		return req.Context().Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
		return nil
	}
}
