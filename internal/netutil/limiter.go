// Package netutil holds transport helpers shared by upstream clients.
package netutil

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter paces the department fan-out so a company with many
// departments does not burst past the API's request quota. Each host gets
// its own token bucket; a nil *HostLimiter lets every request through.
type HostLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	perSec  rate.Limit
	burst   int
}

// NewHostLimiter returns nil when reqPerSec <= 0. Burst is at least 1.
func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	if reqPerSec <= 0 {
		return nil
	}
	return &HostLimiter{
		buckets: make(map[string]*rate.Limiter),
		perSec:  rate.Limit(reqPerSec),
		burst:   max(burst, 1),
	}
}

func (hl *HostLimiter) bucket(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	b, ok := hl.buckets[host]
	if !ok {
		b = rate.NewLimiter(hl.perSec, hl.burst)
		hl.buckets[host] = b
	}
	return b
}

// WaitURL blocks until a request to raw's host may go out or ctx is done.
// Unparseable URLs share one bucket.
func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	if hl == nil {
		return nil
	}
	host := "_"
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		host = strings.ToLower(u.Host)
	}
	return hl.bucket(host).Wait(ctx)
}
