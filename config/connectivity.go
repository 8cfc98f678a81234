package config

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// ConnectivityProbe answers whether the remote service is reachable right
// now. The default implementation issues a cheap HEAD request against the
// remote health endpoint and caches the answer briefly so sync triggers do
// not turn into a ping storm.
type ConnectivityProbe interface {
	IsOnline(ctx context.Context) bool
}

type httpProbe struct {
	url      string
	client   *http.Client
	cacheTTL time.Duration

	mu        sync.Mutex
	lastCheck time.Time
	lastSeen  bool
}

// NewConnectivityProbe builds the default HTTP probe. CONNECTIVITY_FORCE
// overrides the probe entirely ("online"/"offline") for dev and tests.
func NewConnectivityProbe(healthURL string) ConnectivityProbe {
	if forced := strings.ToLower(strings.TrimSpace(os.Getenv("CONNECTIVITY_FORCE"))); forced != "" {
		return forcedProbe(forced == "online" || forced == "true" || forced == "1")
	}
	return &httpProbe{
		url:      healthURL,
		client:   &http.Client{Timeout: 3 * time.Second},
		cacheTTL: time.Duration(intFromEnv("CONNECTIVITY_CACHE_SECONDS", 5)) * time.Second,
	}
}

func (p *httpProbe) IsOnline(ctx context.Context) bool {
	p.mu.Lock()
	if time.Since(p.lastCheck) < p.cacheTTL {
		seen := p.lastSeen
		p.mu.Unlock()
		return seen
	}
	p.mu.Unlock()

	online := p.check(ctx)

	p.mu.Lock()
	p.lastCheck = time.Now()
	p.lastSeen = online
	p.mu.Unlock()
	return online
}

func (p *httpProbe) check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	// Any HTTP answer means the network path is up; auth errors etc. are
	// the push/pull engines' problem.
	return true
}

type forcedProbe bool

func (f forcedProbe) IsOnline(context.Context) bool { return bool(f) }
