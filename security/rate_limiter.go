// ABOUTME: Per-client request limiting for the admin API
// ABOUTME: One token bucket per caller, idle callers are forgotten by a cleanup loop

package security

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ClientRateLimiter hands out one token bucket per client key
type ClientRateLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu      sync.Mutex
	clients map[string]*clientBucket

	logger   *slog.Logger
	stopOnce sync.Once
	stopChan chan struct{}
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientStats describes the bucket of one client
type ClientStats struct {
	Client   string    `json:"client"`
	Tokens   float64   `json:"tokens"`
	LastSeen time.Time `json:"last_seen"`
}

// NewClientRateLimiter allows each client requestsPerHour requests with the
// given burst. Buckets unused for an hour are dropped.
func NewClientRateLimiter(requestsPerHour, burst int, logger *slog.Logger) *ClientRateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	if burst <= 0 {
		burst = 1
	}

	rl := &ClientRateLimiter{
		limit:    rate.Limit(float64(requestsPerHour) / time.Hour.Seconds()),
		burst:    burst,
		idle:     time.Hour,
		clients:  make(map[string]*clientBucket),
		logger:   logger,
		stopChan: make(chan struct{}),
	}
	go rl.cleanupLoop(5 * time.Minute)
	return rl
}

// Allow consumes a token for client and reports whether the request may proceed
func (rl *ClientRateLimiter) Allow(client, endpoint string) bool {
	rl.mu.Lock()
	bucket, ok := rl.clients[client]
	if !ok {
		bucket = &clientBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[client] = bucket
	}
	bucket.lastSeen = time.Now()
	rl.mu.Unlock()

	if bucket.limiter.Allow() {
		return true
	}
	rl.logger.Warn("Rate limit exceeded",
		"client", client,
		"endpoint", endpoint)
	return false
}

// Stats returns the bucket state of client, or false if it is unknown
func (rl *ClientRateLimiter) Stats(client string) (ClientStats, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, ok := rl.clients[client]
	if !ok {
		return ClientStats{}, false
	}
	return ClientStats{
		Client:   client,
		Tokens:   bucket.limiter.Tokens(),
		LastSeen: bucket.lastSeen,
	}, true
}

func (rl *ClientRateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stopChan:
			return
		}
	}
}

func (rl *ClientRateLimiter) cleanup(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for client, bucket := range rl.clients {
		if now.Sub(bucket.lastSeen) > rl.idle {
			delete(rl.clients, client)
			removed++
		}
	}
	if removed > 0 {
		rl.logger.Debug("Rate limiter cleanup completed",
			"clients_removed", removed,
			"active_clients", len(rl.clients))
	}
	return removed
}

// Stop ends the cleanup loop
func (rl *ClientRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}
