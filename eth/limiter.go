package eth

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	minRateLimit     = 1                // minimum 1 call/sec
	increaseInterval = 60 * time.Second // increase rate after 60 seconds without errors
	increasePercent  = 10               // increase by 10%
	decreasePercent  = 50               // decrease by 50% on 429 error
	backoff          = 5 * time.Second
)

// limiter throttles RPC calls. A 429 halves the rate and pauses all calls
// for a while; a quiet minute raises the rate again up to the configured max.
type limiter struct {
	rl           *rate.Limiter
	mu           sync.Mutex
	max          int
	current      int
	backoffUntil time.Time
	lastChange   time.Time
}

func newLimiter(perSec int) *limiter {
	if perSec <= 0 {
		return &limiter{rl: rate.NewLimiter(rate.Inf, 1)}
	}
	return &limiter{
		rl:         rate.NewLimiter(rate.Limit(perSec), perSec),
		max:        perSec,
		current:    perSec,
		lastChange: time.Now(),
	}
}

func (l *limiter) wait(ctx context.Context) error {
	l.mu.Lock()
	until := l.backoffUntil
	l.mu.Unlock()

	if d := time.Until(until); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return l.rl.Wait(ctx)
}

func (l *limiter) onRateLimitError() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.backoffUntil = time.Now().Add(backoff)
	if l.max == 0 {
		return
	}

	n := l.current - l.current*decreasePercent/100
	if n < minRateLimit {
		n = minRateLimit
	}
	if n < l.current {
		log.Debug().Int("oldRate", l.current).Int("newRate", n).Msg("Rate limit decreased due to 429 error")
		l.current = n
		l.rl.SetLimit(rate.Limit(n))
	}
	l.lastChange = time.Now()
}

func (l *limiter) onSuccess() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max == 0 || l.current >= l.max || time.Since(l.lastChange) < increaseInterval {
		return
	}

	n := l.current + l.current*increasePercent/100
	if n == l.current {
		n++
	}
	if n > l.max {
		n = l.max
	}
	log.Debug().Int("oldRate", l.current).Int("newRate", n).Msg("Rate limit increased")
	l.current = n
	l.rl.SetLimit(rate.Limit(n))
	l.lastChange = time.Now()
}

func (l *limiter) currentRate() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "429") || strings.Contains(s, "Too Many Requests") || strings.Contains(s, "rate limit")
}

func isGatewayError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "502") || strings.Contains(s, "503") || strings.Contains(s, "504") ||
		strings.Contains(s, "Bad Gateway") || strings.Contains(s, "Service Unavailable")
}
