// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Allower decides whether another attempt for key fits in the current window.
// Implementations are safe for concurrent use.
type Allower interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// Limiter is an in-process fixed window limiter.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int           // max requests per window
	duration time.Duration // window duration
	stop     chan struct{}
	stopOnce sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a limiter allowing limit attempts per duration and starts its
// cleanup goroutine. Call Stop to end it.
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		stop:     make(chan struct{}),
	}
	go l.cleanupLoop(duration * 2)
	return l
}

// Allow records an attempt for key and reports whether it is within limits.
func (l *Limiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, ok := l.windows[key]
	if !ok || now.After(w.expiresAt) {
		l.windows[key] = &window{count: 1, expiresAt: now.Add(l.duration)}
		return true, nil
	}
	if w.count >= l.limit {
		return false, nil
	}
	w.count++
	return true, nil
}

// Reset clears the window for key.
func (l *Limiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
	return nil
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := time.Now()
			for key, w := range l.windows {
				if now.After(w.expiresAt) {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// ClientIP extracts the client IP from an HTTP request.
// X-Forwarded-For (first entry) and X-Real-IP win over RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// Limit types reported by LoginLimiter.Check.
const (
	LimitIP    = "ip"
	LimitEmail = "email"
)

// LoginLimiter throttles credential endpoints per client IP and, when an
// email is supplied, per account.
//
// Backend errors fail open: the attempt is allowed and the error is logged.
type LoginLimiter struct {
	ip    Allower
	email Allower
	log   *zap.Logger
}

// NewLoginLimiter combines an IP limiter and an optional email limiter.
func NewLoginLimiter(ip, email Allower, log *zap.Logger) *LoginLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoginLimiter{ip: ip, email: email, log: log}
}

// Check records an attempt and returns ("", true) when it may proceed, or the
// limit type that blocked it.
func (ll *LoginLimiter) Check(ctx context.Context, r *http.Request, email string) (string, bool) {
	if ll == nil {
		return "", true
	}
	if !ll.allow(ctx, ll.ip, ClientIP(r)) {
		return LimitIP, false
	}
	if key := emailKey(email); key != "" && ll.email != nil {
		if !ll.allow(ctx, ll.email, key) {
			return LimitEmail, false
		}
	}
	return "", true
}

// ResetEmail clears the per-account window after a successful login.
func (ll *LoginLimiter) ResetEmail(ctx context.Context, email string) {
	if ll == nil || ll.email == nil {
		return
	}
	if key := emailKey(email); key != "" {
		if err := ll.email.Reset(ctx, key); err != nil {
			ll.log.Warn("rate limit reset failed", zap.Error(err))
		}
	}
}

func (ll *LoginLimiter) allow(ctx context.Context, a Allower, key string) bool {
	if a == nil {
		return true
	}
	ok, err := a.Allow(ctx, key)
	if err != nil {
		ll.log.Warn("rate limiter unavailable; allowing attempt", zap.Error(err))
		return true
	}
	return ok
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
