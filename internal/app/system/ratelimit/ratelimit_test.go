package ratelimit_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/civicbridge/internal/app/system/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_AllowAndReset(t *testing.T) {
	l := ratelimit.New(2, time.Minute)
	defer l.Stop()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}
	ok, _ := l.Allow(ctx, "k")
	assert.False(t, ok, "third attempt should be blocked")

	// Other keys are independent.
	ok, _ = l.Allow(ctx, "other")
	assert.True(t, ok)

	require.NoError(t, l.Reset(ctx, "k"))
	for i := 0; i < 2; i++ {
		ok, _ = l.Allow(ctx, "k")
		assert.True(t, ok, "attempt %d after reset", i+1)
	}
}

func TestLimiter_WindowExpires(t *testing.T) {
	l := ratelimit.New(1, 20*time.Millisecond)
	defer l.Stop()
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "k")
	require.True(t, ok)
	ok, _ = l.Allow(ctx, "k")
	require.False(t, ok)

	time.Sleep(40 * time.Millisecond)
	ok, _ = l.Allow(ctx, "k")
	assert.True(t, ok, "new window should allow again")
}

func TestLimiter_StopTwice(t *testing.T) {
	l := ratelimit.New(1, time.Minute)
	l.Stop()
	l.Stop()
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.1:1234", "10.0.0.1"},
		{"remote without port", nil, "10.0.0.1", "10.0.0.1"},
		{"forwarded for first", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2"}, "10.0.0.1:1", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.7 "}, "10.0.0.1:1", "198.51.100.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/auth/login", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ratelimit.ClientIP(r))
		})
	}
}

func TestLoginLimiter_IPThenEmail(t *testing.T) {
	ip := ratelimit.New(3, time.Minute)
	email := ratelimit.New(1, time.Minute)
	defer ip.Stop()
	defer email.Stop()
	ll := ratelimit.NewLoginLimiter(ip, email, nil)
	ctx := context.Background()

	r := httptest.NewRequest("POST", "/api/auth/login", nil)

	typ, ok := ll.Check(ctx, r, "Alice@Example.com")
	assert.True(t, ok)
	assert.Empty(t, typ)

	// Same account, different casing: blocked per email.
	typ, ok = ll.Check(ctx, r, " alice@example.com")
	assert.False(t, ok)
	assert.Equal(t, ratelimit.LimitEmail, typ)

	ll.ResetEmail(ctx, "alice@example.com")
	_, ok = ll.Check(ctx, r, "alice@example.com")
	assert.True(t, ok)

	// IP budget (3) now spent.
	typ, ok = ll.Check(ctx, r, "bob@example.com")
	assert.False(t, ok)
	assert.Equal(t, ratelimit.LimitIP, typ)
}

type failing struct{}

func (failing) Allow(context.Context, string) (bool, error) { return false, errors.New("down") }
func (failing) Reset(context.Context, string) error         { return errors.New("down") }

func TestLoginLimiter_FailsOpen(t *testing.T) {
	ll := ratelimit.NewLoginLimiter(failing{}, failing{}, nil)
	r := httptest.NewRequest("POST", "/api/auth/login", nil)

	_, ok := ll.Check(context.Background(), r, "a@example.com")
	assert.True(t, ok)
	ll.ResetEmail(context.Background(), "a@example.com")
}

func TestLoginLimiter_Nil(t *testing.T) {
	var ll *ratelimit.LoginLimiter
	_, ok := ll.Check(context.Background(), httptest.NewRequest("POST", "/", nil), "x@example.com")
	assert.True(t, ok)
}
