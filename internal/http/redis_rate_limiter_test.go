package httpx

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisRateLimiterFixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	limiter, err := NewRedisRateLimiter(mr.Addr(), "", 0, log)
	if err != nil {
		t.Fatalf("NewRedisRateLimiter returned error: %v", err)
	}
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		if decision := limiter.Allow("user:u1", 3, time.Minute); !decision.allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if decision := limiter.Allow("user:u1", 3, time.Minute); decision.allowed {
		t.Fatal("fourth request should be rejected")
	}
	// other keys have their own window
	if decision := limiter.Allow("user:u2", 3, time.Minute); !decision.allowed {
		t.Fatal("independent key should be allowed")
	}

	mr.FastForward(2 * time.Minute)
	if decision := limiter.Allow("user:u1", 3, time.Minute); !decision.allowed {
		t.Fatal("expected a fresh window after expiry")
	}
}

func TestMemoryRateLimiterFixedWindow(t *testing.T) {
	limiter := NewMemoryRateLimiter()
	defer limiter.Close()

	for i := 0; i < 2; i++ {
		if decision := limiter.Allow("ip:1.2.3.4", 2, time.Minute); !decision.allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	decision := limiter.Allow("ip:1.2.3.4", 2, time.Minute)
	if decision.allowed {
		t.Fatal("third request should be rejected")
	}
	if decision.count != 2 {
		t.Fatalf("expected count to stay at limit, got %d", decision.count)
	}
}
