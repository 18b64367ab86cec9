package ratelimit

import (
	"errors"
	"testing"
	"time"

	"github.com/voyago/tripcraft/internal/domain"
)

func TestAllow_WithinLimit(t *testing.T) {
	l := New(true, 3)
	for i := 0; i < 3; i++ {
		if err := l.Allow("journey-1"); err != nil {
			t.Fatalf("request %d rejected: %v", i+1, err)
		}
	}
	if err := l.Allow("journey-1"); !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	l := New(true, 1)
	if err := l.Allow("journey-1"); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	if err := l.Allow("journey-2"); err != nil {
		t.Errorf("unrelated key rejected: %v", err)
	}
}

func TestAllow_WindowSlides(t *testing.T) {
	l := New(true, 1)
	now := time.Now()
	l.now = func() time.Time { return now }

	if err := l.Allow("journey-1"); err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	if err := l.Allow("journey-1"); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// Advance past the window; the old hit must expire.
	l.now = func() time.Time { return now.Add(61 * time.Minute) }
	if err := l.Allow("journey-1"); err != nil {
		t.Errorf("expected hit to expire, got %v", err)
	}
}

func TestAllow_DisabledAllowsEverything(t *testing.T) {
	l := New(false, 0)
	for i := 0; i < 100; i++ {
		if err := l.Allow("journey-1"); err != nil {
			t.Fatalf("disabled limiter rejected request: %v", err)
		}
	}
}
