package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestUpdateFromHeaders(t *testing.T) {
	tests := []struct {
		name        string
		headers     map[string]string
		wantKnown   bool
		wantRemain  int
		wantLimit   int
		shouldError bool
	}{
		{
			name:      "no quota headers",
			headers:   map[string]string{},
			wantKnown: false,
		},
		{
			name:       "remaining and limit",
			headers:    map[string]string{HeaderRemaining: "42", HeaderLimit: "60", HeaderReset: "30"},
			wantKnown:  true,
			wantRemain: 42,
			wantLimit:  60,
		},
		{
			name:        "invalid remaining",
			headers:     map[string]string{HeaderRemaining: "lots"},
			shouldError: true,
		},
		{
			name:        "invalid reset",
			headers:     map[string]string{HeaderRemaining: "5", HeaderReset: "soon"},
			shouldError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker(DefaultConfig(), zerolog.Nop())

			headers := http.Header{}
			for k, v := range tt.headers {
				headers.Set(k, v)
			}

			err := tracker.UpdateFromHeaders(headers)
			if tt.shouldError {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				if tracker.State().Known {
					t.Error("state must not change on a parse error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			state := tracker.State()
			if state.Known != tt.wantKnown {
				t.Errorf("Known = %v, want %v", state.Known, tt.wantKnown)
			}
			if state.Remaining != tt.wantRemain {
				t.Errorf("Remaining = %d, want %d", state.Remaining, tt.wantRemain)
			}
			if state.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", state.Limit, tt.wantLimit)
			}
		})
	}
}

func TestResetTime(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	if got := resetTime(now, 30); !got.Equal(now.Add(30 * time.Second)) {
		t.Errorf("relative reset = %v, want %v", got, now.Add(30*time.Second))
	}

	abs := now.Add(time.Hour).Unix()
	if got := resetTime(now, abs); got.Unix() != abs {
		t.Errorf("absolute reset = %v, want %v", got.Unix(), abs)
	}
}

func TestWait_BlocksWhenExhausted(t *testing.T) {
	tracker := NewTracker(DefaultConfig(), zerolog.Nop())

	headers := http.Header{}
	headers.Set(HeaderRemaining, "0")
	headers.Set(HeaderReset, strconv.Itoa(60))
	if err := tracker.UpdateFromHeaders(headers); err != nil {
		t.Fatalf("UpdateFromHeaders: %v", err)
	}

	err := tracker.Wait(context.Background())
	if !errors.Is(err, ErrQuotaExhausted) {
		t.Errorf("Wait() = %v, want ErrQuotaExhausted", err)
	}
}

func TestWait_AllowsBurst(t *testing.T) {
	tracker := NewTracker(Config{RequestsPerSecond: 0.001, Burst: 2}, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := tracker.Wait(ctx); err != nil {
			t.Fatalf("Wait() #%d = %v", i+1, err)
		}
	}

	// The third request would have to wait far beyond the deadline.
	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := tracker.Wait(ctx); err == nil {
		t.Error("Wait() should fail once the burst is spent and the context expires")
	}
}

func TestNewTracker_Defaults(t *testing.T) {
	tracker := NewTracker(Config{}, zerolog.Nop())

	if tracker.bucket.Burst() != 1 {
		t.Errorf("Burst = %d, want 1", tracker.bucket.Burst())
	}
	if float64(tracker.bucket.Limit()) != DefaultConfig().RequestsPerSecond {
		t.Errorf("Limit = %v, want %v", tracker.bucket.Limit(), DefaultConfig().RequestsPerSecond)
	}
}
