package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countFunc func(ctx context.Context, tripID, userID string, since time.Time) (int, error)

func (f countFunc) CountOthersSince(ctx context.Context, tripID, userID string, since time.Time) (int, error) {
	return f(ctx, tripID, userID, since)
}

func TestUnreadCountClamped(t *testing.T) {
	cases := []struct {
		name string
		n    int
		want int
	}{
		{"zero", 0, 0},
		{"plain", 7, 7},
		{"cap", 99, 99},
		{"over cap", 500, 99},
		{"negative", -3, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewUnreadService(countFunc(func(ctx context.Context, tripID, userID string, since time.Time) (int, error) {
				return tc.n, nil
			}), 24*time.Hour, time.Second)

			if got := svc.Count(context.Background(), "T1", "R1"); got != tc.want {
				t.Fatalf("Count() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestUnreadCountFallbackOnError(t *testing.T) {
	svc := NewUnreadService(countFunc(func(ctx context.Context, tripID, userID string, since time.Time) (int, error) {
		return 0, errors.New("store down")
	}), 24*time.Hour, time.Second)

	if got := svc.Count(context.Background(), "T1", "R1"); got != 1 {
		t.Fatalf("Count() = %d, want fallback 1", got)
	}
}

func TestUnreadCountFallbackOnTimeout(t *testing.T) {
	svc := NewUnreadService(countFunc(func(ctx context.Context, tripID, userID string, since time.Time) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}), 24*time.Hour, 20*time.Millisecond)

	start := time.Now()
	if got := svc.Count(context.Background(), "T1", "R1"); got != 1 {
		t.Fatalf("Count() = %d, want fallback 1", got)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Count() hung for %v, timeout not applied", elapsed)
	}
}

func TestUnreadCountWindowPassedToStore(t *testing.T) {
	window := 6 * time.Hour
	svc := NewUnreadService(countFunc(func(ctx context.Context, tripID, userID string, since time.Time) (int, error) {
		lookback := time.Since(since)
		if lookback < window-time.Minute || lookback > window+time.Minute {
			t.Errorf("lookback = %v, want ~%v", lookback, window)
		}
		return 2, nil
	}), window, time.Second)

	if got := svc.Count(context.Background(), "T1", "R1"); got != 2 {
		t.Fatalf("Count() = %d, want 2", got)
	}
}
