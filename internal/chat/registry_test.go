package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/allez-ride/chat-service/internal/domain"
)

func newTestRegistry(grace time.Duration) *Registry {
	return NewRegistry(&fakeStore{}, 50, 200*time.Millisecond, grace)
}

func TestGetOrCreateIsAtomic(t *testing.T) {
	reg := newTestRegistry(time.Second)

	const n = 64
	rooms := make([]*Room, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			rooms[i] = reg.GetOrCreate("T1")
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if rooms[i] != rooms[0] {
			t.Fatalf("duplicate room instance created under concurrent joins")
		}
	}
	if reg.Len() != 1 {
		t.Fatalf("expected 1 room, got %d", reg.Len())
	}
}

func TestConcurrentJoinsSingleRoom(t *testing.T) {
	reg := newTestRegistry(time.Second)

	const n = 32
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			p := part("c"+string(rune('a'+i)), "U", domain.RoleRider)
			if _, err := reg.Join(context.Background(), p, &fakeSink{}); err != nil {
				t.Errorf("join: %v", err)
			}
		}(i)
	}
	wg.Wait()

	room, ok := reg.Get("T1")
	if !ok {
		t.Fatalf("room missing")
	}
	if got := len(room.Participants()); got != n {
		t.Fatalf("expected %d participants, got %d", n, got)
	}
}

func TestEvictIfEmptyKeepsOccupiedRoom(t *testing.T) {
	reg := newTestRegistry(time.Second)

	if _, err := reg.Join(context.Background(), part("c1", "D1", domain.RoleDriver), &fakeSink{}); err != nil {
		t.Fatalf("join: %v", err)
	}

	reg.EvictIfEmpty("T1")
	if _, ok := reg.Get("T1"); !ok {
		t.Fatalf("occupied room must not be evicted")
	}
}

func TestLeaveEvictsAfterGrace(t *testing.T) {
	reg := newTestRegistry(30 * time.Millisecond)

	if _, err := reg.Join(context.Background(), part("c1", "D1", domain.RoleDriver), &fakeSink{}); err != nil {
		t.Fatalf("join: %v", err)
	}
	reg.Leave("T1", "c1")

	// Сразу после ухода комната ещё жива: окно на reconnect.
	if _, ok := reg.Get("T1"); !ok {
		t.Fatalf("room evicted synchronously, grace window ignored")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := reg.Get("T1"); !ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("empty room was not evicted after grace")
}

func TestReconnectDuringGraceKeepsRoom(t *testing.T) {
	reg := newTestRegistry(30 * time.Millisecond)

	first, err := reg.Join(context.Background(), part("c1", "D1", domain.RoleDriver), &fakeSink{})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	reg.Leave("T1", "c1")

	// Reconnect до истечения grace: та же комната остаётся в регистре.
	second, err := reg.Join(context.Background(), part("c2", "D1", domain.RoleDriver), &fakeSink{})
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if first != second {
		t.Fatalf("reconnect within grace must land in the same room")
	}

	time.Sleep(100 * time.Millisecond)
	if _, ok := reg.Get("T1"); !ok {
		t.Fatalf("occupied room evicted by stale grace timer")
	}
}

func TestJoinAfterEvictionCreatesFreshRoom(t *testing.T) {
	reg := newTestRegistry(time.Second)

	old, err := reg.Join(context.Background(), part("c1", "D1", domain.RoleDriver), &fakeSink{})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	reg.Leave("T1", "c1")
	reg.EvictIfEmpty("T1")

	fresh, err := reg.Join(context.Background(), part("c2", "R1", domain.RoleRider), &fakeSink{})
	if err != nil {
		t.Fatalf("join after eviction: %v", err)
	}
	if fresh == old {
		t.Fatalf("evicted room instance must not be reused")
	}
}
