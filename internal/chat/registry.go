package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/allez-ride/chat-service/internal/domain"
)

// Registry — единственное общее состояние процесса: tripID -> Room.
// Комната создаётся лениво первым join-ом и сносится, когда пустеет,
// с отсрочкой grace — чтобы пережить короткие reconnect-ы.
type Registry struct {
	store        MessageStore
	historyLimit int
	storeTimeout time.Duration
	grace        time.Duration

	mu    sync.RWMutex
	rooms map[string]*Room
}

func NewRegistry(store MessageStore, historyLimit int, storeTimeout, grace time.Duration) *Registry {
	if historyLimit <= 0 {
		historyLimit = 50
	}
	if storeTimeout <= 0 {
		storeTimeout = 3 * time.Second
	}
	if grace <= 0 {
		grace = 5 * time.Second
	}
	return &Registry{
		store:        store,
		historyLimit: historyLimit,
		storeTimeout: storeTimeout,
		grace:        grace,
		rooms:        make(map[string]*Room),
	}
}

// GetOrCreate атомарна: два одновременных join по новому tripID получают
// один и тот же экземпляр комнаты.
func (g *Registry) GetOrCreate(tripID string) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[tripID]
	if !ok {
		room = newRoom(tripID, g.store, g.historyLimit, g.storeTimeout)
		g.rooms[tripID] = room
	}
	return room
}

func (g *Registry) Get(tripID string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[tripID]
	return room, ok
}

// Join подключает участника к комнате его поездки. Если комната была
// снесена между GetOrCreate и join (гонка с эвикцией), берём новую.
func (g *Registry) Join(ctx context.Context, p domain.Participant, sink Sink) (*Room, error) {
	for {
		room := g.GetOrCreate(p.TripID)
		if err := room.join(ctx, p, sink); err == nil {
			return room, nil
		}
	}
}

// Leave снимает участника с комнаты и, если она опустела, планирует
// отложенную проверку на снос.
func (g *Registry) Leave(tripID, connID string) {
	room, ok := g.Get(tripID)
	if !ok {
		return
	}
	if room.Leave(connID) {
		time.AfterFunc(g.grace, func() { g.EvictIfEmpty(tripID) })
	}
}

// EvictIfEmpty сносит комнату, только если в ней всё ещё никого нет.
func (g *Registry) EvictIfEmpty(tripID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room, ok := g.rooms[tripID]
	if !ok {
		return
	}

	room.mu.Lock()
	if len(room.parts) == 0 {
		room.closed = true
		delete(g.rooms, tripID)
		slog.Debug("room evicted", "trip", tripID)
	}
	room.mu.Unlock()
}

// Len — количество живых комнат (для healthz/логов).
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
