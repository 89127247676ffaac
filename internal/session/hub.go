package session

import "sync"

// Hub guarantees exactly one live actor per partition name. Partitions are
// fully independent: no state is shared across them and they run
// concurrently.
type Hub struct {
	cfg Config

	mu     sync.Mutex
	actors map[string]*Actor
}

// NewHub constructs a hub; actors are created lazily on first dispatch.
func NewHub(cfg Config) *Hub {
	return &Hub{cfg: cfg, actors: make(map[string]*Actor)}
}

// Get returns the partition's actor, creating it on first use.
func (h *Hub) Get(name string) *Actor {
	h.mu.Lock()
	defer h.mu.Unlock()
	a, ok := h.actors[name]
	if !ok {
		a = NewActor(name, h.cfg)
		h.actors[name] = a
	}
	return a
}
