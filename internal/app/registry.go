package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/clanrich/signal/internal/domain"
)

// Registry owns per-connection identity state: assigned id, nickname and the
// current room association. Entries live from transport accept to close.
type Registry struct {
	mu      sync.RWMutex
	clients map[domain.ClientID]*domain.Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[domain.ClientID]*domain.Client)}
}

// Add creates the entry for a freshly accepted connection.
func (r *Registry) Add(id domain.ClientID) *domain.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := domain.NewClient(id)
	r.clients[id] = c
	log.Info().Str("module", "app.registry").Str("id", string(id)).Msg("client registered")
	return c
}

// Get returns a copy of the client's identity state.
func (r *Registry) Get(id domain.ClientID) (domain.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.clients[id]; ok {
		return *c, true
	}
	return domain.Client{}, false
}

func (r *Registry) Remove(id domain.ClientID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, id)
	log.Info().Str("module", "app.registry").Str("id", string(id)).Msg("client removed")
}

// SetNickname overwrites the live nickname, last value wins.
func (r *Registry) SetNickname(id domain.ClientID, nickname string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[id]; ok {
		c.SetNickname(nickname)
		log.Info().Str("module", "app.registry").Str("id", string(id)).Str("nickname", c.Nickname).Msg("nickname updated")
	}
}

// Nickname resolves the live nickname, DefaultNickname for unknown ids.
func (r *Registry) Nickname(id domain.ClientID) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.clients[id]; ok {
		return c.Nickname
	}
	return domain.DefaultNickname
}

func (r *Registry) SetRoom(id domain.ClientID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[id]; ok {
		c.Room = room
	}
}

func (r *Registry) ClearRoom(id domain.ClientID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.clients[id]; ok {
		c.Room = ""
	}
}

// RoomOf reports the client's current room, false when not joined.
func (r *Registry) RoomOf(id domain.ClientID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	if !ok || c.Room == "" {
		return "", false
	}
	return c.Room, true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
