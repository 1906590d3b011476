package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clanrich/signal/internal/domain"
)

// Sweeper is the defensive consistency pass: on a fixed interval it evicts
// members whose transport already closed but whose close handler never ran,
// then lets the directory drop rooms left empty. The primary removal path
// stays the transport close callback.
type Sweeper struct {
	Relay    *Relay
	Interval time.Duration

	// OnEvict, when set, is invoked for every purged member so the
	// adapter can notify the survivors.
	OnEvict func(id domain.ClientID, left LeaveResult)
}

func NewSweeper(relay *Relay, interval time.Duration) *Sweeper {
	return &Sweeper{Relay: relay, Interval: interval}
}

// Run blocks until ctx is done, sweeping every Interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one pass over every room.
func (s *Sweeper) Sweep() {
	purged := 0
	for _, stat := range s.Relay.Rooms.Stats() {
		for _, m := range s.Relay.Rooms.MemberRecords(stat.ID) {
			if m.Conn.IsOpen() {
				continue
			}
			left, ok := s.Relay.Leave(m.ID)
			if !ok {
				continue
			}
			s.Relay.Registry.Remove(m.ID)
			purged++
			if s.OnEvict != nil {
				s.OnEvict(m.ID, left)
			}
		}
	}
	if purged > 0 {
		log.Info().Str("module", "app.sweeper").Int("purged", purged).Msg("swept stale members")
	}
}
