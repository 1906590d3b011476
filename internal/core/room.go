package core

import (
	"github.com/clanrich/signal/internal/domain"
)

// Member is the membership record a room keeps per client. The nickname is
// captured at join time and may drift from the registry's live value.
type Member struct {
	ID       domain.ClientID
	Nickname string
	Conn     SignalConnection
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID       domain.ClientID `json:"id"`
	Nickname string          `json:"nickname"`
}

// Room is a set of member records, uniqueness by client id.
// Iteration order is join order. Not safe for concurrent use on its own;
// all access goes through the Directory's lock.
type Room struct {
	id      domain.RoomID
	members map[domain.ClientID]*Member
	order   []domain.ClientID
}

func newRoom(id domain.RoomID) *Room {
	return &Room{
		id:      id,
		members: make(map[domain.ClientID]*Member),
	}
}

func (r *Room) ID() domain.RoomID { return r.id }

func (r *Room) len() int { return len(r.members) }

// add inserts a record, replacing any stale record for the same client id
// (rejoin without leave) without duplicating it in the join order.
func (r *Room) add(m *Member) {
	if _, ok := r.members[m.ID]; !ok {
		r.order = append(r.order, m.ID)
	}
	r.members[m.ID] = m
}

func (r *Room) remove(id domain.ClientID) (*Member, bool) {
	m, ok := r.members[id]
	if !ok {
		return nil, false
	}
	delete(r.members, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return m, true
}

func (r *Room) get(id domain.ClientID) (*Member, bool) {
	m, ok := r.members[id]
	return m, ok
}

func (r *Room) snapshot() []*Member {
	out := make([]*Member, 0, len(r.members))
	for _, id := range r.order {
		out = append(out, r.members[id])
	}
	return out
}
