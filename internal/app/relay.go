package app

import (
	"github.com/rs/zerolog/log"

	"github.com/clanrich/signal/internal/core"
	"github.com/clanrich/signal/internal/domain"
)

// Relay implements the membership protocol and the two delivery primitives
// on top of the directory and registry. It never composes wire messages;
// the signal adapter does that from the results returned here.
type Relay struct {
	Registry *Registry
	Rooms    *core.Directory
}

func NewRelay(reg *Registry, dir *core.Directory) *Relay {
	return &Relay{Registry: reg, Rooms: dir}
}

// JoinResult describes a completed join for the adapter to announce.
type JoinResult struct {
	Room     domain.RoomID
	Nickname string
	// Peers is the member list at the moment of joining, excluding the
	// joiner itself, in join order.
	Peers []core.MemberDTO
	Count int
	// Left is set when the join displaced an existing membership in
	// another room.
	Left *LeaveResult
}

// LeaveResult describes a completed leave for the adapter to announce.
type LeaveResult struct {
	Room     domain.RoomID
	Nickname string
	// Remaining is the member count of the room after removal; the room
	// itself is already gone from the directory when it reaches zero.
	Remaining int
}

// Join moves the client into roomID, leaving any other room first so a
// connection holds at most one membership. Rejoining the same room replaces
// the stale record in place. The supplied nickname overwrites the live one
// (empty falls back to the default).
func (rl *Relay) Join(id domain.ClientID, conn core.SignalConnection, roomID domain.RoomID, nickname string) JoinResult {
	res := JoinResult{Room: roomID}

	if cur, ok := rl.Registry.RoomOf(id); ok && cur != roomID {
		if left, ok := rl.Leave(id); ok {
			res.Left = &left
		}
	}

	rl.Registry.SetNickname(id, nickname)
	res.Nickname = rl.Registry.Nickname(id)

	res.Peers = rl.peersExcluding(roomID, id)
	rl.Rooms.AddMember(roomID, &core.Member{ID: id, Nickname: res.Nickname, Conn: conn})
	rl.Registry.SetRoom(id, roomID)
	res.Count = rl.Rooms.MemberCount(roomID)

	log.Info().Str("module", "app.relay").Str("id", string(id)).Str("room", string(roomID)).Str("nickname", res.Nickname).Msg("join")
	return res
}

// Leave removes the client from its current room, deleting the room when it
// empties. Idempotent: a client with no room is a no-op returning false.
// The departed nickname is resolved from the membership record, falling back
// to the live registry value if the record is gone.
func (rl *Relay) Leave(id domain.ClientID) (LeaveResult, bool) {
	roomID, ok := rl.Registry.RoomOf(id)
	if !ok {
		return LeaveResult{}, false
	}

	removed, empty := rl.Rooms.RemoveMember(roomID, id)
	if empty {
		rl.Rooms.RemoveIfEmpty(roomID)
	}
	rl.Registry.ClearRoom(id)

	nickname := rl.Registry.Nickname(id)
	if removed != nil {
		nickname = removed.Nickname
	}

	log.Info().Str("module", "app.relay").Str("id", string(id)).Str("room", string(roomID)).Msg("leave")
	return LeaveResult{
		Room:      roomID,
		Nickname:  nickname,
		Remaining: rl.Rooms.MemberCount(roomID),
	}, true
}

// Unicast delivers data to one member of roomID. Misses (unknown target,
// wrong room, transport no longer open) are silently dropped: negotiation
// races are expected and resolved above this layer.
func (rl *Relay) Unicast(roomID domain.RoomID, target domain.ClientID, data core.Frame) bool {
	m, ok := rl.Rooms.Member(roomID, target)
	if !ok || !m.Conn.IsOpen() {
		log.Debug().Str("module", "app.relay").Str("room", string(roomID)).Str("target", string(target)).Msg("unicast dropped")
		return false
	}
	if err := m.Conn.TrySend(data); err != nil {
		log.Debug().Err(err).Str("module", "app.relay").Str("target", string(target)).Msg("unicast send failed")
		return false
	}
	return true
}

// Broadcast fans data out to every member of roomID whose transport is open,
// except exclude (empty means no exclusion). Members with a closed transport
// are skipped, not removed; removal is the leave path or the sweeper's job.
func (rl *Relay) Broadcast(roomID domain.RoomID, data core.Frame, exclude domain.ClientID) int {
	sent := 0
	for _, m := range rl.Rooms.MemberRecords(roomID) {
		if m.ID == exclude || !m.Conn.IsOpen() {
			continue
		}
		if err := m.Conn.TrySend(data); err != nil {
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app.relay").Str("room", string(roomID)).Int("sent", sent).Msg("broadcast")
	return sent
}

func (rl *Relay) peersExcluding(roomID domain.RoomID, id domain.ClientID) []core.MemberDTO {
	all := rl.Rooms.Members(roomID)
	out := make([]core.MemberDTO, 0, len(all))
	for _, m := range all {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}
