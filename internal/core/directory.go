package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/clanrich/signal/internal/domain"
)

// Directory is the threadsafe room id -> member set mapping. It owns room
// lifecycle: rooms are created lazily on first insert and exist only while
// non-empty. It never touches transport resources.
type Directory struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*Room
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[domain.RoomID]*Room)}
}

// AddMember inserts a membership record, creating the room if absent.
// A stale record for the same client id is replaced, not duplicated.
func (d *Directory) AddMember(roomID domain.RoomID, m *Member) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[roomID]
	if !ok {
		room = newRoom(roomID)
		d.rooms[roomID] = room
	}
	room.add(m)
	log.Info().Str("module", "core.directory").Str("room", string(roomID)).Str("id", string(m.ID)).Msg("member added")
}

// RemoveMember drops the record for id from roomID. Returns the removed
// record and whether the room is empty afterwards. Safe to call for ids or
// rooms that are not present.
func (d *Directory) RemoveMember(roomID domain.RoomID, id domain.ClientID) (*Member, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[roomID]
	if !ok {
		return nil, false
	}
	m, ok := room.remove(id)
	if !ok {
		return nil, room.len() == 0
	}
	log.Info().Str("module", "core.directory").Str("room", string(roomID)).Str("id", string(id)).Msg("member removed")
	return m, room.len() == 0
}

// RemoveIfEmpty deletes the room entry iff its member set is empty.
func (d *Directory) RemoveIfEmpty(roomID domain.RoomID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if room, ok := d.rooms[roomID]; ok && room.len() == 0 {
		delete(d.rooms, roomID)
		log.Info().Str("module", "core.directory").Str("room", string(roomID)).Msg("room deleted")
	}
}

// Member looks up one record inside a room.
func (d *Directory) Member(roomID domain.RoomID, id domain.ClientID) (*Member, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[roomID]
	if !ok {
		return nil, false
	}
	return room.get(id)
}

// Members returns the current member view of a room in join order.
// Unknown rooms yield an empty slice, never an error.
func (d *Directory) Members(roomID domain.RoomID) []MemberDTO {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[roomID]
	if !ok {
		return []MemberDTO{}
	}
	out := make([]MemberDTO, 0, room.len())
	for _, m := range room.snapshot() {
		out = append(out, MemberDTO{ID: m.ID, Nickname: m.Nickname})
	}
	return out
}

// MemberRecords returns the live records of a room for fan-out.
func (d *Directory) MemberRecords(roomID domain.RoomID) []*Member {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[roomID]
	if !ok {
		return nil
	}
	return room.snapshot()
}

func (d *Directory) MemberCount(roomID domain.RoomID) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if room, ok := d.rooms[roomID]; ok {
		return room.len()
	}
	return 0
}

func (d *Directory) Has(roomID domain.RoomID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.rooms[roomID]
	return ok
}

type RoomStat struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
}

// Stats lists all live rooms with their member counts.
func (d *Directory) Stats() []RoomStat {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]RoomStat, 0, len(d.rooms))
	for id, room := range d.rooms {
		out = append(out, RoomStat{ID: id, MemberCount: room.len()})
	}
	return out
}
