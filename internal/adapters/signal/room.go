package signal

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/clanrich/signal/internal/app"
	"github.com/clanrich/signal/internal/core"
	"github.com/clanrich/signal/internal/domain"
)

func (ctl *Controller) handleJoin(id domain.ClientID, conn *wsConn, data []byte) {
	type joinPayload struct {
		Type     string `json:"type"`
		Room     string `json:"room"`
		Nickname string `json:"nickname,omitempty"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, "Invalid JSON")
		return
	}
	ctl.joinRoom(id, conn, p.Room, p.Nickname)
}

// handleSwitchRoom is leave-then-join with the new room id. The oldRoom
// field of the payload is advisory only; server-side state decides which
// room is actually left.
func (ctl *Controller) handleSwitchRoom(id domain.ClientID, conn *wsConn, data []byte) {
	type switchPayload struct {
		Type       string `json:"type"`
		TargetRoom string `json:"targetRoom"`
		Nickname   string `json:"nickname,omitempty"`
		OldRoom    string `json:"oldRoom,omitempty"`
	}
	var p switchPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad switch-room payload")
		ctl.sendError(conn, "Invalid JSON")
		return
	}
	nickname := p.Nickname
	if nickname == "" {
		nickname = ctl.Relay.Registry.Nickname(id)
	}
	ctl.joinRoom(id, conn, p.TargetRoom, nickname)
}

func (ctl *Controller) joinRoom(id domain.ClientID, conn *wsConn, room, nickname string) {
	if room == "" {
		room = ctl.Cfg.DefaultRoom
	}
	roomID := domain.RoomID(room)

	res := ctl.Relay.Join(id, conn, roomID, nickname)
	if res.Left != nil {
		ctl.announceLeft(id, *res.Left)
	}

	reply := struct {
		Type       string             `json:"type"`
		Room       domain.RoomID      `json:"room"`
		Info       domain.RoomInfo    `json:"info"`
		Users      []core.MemberDTO   `json:"users"`
		Count      int                `json:"count"`
		ICEServers []webrtc.ICEServer `json:"iceServers,omitempty"`
	}{
		Type:       "joined",
		Room:       res.Room,
		Info:       ctl.Cfg.RoomInfo(res.Room),
		Users:      res.Peers,
		Count:      res.Count,
		ICEServers: ctl.Cfg.ICEServers(),
	}
	ctl.sendJSON(conn, reply)

	ctl.broadcastJSON(res.Room, struct {
		Type string         `json:"type"`
		User core.MemberDTO `json:"user"`
	}{"user-joined", core.MemberDTO{ID: id, Nickname: res.Nickname}}, id)

	ctl.broadcastUserCount(res.Room, id)
}

func (ctl *Controller) handleLeave(id domain.ClientID) {
	left, ok := ctl.Relay.Leave(id)
	if !ok {
		return
	}
	ctl.announceLeft(id, left)
}

// announceLeft notifies the survivors of a room the departed member was in.
// The departed nickname is the one the room knew it by.
func (ctl *Controller) announceLeft(id domain.ClientID, left app.LeaveResult) {
	if left.Remaining == 0 {
		return
	}
	ctl.broadcastJSON(left.Room, struct {
		Type     string          `json:"type"`
		UserID   domain.ClientID `json:"userId"`
		Nickname string          `json:"nickname"`
	}{"user-left", id, left.Nickname}, id)

	ctl.broadcastUserCount(left.Room, id)
}

func (ctl *Controller) broadcastUserCount(room domain.RoomID, exclude domain.ClientID) {
	ctl.broadcastJSON(room, struct {
		Type  string        `json:"type"`
		Room  domain.RoomID `json:"room"`
		Count int           `json:"count"`
	}{"user-count", room, ctl.Relay.Rooms.MemberCount(room)}, exclude)
}
