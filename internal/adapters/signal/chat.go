package signal

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/clanrich/signal/internal/domain"
)

// handleTextMessage fans a chat line out to the sender's room mates with a
// server-stamped timestamp. The sender is excluded; its client already has
// the line locally.
func (ctl *Controller) handleTextMessage(id domain.ClientID, conn *wsConn, data []byte) {
	type textPayload struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	var p textPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad text-message payload")
		ctl.sendError(conn, "Invalid JSON")
		return
	}

	roomID, ok := ctl.Relay.Registry.RoomOf(id)
	if !ok {
		log.Debug().Str("module", "signal").Str("id", string(id)).Msg("text-message outside a room")
		return
	}

	ctl.broadcastJSON(roomID, struct {
		Type         string          `json:"type"`
		FromID       domain.ClientID `json:"fromId"`
		FromNickname string          `json:"fromNickname"`
		Message      string          `json:"message"`
		Timestamp    int64           `json:"timestamp"`
	}{"text-message", id, ctl.Relay.Registry.Nickname(id), p.Message, time.Now().UnixMilli()}, id)
}
