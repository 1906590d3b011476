package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/clanrich/signal/internal/domain"
)

// handleRelay forwards a negotiation message (offer, answer, ice-candidate,
// mute-state) verbatim to the addressed peer in the sender's room, stamping
// the sender's id and nickname into it. The payload is otherwise opaque.
// Misses are dropped without a reply: the peers renegotiate above this layer.
func (ctl *Controller) handleRelay(id domain.ClientID, data []byte) {
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("id", string(id)).Msg("bad relay payload")
		return
	}

	target, _ := msg["targetId"].(string)
	if target == "" {
		log.Debug().Str("module", "signal").Str("id", string(id)).Msg("relay without targetId")
		return
	}

	roomID, ok := ctl.Relay.Registry.RoomOf(id)
	if !ok {
		log.Debug().Str("module", "signal").Str("id", string(id)).Msg("relay outside a room")
		return
	}

	msg["fromId"] = string(id)
	msg["fromNickname"] = ctl.Relay.Registry.Nickname(id)

	b, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("relay marshal")
		return
	}
	ctl.Relay.Unicast(roomID, domain.ClientID(target), b)
}
