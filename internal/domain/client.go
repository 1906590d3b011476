// Package domain contains entity without logic, just meta-data
package domain

const MaxNicknameLen = 36

// DefaultNickname is used when a client joins without announcing a name.
const DefaultNickname = "Anonymous"

type ClientID string

// Client is one accepted transport session: identity plus current room.
// Mutated only by the registry on behalf of the connection's own messages.
type Client struct {
	ID       ClientID `json:"id"`
	Nickname string   `json:"nickname"`
	Room     RoomID   `json:"-"`
}

// NewClient avoids raw literals in adapters and keeps construction obvious.
func NewClient(id ClientID) *Client {
	return &Client{ID: id, Nickname: DefaultNickname}
}

func (c *Client) SetNickname(nickname string) {
	if nickname == "" {
		nickname = DefaultNickname
	}
	if len(nickname) > MaxNicknameLen {
		nickname = nickname[:MaxNicknameLen]
	}
	c.Nickname = nickname
}
