package domain

type RoomID string

// RoomInfo is static display metadata for a room, sourced from config.
// Rooms outside the configured set fall back to their id as the name.
type RoomInfo struct {
	ID          RoomID `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Icon        string `json:"icon,omitempty" mapstructure:"icon"`
	Description string `json:"description,omitempty" mapstructure:"description"`
}
