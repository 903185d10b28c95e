// internal/models/player.go
package models

import (
	"github.com/google/uuid"
)

// Player is a seat in a lobby. Identity is name-based within the lobby; ID is
// assigned on join and stays stable across reconnects.
type Player struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`

	// Role is empty until the game starts.
	Role Role `json:"role,omitempty"`

	// Pointers holds the two accused player ids submitted during Goods' Last Chance.
	Pointers []uuid.UUID `json:"pointers,omitempty"`
}

// PublicPlayer is the projection of a Player every connection is allowed to see.
type PublicPlayer struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
