// internal/game/events.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/quest/internal/models"
)

// EventType names an outbound message.
type EventType string

const (
	EventGameStateUpdate EventType = "GAME_STATE_UPDATE"
	EventJoined          EventType = "JOINED"
	EventRoleAssigned    EventType = "ROLE_ASSIGNED"
	EventClericInfo      EventType = "CLERIC_INFO"
	EventEvilInfo        EventType = "EVIL_INFO"
	EventAmuletInfo      EventType = "AMULET_INFO"
	EventHunterInfo      EventType = "HUNTER_INFO"
	EventCardReceived    EventType = "CARD_RECEIVED"
	EventError           EventType = "ERROR"
)

// GameEvent is the single outbound envelope. Only the fields relevant to Event are set.
type GameEvent struct {
	Event EventType `json:"event"`

	State    *PublicState `json:"state,omitempty"`
	ID       *uuid.UUID   `json:"id,omitempty"`
	Role     models.Role  `json:"role,omitempty"`
	Message  interface{}  `json:"message,omitempty"`
	PlayerID *uuid.UUID   `json:"playerId,omitempty"`
	LobbyID  string       `json:"lobbyId,omitempty"`

	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// ErrorEvent renders err for the client that caused it.
func ErrorEvent(err error) GameEvent {
	return GameEvent{Event: EventError, Error: err.Error(), Code: CodeOf(err)}
}

func roleAssignedEvent(p *models.Player) GameEvent {
	id := p.ID
	return GameEvent{Event: EventRoleAssigned, ID: &id, Role: p.Role}
}

func joinedEvent(playerID uuid.UUID, lobbyID string) GameEvent {
	return GameEvent{Event: EventJoined, PlayerID: &playerID, LobbyID: lobbyID}
}

func cardReceivedEvent(playerID uuid.UUID) GameEvent {
	return GameEvent{Event: EventCardReceived, PlayerID: &playerID}
}
