// internal/handlers/messages.go
package handlers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/quest/internal/game"
	"github.com/jason-s-yu/quest/internal/models"
)

// Inbound event names.
const (
	EventJoinGame           = "JOIN_GAME"
	EventStartGame          = "START_GAME"
	EventUpdateTeam         = "UPDATE_TEAM"
	EventConfirmTeam        = "CONFIRM_TEAM"
	EventSubmitQuest        = "SUBMIT_QUEST"
	EventUpdateLeader       = "UPDATE_LEADER"
	EventUpdateAmuletHolder = "UPDATE_AMULET_HOLDER"
	EventUpdateAmuletUsage  = "UPDATE_AMULET_USAGE"
	EventConfirmLeader      = "CONFIRM_LEADER"
	EventConfirmAmuletUsage = "CONFIRM_AMULET_USAGE"
	EventHuntStarted        = "HUNT_STARTED"
	EventUpdateHunted       = "UPDATE_HUNTED"
	EventConfirmHunted      = "CONFIRM_HUNTED"
	EventSubmitPointed      = "SUBMIT_POINTED"
)

// envelope carries the fields common to every inbound message.
type envelope struct {
	Event   string `json:"event"`
	LobbyID string `json:"lobbyId"`
}

// Action is one decoded inbound message other than JOIN_GAME.
type Action interface {
	Event() string
	Apply(s *game.Session, actor uuid.UUID) error
}

// JoinGame is handled by the transport since it binds the connection to a lobby.
type JoinGame struct {
	PlayerName string `json:"playerName"`
}

func (JoinGame) Event() string { return EventJoinGame }

// Apply is never used for joins; the transport calls Session.Join directly.
func (JoinGame) Apply(*game.Session, uuid.UUID) error {
	return fmt.Errorf("%w: join must be handled by the connection", game.ErrIllegalPhase)
}

type StartGame struct{}

func (StartGame) Event() string { return EventStartGame }
func (StartGame) Apply(s *game.Session, actor uuid.UUID) error {
	return s.StartGame(actor)
}

type UpdateTeam struct {
	SelectedPlayers  []uuid.UUID `json:"selectedPlayers"`
	MagicTokenHolder *uuid.UUID  `json:"magicTokenHolder"`
}

func (UpdateTeam) Event() string { return EventUpdateTeam }
func (m UpdateTeam) Apply(s *game.Session, actor uuid.UUID) error {
	return s.UpdateTeam(actor, m.SelectedPlayers, m.MagicTokenHolder)
}

type ConfirmTeam struct{}

func (ConfirmTeam) Event() string { return EventConfirmTeam }
func (ConfirmTeam) Apply(s *game.Session, actor uuid.UUID) error {
	return s.ConfirmTeam(actor)
}

type SubmitQuest struct {
	PlayerID        *uuid.UUID `json:"playerId"`
	IsQuestCardPass *bool      `json:"isQuestCardPass"`
}

func (SubmitQuest) Event() string { return EventSubmitQuest }
func (m SubmitQuest) Apply(s *game.Session, actor uuid.UUID) error {
	return s.SubmitQuest(actor, *m.PlayerID, *m.IsQuestCardPass)
}

type UpdateLeader struct {
	UpdatedLeader *uuid.UUID `json:"updatedLeader"`
}

func (UpdateLeader) Event() string { return EventUpdateLeader }
func (m UpdateLeader) Apply(s *game.Session, actor uuid.UUID) error {
	return s.UpdateLeader(actor, *m.UpdatedLeader)
}

type UpdateAmuletHolder struct {
	UpdatedAmuletHolder *uuid.UUID `json:"updatedAmuletHolder"`
}

func (UpdateAmuletHolder) Event() string { return EventUpdateAmuletHolder }
func (m UpdateAmuletHolder) Apply(s *game.Session, actor uuid.UUID) error {
	return s.UpdateAmuletHolder(actor, *m.UpdatedAmuletHolder)
}

type UpdateAmuletUsage struct {
	UpdatedAmuletUsage *uuid.UUID `json:"updatedAmuletUsage"`
}

func (UpdateAmuletUsage) Event() string { return EventUpdateAmuletUsage }
func (m UpdateAmuletUsage) Apply(s *game.Session, actor uuid.UUID) error {
	return s.UpdateAmuletUsage(actor, *m.UpdatedAmuletUsage)
}

type ConfirmLeader struct{}

func (ConfirmLeader) Event() string { return EventConfirmLeader }
func (ConfirmLeader) Apply(s *game.Session, actor uuid.UUID) error {
	return s.ConfirmLeader(actor)
}

type ConfirmAmuletUsage struct{}

func (ConfirmAmuletUsage) Event() string { return EventConfirmAmuletUsage }
func (ConfirmAmuletUsage) Apply(s *game.Session, actor uuid.UUID) error {
	return s.ConfirmAmuletUsage(actor)
}

type HuntStarted struct{}

func (HuntStarted) Event() string { return EventHuntStarted }
func (HuntStarted) Apply(s *game.Session, actor uuid.UUID) error {
	return s.StartHunt(actor)
}

type UpdateHunted struct {
	Hunted []models.HuntGuess `json:"hunted"`
}

func (UpdateHunted) Event() string { return EventUpdateHunted }
func (m UpdateHunted) Apply(s *game.Session, actor uuid.UUID) error {
	return s.UpdateHunted(actor, m.Hunted)
}

type ConfirmHunted struct{}

func (ConfirmHunted) Event() string { return EventConfirmHunted }
func (ConfirmHunted) Apply(s *game.Session, actor uuid.UUID) error {
	return s.ConfirmHunted(actor)
}

type SubmitPointed struct {
	PlayerID *uuid.UUID  `json:"playerId"`
	Pointed  []uuid.UUID `json:"pointed"`
}

func (SubmitPointed) Event() string { return EventSubmitPointed }
func (m SubmitPointed) Apply(s *game.Session, actor uuid.UUID) error {
	return s.SubmitPointed(actor, *m.PlayerID, m.Pointed)
}

// DecodeMessage parses one frame into its lobby code and typed action. Required
// fields are checked here so Apply can dereference them.
func DecodeMessage(data []byte) (string, Action, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("%w: %v", game.ErrMalformedMessage, err)
	}
	if env.Event == "" {
		return "", nil, fmt.Errorf("%w: event", game.ErrMissingField)
	}
	lobbyID := strings.TrimSpace(env.LobbyID)
	if lobbyID == "" {
		return "", nil, fmt.Errorf("%w: lobbyId", game.ErrMissingField)
	}

	var action Action
	switch env.Event {
	case EventJoinGame:
		action = &JoinGame{}
	case EventStartGame:
		action = &StartGame{}
	case EventUpdateTeam:
		action = &UpdateTeam{}
	case EventConfirmTeam:
		action = &ConfirmTeam{}
	case EventSubmitQuest:
		action = &SubmitQuest{}
	case EventUpdateLeader:
		action = &UpdateLeader{}
	case EventUpdateAmuletHolder:
		action = &UpdateAmuletHolder{}
	case EventUpdateAmuletUsage:
		action = &UpdateAmuletUsage{}
	case EventConfirmLeader:
		action = &ConfirmLeader{}
	case EventConfirmAmuletUsage:
		action = &ConfirmAmuletUsage{}
	case EventHuntStarted:
		action = &HuntStarted{}
	case EventUpdateHunted:
		action = &UpdateHunted{}
	case EventConfirmHunted:
		action = &ConfirmHunted{}
	case EventSubmitPointed:
		action = &SubmitPointed{}
	default:
		return lobbyID, nil, fmt.Errorf("%w: %s", game.ErrUnknownEvent, env.Event)
	}

	if err := json.Unmarshal(data, action); err != nil {
		return lobbyID, nil, fmt.Errorf("%w: %v", game.ErrMalformedMessage, err)
	}
	if err := requireFields(action); err != nil {
		return lobbyID, nil, err
	}
	return lobbyID, action, nil
}

func requireFields(action Action) error {
	missing := ""
	switch m := action.(type) {
	case *JoinGame:
		if strings.TrimSpace(m.PlayerName) == "" {
			missing = "playerName"
		}
	case *SubmitQuest:
		switch {
		case m.PlayerID == nil:
			missing = "playerId"
		case m.IsQuestCardPass == nil:
			missing = "isQuestCardPass"
		}
	case *UpdateLeader:
		if m.UpdatedLeader == nil {
			missing = "updatedLeader"
		}
	case *UpdateAmuletHolder:
		if m.UpdatedAmuletHolder == nil {
			missing = "updatedAmuletHolder"
		}
	case *UpdateAmuletUsage:
		if m.UpdatedAmuletUsage == nil {
			missing = "updatedAmuletUsage"
		}
	case *SubmitPointed:
		switch {
		case m.PlayerID == nil:
			missing = "playerId"
		case m.Pointed == nil:
			missing = "pointed"
		}
	}
	if missing != "" {
		return fmt.Errorf("%w: %s", game.ErrMissingField, missing)
	}
	return nil
}
