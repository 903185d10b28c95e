// internal/game/sync_state.go
package game

import (
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/quest/internal/models"
)

// PublicPlayerState is what every client may know about a player. Roles are
// revealed only once the game is decided.
type PublicPlayerState struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Connected    bool        `json:"connected"`
	HasPointed   bool        `json:"hasPointed"`
	Role         models.Role `json:"role,omitempty"`
	Pointers     []uuid.UUID `json:"pointers,omitempty"`
	IsVeteran    bool        `json:"isVeteran"`
	IsLeader     bool        `json:"isLeader"`
	HasSubmitted bool        `json:"hasSubmitted"`
}

// PublicState is the sanitized snapshot broadcast as GAME_STATE_UPDATE.
type PublicState struct {
	LobbyID             string                      `json:"lobbyId"`
	Phase               Phase                       `json:"phase"`
	Players             []PublicPlayerState         `json:"players"`
	DisconnectedPlayers []models.PublicPlayer       `json:"disconnectedPlayers"`
	CurrentRound        int                         `json:"currentRound"`
	CurrentTeam         []uuid.UUID                 `json:"currentTeam"`
	MagicTokenHolder    *uuid.UUID                  `json:"magicTokenHolder"`
	CurrentLeader       *uuid.UUID                  `json:"currentLeader"`
	UpcomingLeader      *uuid.UUID                  `json:"upcomingLeader"`
	AmuletHolder        *uuid.UUID                  `json:"amuletHolder"`
	AmuletUsedOn        *uuid.UUID                  `json:"amuletUsedOn"`
	QuestHistory        []models.QuestResult        `json:"questHistory"`
	AmuletHistory       []models.PublicAmuletResult `json:"amuletHistory"`
	Veterans            []uuid.UUID                 `json:"veterans"`
	Hunted              []models.HuntGuess          `json:"hunted"`
	SubmittedQuest      []uuid.UUID                 `json:"questSubmissions"`
	RoundRules          []RoundRule                 `json:"roundRules"`
	AllRoles            []models.Role               `json:"allRoles"`
	PhaseDeadline       *time.Time                  `json:"phaseDeadline,omitempty"`
	LastActivity        time.Time                   `json:"lastActivity"`
}

// PublicState returns the current sanitized snapshot.
func (s *Session) PublicState() *PublicState {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.publicStateUnsafe()
}

// publicStateUnsafe copies everything a client may see. Quest cards, pointers,
// amulet alignments and the information plan stay private. Assumes lock is held.
func (s *Session) publicStateUnsafe() *PublicState {
	reveal := s.Phase.IsTerminal()

	submitted := make([]uuid.UUID, 0, len(s.QuestSubmissions))
	for _, sub := range s.QuestSubmissions {
		submitted = append(submitted, sub.PlayerID)
	}

	players := make([]PublicPlayerState, 0, len(s.Players))
	for _, p := range s.Players {
		_, connected := s.connections[p.ID]
		ps := PublicPlayerState{
			ID:           p.ID,
			Name:         p.Name,
			Connected:    connected,
			HasPointed:   len(p.Pointers) > 0,
			IsVeteran:    containsID(s.Veterans, p.ID),
			IsLeader:     s.CurrentLeader != nil && *s.CurrentLeader == p.ID,
			HasSubmitted: containsID(submitted, p.ID),
		}
		if reveal {
			ps.Role = p.Role
			ps.Pointers = copyIDs(p.Pointers)
		}
		players = append(players, ps)
	}

	disconnected := make([]models.PublicPlayer, 0, len(s.DisconnectedPlayers))
	for _, p := range s.DisconnectedPlayers {
		disconnected = append(disconnected, models.PublicPlayer{ID: p.ID, Name: p.Name})
	}

	amulets := make([]models.PublicAmuletResult, 0, len(s.AmuletHistory))
	for _, r := range s.AmuletHistory {
		amulets = append(amulets, models.PublicAmuletResult{AmuletHolder: r.AmuletHolder, AmuletUsedOn: r.AmuletUsedOn})
	}

	quests := make([]models.QuestResult, 0, len(s.QuestHistory))
	for _, q := range s.QuestHistory {
		q.Team = copyIDs(q.Team)
		quests = append(quests, q)
	}

	state := &PublicState{
		LobbyID:             s.ID,
		Phase:               s.Phase,
		Players:             players,
		DisconnectedPlayers: disconnected,
		CurrentRound:        s.CurrentRound,
		CurrentTeam:         copyIDs(s.CurrentTeam),
		MagicTokenHolder:    copyIDPtr(s.MagicTokenHolder),
		CurrentLeader:       copyIDPtr(s.CurrentLeader),
		UpcomingLeader:      copyIDPtr(s.UpcomingLeader),
		AmuletHolder:        copyIDPtr(s.AmuletHolder),
		AmuletUsedOn:        copyIDPtr(s.AmuletUsedOn),
		QuestHistory:        quests,
		AmuletHistory:       amulets,
		Veterans:            copyIDs(s.Veterans),
		Hunted:              append([]models.HuntGuess{}, s.Hunted...),
		SubmittedQuest:      submitted,
		RoundRules:          append([]RoundRule{}, s.RoundRules...),
		AllRoles:            append([]models.Role{}, s.AllRoles...),
		LastActivity:        s.LastActivity,
	}
	if s.PhaseDeadline != nil {
		d := *s.PhaseDeadline
		state.PhaseDeadline = &d
	}
	return state
}

func copyIDs(ids []uuid.UUID) []uuid.UUID {
	return append([]uuid.UUID{}, ids...)
}

func copyIDPtr(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	return idPtr(*id)
}
