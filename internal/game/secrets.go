// internal/game/secrets.go
package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/quest/internal/models"
	"github.com/sirupsen/logrus"
)

// StartGame assigns roles, picks the first leader and opens the first quest.
func (s *Session) StartGame(actor uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.closed {
		return ErrLobbyNotFound
	}
	if s.playerByIDUnsafe(actor) == nil {
		return ErrPlayerNotFound
	}
	if s.Phase != PhaseLobby {
		return ErrGameAlreadyStarted
	}
	n := len(s.Players)
	if n < MinPlayers || n > MaxPlayers {
		return fmt.Errorf("%w: have %d", ErrInvalidPlayerCount, n)
	}
	s.LastActivity = time.Now()

	rules, err := RoundRulesFor(n)
	if err != nil {
		return err
	}
	set, err := RolesForPlayerCount(n, s.Rand)
	if err != nil {
		return err
	}
	roles := append([]models.Role(nil), set.Selected...)
	s.Rand.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })
	leader := s.Players[s.Rand.Intn(n)].ID

	for i, p := range s.Players {
		p.Role = roles[i]
		p.Pointers = nil
	}
	s.RoundRules = rules
	s.AllRoles = set.All
	s.UnusedGoodRole = set.UnusedGoodRole
	s.CurrentRound = 1
	s.CurrentLeader = &leader
	s.buildInformationPlanUnsafe()

	s.Logger.WithFields(logrus.Fields{"players": n, "leader": leader}).Info("Game started")
	s.logAction(actor, "start_game", map[string]interface{}{"players": n})
	if err := s.transition(); err != nil {
		return err
	}
	s.broadcastStateUnsafe()
	for _, p := range s.Players {
		s.replaySecretsUnsafe(p.ID)
	}
	return nil
}

// buildInformationPlanUnsafe computes every private message a player is entitled
// to at the start of the game. Assumes lock is held and roles are assigned.
func (s *Session) buildInformationPlanUnsafe() {
	s.secrets = make(map[uuid.UUID][]GameEvent, len(s.Players))

	smallGame := len(s.Players) <= 5
	s.KnownEvils = s.KnownEvils[:0]
	for _, p := range s.Players {
		if p.Role.KnowsEvils() || (smallGame && p.Role.IsEvil()) {
			s.KnownEvils = append(s.KnownEvils, p.ID)
		}
	}

	leader := s.playerByIDUnsafe(*s.CurrentLeader)
	s.ClericInfo = &models.ClericInfo{
		FirstLeader: leader.ID,
		IsGood:      !leader.Role.ShowsAsEvil(),
	}

	for _, p := range s.Players {
		plan := []GameEvent{roleAssignedEvent(p)}
		switch {
		case p.Role == models.RoleCleric:
			plan = append(plan, GameEvent{Event: EventClericInfo, Message: *s.ClericInfo})
		case p.Role.KnowsEvils():
			plan = append(plan, GameEvent{Event: EventEvilInfo, Message: append([]uuid.UUID(nil), s.KnownEvils...)})
		case p.Role == models.RoleBlindHunter && smallGame:
			plan = append(plan, GameEvent{Event: EventHunterInfo, Message: s.UnusedGoodRole})
		}
		s.secrets[p.ID] = plan
	}
}

// replaySecretsUnsafe re-sends the stored plan plus any amulet results the
// player obtained as holder. Assumes lock is held.
func (s *Session) replaySecretsUnsafe(playerID uuid.UUID) {
	for _, ev := range s.secrets[playerID] {
		s.sendToUnsafe(playerID, ev)
	}
	for _, r := range s.AmuletHistory {
		if r.AmuletHolder == playerID {
			s.sendToUnsafe(playerID, GameEvent{Event: EventAmuletInfo, Message: r})
		}
	}
}
