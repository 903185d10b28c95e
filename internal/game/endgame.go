// internal/game/endgame.go
package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/quest/internal/models"
)

// StartHunt lets the Blind Hunter opt into the hunt before the option times out.
func (s *Session) StartHunt(actor uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	p, err := s.beginAction(actor, PhaseHuntingOption)
	if err != nil {
		return err
	}
	if p.Role != models.RoleBlindHunter {
		return fmt.Errorf("%w: only the Blind Hunter can hunt", ErrNotYourTurn)
	}
	s.isHunting = true
	s.logAction(actor, "hunt_started", nil)
	if err := s.transition(); err != nil {
		return err
	}
	s.broadcastStateUnsafe()
	return nil
}

// UpdateHunted replaces the hunter's draft of up to two targets and guessed roles.
func (s *Session) UpdateHunted(actor uuid.UUID, guesses []models.HuntGuess) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if err := s.requireHunterUnsafe(actor); err != nil {
		return err
	}
	if len(guesses) > 2 {
		return ErrTooManyHunted
	}
	seen := make(map[uuid.UUID]struct{}, len(guesses))
	for _, g := range guesses {
		if g.PlayerID == actor {
			return ErrSelfTarget
		}
		if s.playerByIDUnsafe(g.PlayerID) == nil {
			return fmt.Errorf("%w: %s", ErrPlayerNotFound, g.PlayerID)
		}
		if _, dup := seen[g.PlayerID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicatePlayer, g.PlayerID)
		}
		seen[g.PlayerID] = struct{}{}
		if g.Role != "" && (!g.Role.IsGood() || !containsRole(s.AllRoles, g.Role)) {
			return fmt.Errorf("%w: %s", ErrInvalidHuntRole, g.Role)
		}
	}

	s.Hunted = append([]models.HuntGuess{}, guesses...)
	s.logAction(actor, "update_hunted", map[string]interface{}{"hunted": s.Hunted})
	s.broadcastStateUnsafe()
	return nil
}

// ConfirmHunted locks in the hunt: two targets, one guessed Cleric and one other good role.
func (s *Session) ConfirmHunted(actor uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if err := s.requireHunterUnsafe(actor); err != nil {
		return err
	}
	if len(s.Hunted) != 2 {
		return ErrHuntIncomplete
	}
	var cleric, other bool
	for _, g := range s.Hunted {
		switch g.Role {
		case "":
			return ErrHuntIncomplete
		case models.RoleCleric:
			cleric = true
		default:
			other = true
		}
	}
	if !cleric {
		return ErrClericNotGuessed
	}
	if !other {
		return ErrNonClericNotGuessed
	}

	s.logAction(actor, "confirm_hunted", map[string]interface{}{"hunted": s.Hunted})
	if err := s.transition(); err != nil {
		return err
	}
	s.broadcastStateUnsafe()
	return nil
}

func (s *Session) requireHunterUnsafe(actor uuid.UUID) error {
	p, err := s.beginAction(actor, PhaseTheHunt)
	if err != nil {
		return err
	}
	if p.Role != models.RoleBlindHunter {
		return fmt.Errorf("%w: only the Blind Hunter can hunt", ErrNotYourTurn)
	}
	return nil
}

// huntSuccessful reports whether every hunted player holds exactly the guessed role.
// Assumes lock is held.
func (s *Session) huntSuccessful() (bool, error) {
	if len(s.Hunted) != 2 {
		return false, fmt.Errorf("%w: hunt resolved with %d targets", ErrIllegalPhase, len(s.Hunted))
	}
	for _, g := range s.Hunted {
		p := s.playerByIDUnsafe(g.PlayerID)
		if p == nil || p.Role != g.Role {
			return false, nil
		}
	}
	return true, nil
}

// SubmitPointed records a good player's accusation of exactly two other players.
// The verdict is computed once every good player has pointed.
func (s *Session) SubmitPointed(actor, playerID uuid.UUID, pointed []uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	p, err := s.beginAction(actor, PhaseGoodsLastChance)
	if err != nil {
		return err
	}
	if playerID != actor {
		return fmt.Errorf("%w: cannot point for another player", ErrNotYourTurn)
	}
	if !p.Role.IsGood() {
		return fmt.Errorf("%w: only good players point", ErrNotYourTurn)
	}
	if len(pointed) != 2 || pointed[0] == pointed[1] {
		return ErrInvalidAccusation
	}
	for _, id := range pointed {
		if id == actor {
			return ErrSelfTarget
		}
		if s.playerByIDUnsafe(id) == nil {
			return fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
		}
	}

	p.Pointers = append([]uuid.UUID{}, pointed...)
	s.logAction(actor, "submit_pointed", nil)

	for _, other := range s.Players {
		if other.Role.IsGood() && len(other.Pointers) == 0 {
			s.broadcastStateUnsafe()
			return nil
		}
	}
	if err := s.transition(); err != nil {
		return err
	}
	s.broadcastStateUnsafe()
	return nil
}

// accusationVerdict applies the last chance table to the submitted pointers.
// Assumes lock is held.
func (s *Session) accusationVerdict() Phase {
	evilsNotPointedAt, pointsAtGood := AccusationTally(s.Players)
	var duke, archduke bool
	for _, p := range s.Players {
		switch p.Role {
		case models.RoleDuke:
			duke = true
		case models.RoleArchduke:
			archduke = true
		}
	}
	return VerdictFromPointing(evilsNotPointedAt, pointsAtGood, duke, archduke)
}

// AccusationTally counts the evil players nobody pointed at and the total number
// of pointers that landed on good players.
func AccusationTally(players []*models.Player) (evilsNotPointedAt, pointsAtGood int) {
	pointedAt := make(map[uuid.UUID]int)
	for _, p := range players {
		for _, id := range p.Pointers {
			pointedAt[id]++
		}
	}
	for _, p := range players {
		if p.Role.IsEvil() {
			if pointedAt[p.ID] == 0 {
				evilsNotPointedAt++
			}
		} else {
			pointsAtGood += pointedAt[p.ID]
		}
	}
	return evilsNotPointedAt, pointsAtGood
}

// VerdictFromPointing is the closed-form table of Goods' Last Chance.
func VerdictFromPointing(evilsNotPointedAt, pointsAtGood int, duke, archduke bool) Phase {
	switch {
	case evilsNotPointedAt > 1:
		return PhaseEvilVictory
	case evilsNotPointedAt == 1:
		switch {
		case !archduke:
			return PhaseEvilVictory
		case pointsAtGood < 2:
			return PhaseGoodVictory
		case pointsAtGood == 2 && duke:
			return PhaseGoodVictory
		default:
			return PhaseEvilVictory
		}
	default:
		switch {
		case pointsAtGood < 1:
			return PhaseGoodVictory
		case pointsAtGood == 1 && (duke || archduke):
			return PhaseGoodVictory
		case pointsAtGood == 2 && duke && archduke:
			return PhaseGoodVictory
		default:
			return PhaseEvilVictory
		}
	}
}
