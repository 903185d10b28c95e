// internal/game/formation.go
package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/quest/internal/models"
	"github.com/sirupsen/logrus"
)

// UpdateTeam replaces the leader's draft team and magic token holder.
func (s *Session) UpdateTeam(actor uuid.UUID, selected []uuid.UUID, tokenHolder *uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if _, err := s.beginAction(actor, PhaseTeamSelection); err != nil {
		return err
	}
	if err := s.requireLeader(actor); err != nil {
		return err
	}
	rule, err := s.currentRule()
	if err != nil {
		return err
	}
	if len(selected) > rule.RequiredPlayers {
		return fmt.Errorf("%w: at most %d players", ErrInvalidTeamSize, rule.RequiredPlayers)
	}
	seen := make(map[uuid.UUID]struct{}, len(selected))
	for _, id := range selected {
		if s.playerByIDUnsafe(id) == nil {
			return fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicatePlayer, id)
		}
		seen[id] = struct{}{}
	}
	if tokenHolder != nil {
		if _, ok := seen[*tokenHolder]; !ok {
			return ErrTokenNotOnTeam
		}
	}

	s.CurrentTeam = append([]uuid.UUID{}, selected...)
	if tokenHolder != nil {
		s.MagicTokenHolder = idPtr(*tokenHolder)
	} else {
		s.MagicTokenHolder = nil
	}
	s.logAction(actor, "update_team", map[string]interface{}{"team": s.CurrentTeam, "magicTokenHolder": s.MagicTokenHolder})
	s.broadcastStateUnsafe()
	return nil
}

// ConfirmTeam sends the drafted team on its quest. It succeeds iff the team has
// exactly the required size and someone holds the magic token.
func (s *Session) ConfirmTeam(actor uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if _, err := s.beginAction(actor, PhaseTeamSelection); err != nil {
		return err
	}
	if err := s.requireLeader(actor); err != nil {
		return err
	}
	rule, err := s.currentRule()
	if err != nil {
		return err
	}
	if len(s.CurrentTeam) != rule.RequiredPlayers {
		return fmt.Errorf("%w: need %d players, have %d", ErrInvalidTeamSize, rule.RequiredPlayers, len(s.CurrentTeam))
	}
	if s.MagicTokenHolder == nil {
		return ErrMissingToken
	}

	s.logAction(actor, "confirm_team", map[string]interface{}{"round": s.CurrentRound})
	if err := s.transition(); err != nil {
		return err
	}
	s.broadcastStateUnsafe()
	return nil
}

// UpdateLeader sets the proposed next leader.
func (s *Session) UpdateLeader(actor, candidate uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if _, err := s.beginAction(actor, PhaseLeaderSelection); err != nil {
		return err
	}
	if err := s.requireLeader(actor); err != nil {
		return err
	}
	if s.playerByIDUnsafe(candidate) == nil {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, candidate)
	}
	s.UpcomingLeader = idPtr(candidate)
	s.logAction(actor, "update_leader", map[string]interface{}{"upcomingLeader": candidate})
	s.broadcastStateUnsafe()
	return nil
}

// UpdateAmuletHolder sets the proposed amulet holder.
func (s *Session) UpdateAmuletHolder(actor, candidate uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if _, err := s.beginAction(actor, PhaseLeaderSelection); err != nil {
		return err
	}
	if err := s.requireLeader(actor); err != nil {
		return err
	}
	if s.playerByIDUnsafe(candidate) == nil {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, candidate)
	}
	s.AmuletHolder = idPtr(candidate)
	s.logAction(actor, "update_amulet_holder", map[string]interface{}{"amuletHolder": candidate})
	s.broadcastStateUnsafe()
	return nil
}

// UpdateAmuletUsage sets the player the amulet holder intends to check.
func (s *Session) UpdateAmuletUsage(actor, target uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if _, err := s.beginAction(actor, PhaseAmuletCheck); err != nil {
		return err
	}
	if s.AmuletHolder == nil || *s.AmuletHolder != actor {
		return fmt.Errorf("%w: only the amulet holder can do this", ErrNotYourTurn)
	}
	if s.playerByIDUnsafe(target) == nil {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, target)
	}
	s.AmuletUsedOn = idPtr(target)
	s.logAction(actor, "update_amulet_usage", map[string]interface{}{"amuletUsedOn": target})
	s.broadcastStateUnsafe()
	return nil
}

// ConfirmLeader hands leadership to the upcoming leader and, on amulet rounds,
// the amulet to the chosen holder.
func (s *Session) ConfirmLeader(actor uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if _, err := s.beginAction(actor, PhaseLeaderSelection); err != nil {
		return err
	}
	if err := s.requireLeader(actor); err != nil {
		return err
	}
	rule, err := s.currentRule()
	if err != nil {
		return err
	}
	if s.UpcomingLeader == nil {
		return ErrMissingLeader
	}
	if containsID(s.Veterans, *s.UpcomingLeader) && !s.allVeteransUnsafe() {
		return ErrVeteranIneligible
	}

	holder := s.AmuletHolder
	if !rule.Amulet {
		holder = nil
	} else {
		if holder == nil {
			return ErrMissingAmuletHolder
		}
		for _, r := range s.AmuletHistory {
			if r.AmuletHolder == *holder {
				return ErrAmuletAlreadyUsed
			}
		}
		if sameID(holder, s.UpcomingLeader) || sameID(holder, s.CurrentLeader) {
			return ErrSamePersonConflict
		}
	}

	previous := *s.CurrentLeader
	s.CurrentLeader = s.UpcomingLeader
	s.UpcomingLeader = nil
	s.AmuletHolder = holder
	s.AmuletUsedOn = nil
	s.Logger.WithFields(logrus.Fields{
		"previous": previous,
		"leader":   *s.CurrentLeader,
	}).Info("Leader confirmed")
	s.logAction(actor, "confirm_leader", map[string]interface{}{"leader": *s.CurrentLeader, "amuletHolder": s.AmuletHolder})
	if err := s.transition(); err != nil {
		return err
	}
	s.broadcastStateUnsafe()
	return nil
}

// ConfirmAmuletUsage reveals the apparent alignment of the target to the holder.
func (s *Session) ConfirmAmuletUsage(actor uuid.UUID) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if _, err := s.beginAction(actor, PhaseAmuletCheck); err != nil {
		return err
	}
	if s.AmuletHolder == nil {
		return ErrMissingAmuletHolder
	}
	if *s.AmuletHolder != actor {
		return fmt.Errorf("%w: only the amulet holder can do this", ErrNotYourTurn)
	}
	if s.AmuletUsedOn == nil {
		return ErrMissingAmuletTarget
	}
	holder, target := *s.AmuletHolder, *s.AmuletUsedOn
	if holder == target {
		return ErrSelfTarget
	}
	for _, r := range s.AmuletHistory {
		if r.AmuletHolder == holder {
			return ErrAmuletAlreadyUsed
		}
		if r.AmuletHolder == target {
			return ErrAmuletReused
		}
		if r.AmuletUsedOn == target {
			return ErrAmuletFaded
		}
	}
	checked := s.playerByIDUnsafe(target)
	if checked == nil {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, target)
	}
	if checked.Role == "" {
		return fmt.Errorf("%w: player %s has no role", ErrIllegalPhase, target)
	}

	result := models.AmuletResult{
		AmuletHolder: holder,
		AmuletUsedOn: target,
		IsGood:       !checked.Role.ShowsAsEvil(),
	}
	s.AmuletHistory = append(s.AmuletHistory, result)
	s.AmuletHolder = nil
	s.AmuletUsedOn = nil
	s.logAction(actor, "confirm_amulet_usage", map[string]interface{}{"amuletUsedOn": target})
	if err := s.transition(); err != nil {
		return err
	}
	s.broadcastStateUnsafe()
	s.sendToUnsafe(holder, GameEvent{Event: EventAmuletInfo, Message: result})
	return nil
}

// allVeteransUnsafe reports whether no player is left who has not led a quest.
func (s *Session) allVeteransUnsafe() bool {
	for _, p := range s.Players {
		if !containsID(s.Veterans, p.ID) {
			return false
		}
	}
	return true
}
