// internal/game/quest.go
package game

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/quest/internal/models"
	"github.com/sirupsen/logrus"
)

// SubmitQuest records one team member's quest card. The quest resolves once every
// member has played; until then only the submitter learns the card was received.
func (s *Session) SubmitQuest(actor, playerID uuid.UUID, pass bool) error {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	p, err := s.beginAction(actor, PhaseQuestResolution)
	if err != nil {
		return err
	}
	if playerID != actor {
		return fmt.Errorf("%w: cannot play a card for another player", ErrNotYourTurn)
	}
	if !containsID(s.CurrentTeam, actor) {
		return ErrNotOnTeam
	}
	for _, sub := range s.QuestSubmissions {
		if sub.PlayerID == actor {
			return ErrDuplicateSubmission
		}
	}
	tokened := s.MagicTokenHolder != nil && *s.MagicTokenHolder == actor
	if !CardAllowed(p.Role, tokened, pass) {
		return ErrCardNotAllowed
	}

	s.QuestSubmissions = append(s.QuestSubmissions, models.QuestSubmission{
		PlayerID:        actor,
		IsQuestCardPass: pass,
	})
	s.logAction(actor, "submit_quest", nil)

	if len(s.QuestSubmissions) < len(s.CurrentTeam) {
		s.sendToUnsafe(actor, cardReceivedEvent(actor))
		s.broadcastStateUnsafe()
		return nil
	}
	if err := s.resolveQuestUnsafe(); err != nil {
		return err
	}
	s.broadcastStateUnsafe()
	return nil
}

// CardAllowed reports whether a player with role may play the given card.
// Good players play pass, except a Youth under the magic token who must fail.
// Token-bound evils must pass while holding the token.
func CardAllowed(role models.Role, tokened, pass bool) bool {
	switch {
	case role == models.RoleYouth && tokened:
		return !pass
	case role.IsGood():
		return pass
	case role.BoundByToken() && tokened:
		return pass
	default:
		return true
	}
}

// resolveQuestUnsafe scores the completed quest and moves the game on.
// Assumes lock is held.
func (s *Session) resolveQuestUnsafe() error {
	rule, err := s.currentRule()
	if err != nil {
		return err
	}
	if s.CurrentLeader == nil {
		return fmt.Errorf("%w: quest without a leader", ErrIllegalPhase)
	}

	fails := 0
	for _, sub := range s.QuestSubmissions {
		if !sub.IsQuestCardPass {
			fails++
		}
	}
	outcome := models.QuestPassed
	if fails >= rule.FailsRequired {
		outcome = models.QuestFailed
	}

	s.QuestHistory = append(s.QuestHistory, models.QuestResult{
		Round:  s.CurrentRound,
		Team:   s.CurrentTeam,
		Fails:  fails,
		Result: outcome,
	})
	if !containsID(s.Veterans, *s.CurrentLeader) {
		s.Veterans = append(s.Veterans, *s.CurrentLeader)
	}
	s.CurrentTeam = nil
	s.MagicTokenHolder = nil
	s.QuestSubmissions = nil

	s.Logger.WithFields(logrus.Fields{
		"round":  rule.Round,
		"fails":  fails,
		"result": outcome,
	}).Info("Quest resolved")
	s.logAction(nilPlayer, "quest_resolved", map[string]interface{}{
		"round":  rule.Round,
		"fails":  fails,
		"result": outcome,
	})

	if err := s.transition(); err != nil {
		return err
	}
	if s.Phase != PhaseTheDiscussion && s.Phase != PhaseGoodVictory {
		s.CurrentRound++
	}
	return nil
}
