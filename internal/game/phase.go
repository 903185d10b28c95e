// internal/game/phase.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/quest/internal/models"
	"github.com/sirupsen/logrus"
)

// Phase is the closed set of states a session moves through.
type Phase uint8

const (
	PhaseLobby Phase = iota
	PhaseTeamSelection
	PhaseQuestResolution
	PhaseLeaderSelection
	PhaseAmuletCheck
	PhaseTheDiscussion
	PhaseHuntingOption
	PhaseTheHunt
	PhaseGoodsLastChance
	PhaseGoodVictory
	PhaseEvilVictory
)

var phaseNames = [...]string{
	PhaseLobby:           "LOBBY",
	PhaseTeamSelection:   "TEAM_SELECTION",
	PhaseQuestResolution: "QUEST_RESOLUTION",
	PhaseLeaderSelection: "LEADER_SELECTION",
	PhaseAmuletCheck:     "AMULET_CHECK",
	PhaseTheDiscussion:   "THE_DISCUSSION",
	PhaseHuntingOption:   "HUNTING_OPTION",
	PhaseTheHunt:         "THE_HUNT",
	PhaseGoodsLastChance: "GOODS_LAST_CHANCE",
	PhaseGoodVictory:     "GOOD_VICTORY",
	PhaseEvilVictory:     "EVIL_VICTORY",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// MarshalText renders the phase by name on the wire.
func (p Phase) MarshalText() ([]byte, error) {
	if int(p) >= len(phaseNames) {
		return nil, fmt.Errorf("%w: %d", ErrIllegalPhase, uint8(p))
	}
	return []byte(phaseNames[p]), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrIllegalPhase, text)
}

// IsTerminal reports whether the game has been decided.
func (p Phase) IsTerminal() bool {
	return p == PhaseGoodVictory || p == PhaseEvilVictory
}

// advancePhase computes the next phase from the session state. It never mutates
// anything but s.Phase. Assumes lock is held.
func (s *Session) advancePhase() error {
	switch s.Phase {
	case PhaseLobby:
		s.Phase = PhaseTeamSelection

	case PhaseTeamSelection:
		s.Phase = PhaseQuestResolution

	case PhaseQuestResolution:
		passed, failed := s.questTally()
		switch {
		case passed >= 3:
			s.Phase = PhaseGoodVictory
		case failed >= 3:
			s.Phase = PhaseTheDiscussion
		default:
			s.Phase = PhaseLeaderSelection
		}

	case PhaseLeaderSelection:
		if s.AmuletHolder != nil {
			s.Phase = PhaseAmuletCheck
		} else {
			s.Phase = PhaseTeamSelection
		}

	case PhaseAmuletCheck:
		s.Phase = PhaseTeamSelection

	case PhaseTheDiscussion:
		s.Phase = PhaseHuntingOption

	case PhaseHuntingOption:
		if s.isHunting {
			s.Phase = PhaseTheHunt
		} else {
			s.Phase = PhaseGoodsLastChance
		}

	case PhaseTheHunt:
		ok, err := s.huntSuccessful()
		if err != nil {
			return err
		}
		if ok {
			s.Phase = PhaseEvilVictory
		} else {
			s.Phase = PhaseGoodVictory
		}

	case PhaseGoodsLastChance:
		s.Phase = s.accusationVerdict()

	case PhaseGoodVictory, PhaseEvilVictory:
		return fmt.Errorf("%w: %s is terminal", ErrIllegalPhase, s.Phase)

	default:
		return fmt.Errorf("%w: unknown phase %s", ErrIllegalPhase, s.Phase)
	}
	return nil
}

// transition advances the phase and runs the entry hooks of the new phase.
// Assumes lock is held.
func (s *Session) transition() error {
	from := s.Phase
	if err := s.advancePhase(); err != nil {
		return err
	}
	s.Logger.WithFields(logrus.Fields{
		"from": from.String(),
		"to":   s.Phase.String(),
	}).Info("Phase transition")

	switch s.Phase {
	case PhaseTheDiscussion:
		s.schedulePhaseTimer(s.Timers.Discussion, PhaseTheDiscussion)
	case PhaseHuntingOption:
		s.schedulePhaseTimer(s.Timers.HuntingOption, PhaseHuntingOption)
	default:
		s.stopPhaseTimer()
	}
	s.logAction(nilPlayer, "phase_"+s.Phase.String(), map[string]interface{}{"from": from.String()})
	return nil
}

// questTally counts passed and failed quests so far. Assumes lock is held.
func (s *Session) questTally() (passed, failed int) {
	for _, q := range s.QuestHistory {
		if q.Result == models.QuestPassed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}
