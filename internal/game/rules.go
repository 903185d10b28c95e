// internal/game/rules.go
package game

import "fmt"

const (
	MinPlayers = 4
	MaxPlayers = 10
)

// RoundRule describes one quest of the game.
type RoundRule struct {
	Round           int  `json:"round"`
	RequiredPlayers int  `json:"requiredPlayers"`
	FailsRequired   int  `json:"failsRequired"`
	Amulet          bool `json:"amulet"`
}

// RoundRulesFor returns the five quests for the given number of players.
func RoundRulesFor(playerCount int) ([]RoundRule, error) {
	switch {
	case playerCount >= MinPlayers && playerCount <= 8:
		return []RoundRule{
			{Round: 1, RequiredPlayers: 3, FailsRequired: 1},
			{Round: 2, RequiredPlayers: 2, FailsRequired: 1},
			{Round: 3, RequiredPlayers: 3, FailsRequired: 1},
			{Round: 4, RequiredPlayers: 4, FailsRequired: 2, Amulet: playerCount == 7},
			{Round: 5, RequiredPlayers: 3, FailsRequired: 1, Amulet: playerCount >= 6},
		}, nil
	case playerCount == 9 || playerCount == MaxPlayers:
		return []RoundRule{
			{Round: 1, RequiredPlayers: 4, FailsRequired: 1},
			{Round: 2, RequiredPlayers: 3, FailsRequired: 1},
			{Round: 3, RequiredPlayers: 4, FailsRequired: 2, Amulet: true},
			{Round: 4, RequiredPlayers: 5, FailsRequired: 2, Amulet: true},
			{Round: 5, RequiredPlayers: 4, FailsRequired: 1, Amulet: true},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedPlayerCount, playerCount)
	}
}

// currentRule returns the rule of the round in progress. Assumes lock is held.
func (s *Session) currentRule() (RoundRule, error) {
	if s.CurrentRound < 1 || s.CurrentRound > len(s.RoundRules) {
		return RoundRule{}, fmt.Errorf("%w: %d", ErrInvalidRound, s.CurrentRound)
	}
	return s.RoundRules[s.CurrentRound-1], nil
}
