// internal/models/quest.go
package models

import "github.com/google/uuid"

// QuestOutcome is the result of a single quest round.
type QuestOutcome string

const (
	QuestPassed QuestOutcome = "Passed"
	QuestFailed QuestOutcome = "Failed"
)

// QuestResult is appended to the quest history once every team member has submitted.
type QuestResult struct {
	Round  int          `json:"round"`
	Team   []uuid.UUID  `json:"team"`
	Fails  int          `json:"fails"`
	Result QuestOutcome `json:"result"`
}

// QuestSubmission is one team member's private pass/fail card.
type QuestSubmission struct {
	PlayerID        uuid.UUID `json:"playerId"`
	IsQuestCardPass bool      `json:"isQuestCardPass"`
}

// AmuletResult records one use of the amulet. An entry marks both ids as spent.
type AmuletResult struct {
	AmuletHolder uuid.UUID `json:"amuletHolder"`
	AmuletUsedOn uuid.UUID `json:"amuletUsedOn"`

	// IsGood is the apparent alignment shown to the holder, not the true one.
	IsGood bool `json:"isGood"`
}

// PublicAmuletResult hides the revealed alignment from everyone but the holder.
type PublicAmuletResult struct {
	AmuletHolder uuid.UUID `json:"amuletHolder"`
	AmuletUsedOn uuid.UUID `json:"amuletUsedOn"`
}

// HuntGuess is one of the Blind Hunter's two picks. Role may be empty while the
// hunter is still composing the guess.
type HuntGuess struct {
	PlayerID uuid.UUID `json:"playerId"`
	Role     Role      `json:"role"`
}

// ClericInfo is the cleric's private view of the first leader's apparent alignment.
type ClericInfo struct {
	FirstLeader uuid.UUID `json:"firstLeader"`
	IsGood      bool      `json:"isGood"`
}
