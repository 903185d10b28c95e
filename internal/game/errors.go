// internal/game/errors.go
package game

import "errors"

// ErrorKind classifies a rejected action.
type ErrorKind int

const (
	// KindValidation covers bad fields, wrong phase, rule violations. The session is untouched.
	KindValidation ErrorKind = iota
	// KindNotFound covers unknown lobbies and players. The session is untouched.
	KindNotFound
	// KindProgrammer is a broken invariant. It aborts the current action for this lobby only.
	KindProgrammer
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindProgrammer:
		return "programmer"
	default:
		return "unknown"
	}
}

// Error is a sentinel game error. Callers wrap it with fmt.Errorf("%w: ...") for detail
// and match it with errors.Is.
type Error struct {
	Kind ErrorKind
	Code string
	msg  string
}

func (e *Error) Error() string { return e.msg }

func newError(kind ErrorKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, msg: msg}
}

var (
	ErrLobbyNotFound  = newError(KindNotFound, "LobbyNotFound", "lobby not found")
	ErrPlayerNotFound = newError(KindNotFound, "PlayerNotFound", "player not found")

	ErrMissingField        = newError(KindValidation, "MissingField", "missing required field")
	ErrWrongPhase          = newError(KindValidation, "WrongPhase", "action not allowed in the current phase")
	ErrNotYourTurn         = newError(KindValidation, "NotYourTurn", "you are not allowed to perform this action")
	ErrDuplicateName       = newError(KindValidation, "DuplicateName", "a player with this name already exists in the lobby")
	ErrLobbyFull           = newError(KindValidation, "LobbyFull", "lobby is full")
	ErrGameAlreadyStarted  = newError(KindValidation, "GameAlreadyStarted", "game already started")
	ErrAlreadyJoined       = newError(KindValidation, "AlreadyJoined", "this connection already joined a lobby")
	ErrMalformedMessage    = newError(KindValidation, "MalformedMessage", "malformed message")
	ErrUnknownEvent        = newError(KindValidation, "UnknownEvent", "unknown event")
	ErrInvalidPlayerCount  = newError(KindValidation, "InvalidPlayerCount", "player count must be between 4 and 10 players")
	ErrInvalidTeamSize     = newError(KindValidation, "InvalidTeamSize", "invalid team size")
	ErrMissingToken        = newError(KindValidation, "MissingToken", "must magic token someone on the team")
	ErrTokenNotOnTeam      = newError(KindValidation, "TokenNotOnTeam", "magic token holder must be on the team")
	ErrDuplicatePlayer     = newError(KindValidation, "DuplicatePlayer", "the same player was selected twice")
	ErrNotOnTeam           = newError(KindValidation, "NotOnTeam", "you are not on the quest team")
	ErrDuplicateSubmission = newError(KindValidation, "DuplicateSubmission", "card already submitted")
	ErrCardNotAllowed      = newError(KindValidation, "CardNotAllowed", "your role cannot play this quest card")
	ErrMissingLeader       = newError(KindValidation, "MissingLeader", "no leader is selected")
	ErrMissingAmuletHolder = newError(KindValidation, "MissingAmuletHolder", "no amulet holder is selected")
	ErrMissingAmuletTarget = newError(KindValidation, "MissingAmuletTarget", "no amulet usage selected")
	ErrVeteranIneligible   = newError(KindValidation, "VeteranIneligible", "player is a veteran")
	ErrAmuletAlreadyUsed   = newError(KindValidation, "AmuletAlreadyUsed", "player has already held an amulet")
	ErrSamePersonConflict  = newError(KindValidation, "SamePersonConflict", "leader and amulet holder cannot be the same player")
	ErrSelfTarget          = newError(KindValidation, "SelfTarget", "cannot target yourself")
	ErrAmuletReused        = newError(KindValidation, "AmuletReused", "player is holding an amulet")
	ErrAmuletFaded         = newError(KindValidation, "AmuletFaded", "player is holding a faded amulet")
	ErrTooManyHunted       = newError(KindValidation, "TooManyHunted", "too many players selected for the hunt")
	ErrInvalidHuntRole     = newError(KindValidation, "InvalidHuntRole", "role cannot be hunted")
	ErrHuntIncomplete      = newError(KindValidation, "HuntIncomplete", "must select exactly two players and a role for each")
	ErrClericNotGuessed    = newError(KindValidation, "ClericNotGuessed", "cleric not selected")
	ErrNonClericNotGuessed = newError(KindValidation, "NonClericNotGuessed", "no non-cleric role selected")
	ErrInvalidAccusation   = newError(KindValidation, "InvalidAccusation", "must point at exactly two other players")

	ErrIllegalPhase           = newError(KindProgrammer, "IllegalPhase", "illegal phase")
	ErrUnsupportedPlayerCount = newError(KindProgrammer, "UnsupportedPlayerCount", "unsupported number of players")
	ErrInvalidRound           = newError(KindProgrammer, "InvalidRound", "invalid quest round")
)

// KindOf returns the kind of a game error. Errors that are not game errors are
// treated as programmer errors.
func KindOf(err error) ErrorKind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindProgrammer
}

// CodeOf returns the stable error code sent to clients alongside the message.
func CodeOf(err error) string {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Code
	}
	return "Internal"
}
