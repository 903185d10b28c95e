// internal/game/session.go
package game

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/quest/internal/cache"
	"github.com/jason-s-yu/quest/internal/models"
	"github.com/sirupsen/logrus"
)

var nilPlayer = uuid.Nil

// PhaseTimers holds the durations of the two timed phases.
type PhaseTimers struct {
	Discussion    time.Duration
	HuntingOption time.Duration
}

// DefaultPhaseTimers match the tabletop pacing.
var DefaultPhaseTimers = PhaseTimers{
	Discussion:    300 * time.Second,
	HuntingOption: 10 * time.Second,
}

// ActionJournal receives one record per accepted action and phase change.
// *cache.Journal is the production implementation.
type ActionJournal interface {
	Enqueue(record cache.LobbyActionRecord) bool
}

// Session is the authoritative state of one lobby, from the first join to the verdict.
type Session struct {
	ID string

	Phase               Phase
	Players             []*models.Player
	DisconnectedPlayers []*models.Player

	CurrentRound     int
	CurrentTeam      []uuid.UUID
	MagicTokenHolder *uuid.UUID
	CurrentLeader    *uuid.UUID
	UpcomingLeader   *uuid.UUID
	AmuletHolder     *uuid.UUID
	AmuletUsedOn     *uuid.UUID
	QuestHistory     []models.QuestResult
	AmuletHistory    []models.AmuletResult
	Veterans         []uuid.UUID
	Hunted           []models.HuntGuess
	QuestSubmissions []models.QuestSubmission
	KnownEvils       []uuid.UUID
	ClericInfo       *models.ClericInfo
	UnusedGoodRole   models.Role
	RoundRules       []RoundRule
	AllRoles         []models.Role
	PhaseDeadline    *time.Time
	LastActivity     time.Time

	// Timers, Logger, Journal and Rand may be replaced before the first join.
	Timers  PhaseTimers
	Logger  logrus.FieldLogger
	Journal ActionJournal
	Rand    *rand.Rand

	// OnEmpty is called with the lock held when the last player leaves a lobby
	// that has not started. The store uses it to drop the session.
	OnEmpty func(s *Session)

	isHunting bool
	closed    bool

	// secrets is the information plan computed at start, replayed on reconnect.
	secrets     map[uuid.UUID][]GameEvent
	connections map[uuid.UUID]*Connection
	phaseTimer  *time.Timer
	actionIndex int

	Mu sync.Mutex
}

// NewSession creates an empty lobby in the LOBBY phase.
func NewSession(id string) *Session {
	return &Session{
		ID:           id,
		Phase:        PhaseLobby,
		LastActivity: time.Now(),
		Timers:       DefaultPhaseTimers,
		Logger:       logrus.StandardLogger().WithField("lobby", id),
		Rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
		secrets:      make(map[uuid.UUID][]GameEvent),
		connections:  make(map[uuid.UUID]*Connection),
	}
}

// Closed reports whether the session was expired or emptied.
func (s *Session) Closed() bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.closed
}

// Touch records activity for the idle sweep.
func (s *Session) Touch() {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.LastActivity = time.Now()
}

// Summary is a short public description used by lobby listings.
type Summary struct {
	LobbyID      string    `json:"lobbyId"`
	Phase        Phase     `json:"phase"`
	PlayerCount  int       `json:"playerCount"`
	LastActivity time.Time `json:"lastActivity"`
}

func (s *Session) Summary() Summary {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	return Summary{
		LobbyID:      s.ID,
		Phase:        s.Phase,
		PlayerCount:  len(s.Players),
		LastActivity: s.LastActivity,
	}
}

// Join attaches conn to the lobby under name. In the LOBBY phase a new player is
// created; afterwards the name must match an existing player, who is reconnected
// and receives its secrets again.
func (s *Session) Join(name string, conn *Connection) (uuid.UUID, error) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.closed {
		return uuid.Nil, ErrLobbyNotFound
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, fmt.Errorf("%w: playerName", ErrMissingField)
	}
	s.LastActivity = time.Now()

	if s.Phase == PhaseLobby {
		if s.playerByNameUnsafe(name) != nil {
			return uuid.Nil, ErrDuplicateName
		}
		if len(s.Players) >= MaxPlayers {
			return uuid.Nil, ErrLobbyFull
		}
		p := &models.Player{ID: uuid.New(), Name: name}
		s.Players = append(s.Players, p)
		s.attachUnsafe(p.ID, conn)
		s.Logger.WithFields(logrus.Fields{"player": p.ID, "name": name}).Info("Player joined")
		s.logAction(p.ID, "join", map[string]interface{}{"name": name})
		s.broadcastStateUnsafe()
		return p.ID, nil
	}

	p := s.playerByNameUnsafe(name)
	if p == nil {
		return uuid.Nil, ErrGameAlreadyStarted
	}
	s.DisconnectedPlayers = removePlayer(s.DisconnectedPlayers, p.ID)
	s.attachUnsafe(p.ID, conn)
	s.replaySecretsUnsafe(p.ID)
	s.Logger.WithFields(logrus.Fields{"player": p.ID, "name": name}).Info("Player reconnected")
	s.logAction(p.ID, "reconnect", nil)
	s.broadcastStateUnsafe()
	return p.ID, nil
}

// attachUnsafe binds conn to playerID, closing any previous connection of that player.
// Assumes lock is held.
func (s *Session) attachUnsafe(playerID uuid.UUID, conn *Connection) {
	if conn == nil {
		return
	}
	if prev, ok := s.connections[playerID]; ok && prev != conn {
		prev.Close()
	}
	s.connections[playerID] = conn
	conn.Write(joinedEvent(playerID, s.ID))
}

// HandleDisconnect detaches conn. A stale connection, one already replaced by a
// reconnect, is ignored. Before start the player is removed; afterwards the
// player is kept and listed as disconnected.
func (s *Session) HandleDisconnect(playerID uuid.UUID, conn *Connection) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.closed {
		return
	}
	if cur, ok := s.connections[playerID]; !ok || cur != conn {
		return
	}
	delete(s.connections, playerID)

	p := s.playerByIDUnsafe(playerID)
	if p == nil {
		return
	}

	if s.Phase == PhaseLobby {
		s.Players = removePlayer(s.Players, playerID)
		s.Logger.WithField("player", playerID).Info("Player left lobby")
		s.logAction(playerID, "leave", nil)
		if len(s.Players) == 0 {
			s.closeUnsafe()
			if s.OnEmpty != nil {
				s.OnEmpty(s)
			}
			return
		}
		s.broadcastStateUnsafe()
		return
	}

	if s.playerIn(s.DisconnectedPlayers, playerID) == nil {
		s.DisconnectedPlayers = append(s.DisconnectedPlayers, p)
	}
	s.Logger.WithField("player", playerID).Info("Player disconnected mid-game")
	s.logAction(playerID, "disconnect", nil)
	s.broadcastStateUnsafe()
}

// ExpireIfIdle closes the session when it has been inactive since before cutoff.
func (s *Session) ExpireIfIdle(cutoff time.Time) bool {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	if s.closed {
		return true
	}
	if s.LastActivity.After(cutoff) {
		return false
	}
	s.Logger.WithField("lastActivity", s.LastActivity).Info("Lobby expired")
	s.closeUnsafe()
	return true
}

// Close stops timers and drops every connection.
func (s *Session) Close() {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.closeUnsafe()
}

func (s *Session) closeUnsafe() {
	if s.closed {
		return
	}
	s.closed = true
	s.stopPhaseTimer()
	for id, c := range s.connections {
		c.Close()
		delete(s.connections, id)
	}
}

// beginAction runs the common checks of every in-game action. Assumes lock is held.
func (s *Session) beginAction(actor uuid.UUID, phase Phase) (*models.Player, error) {
	if s.closed {
		return nil, ErrLobbyNotFound
	}
	p := s.playerByIDUnsafe(actor)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if s.Phase != phase {
		return nil, fmt.Errorf("%w: expected %s, in %s", ErrWrongPhase, phase, s.Phase)
	}
	s.LastActivity = time.Now()
	return p, nil
}

// requireLeader checks that actor holds the leader seat. Assumes lock is held.
func (s *Session) requireLeader(actor uuid.UUID) error {
	if s.CurrentLeader == nil || *s.CurrentLeader != actor {
		return fmt.Errorf("%w: only the leader can do this", ErrNotYourTurn)
	}
	return nil
}

// broadcastStateUnsafe sends the public projection to every connection.
// Assumes lock is held.
func (s *Session) broadcastStateUnsafe() {
	state := s.publicStateUnsafe()
	for _, c := range s.connections {
		c.Write(GameEvent{Event: EventGameStateUpdate, State: state})
	}
}

// sendToUnsafe writes ev to one player if connected. Assumes lock is held.
func (s *Session) sendToUnsafe(playerID uuid.UUID, ev GameEvent) {
	if c, ok := s.connections[playerID]; ok {
		c.Write(ev)
	}
}

// schedulePhaseTimer arms the timer that advances the expected phase. The callback
// re-checks the phase, so a timer that loses a race with an action does nothing.
// Assumes lock is held.
func (s *Session) schedulePhaseTimer(d time.Duration, expected Phase) {
	s.stopPhaseTimer()
	deadline := time.Now().Add(d)
	s.PhaseDeadline = &deadline
	s.phaseTimer = time.AfterFunc(d, func() { s.onPhaseTimer(expected) })
}

func (s *Session) stopPhaseTimer() {
	if s.phaseTimer != nil {
		s.phaseTimer.Stop()
		s.phaseTimer = nil
	}
	s.PhaseDeadline = nil
}

func (s *Session) onPhaseTimer(expected Phase) {
	s.Mu.Lock()
	defer s.Mu.Unlock()

	if s.closed || s.Phase != expected {
		s.Logger.WithFields(logrus.Fields{
			"expected": expected.String(),
			"phase":    s.Phase.String(),
		}).Debug("Stale phase timer ignored")
		return
	}
	s.phaseTimer = nil
	if err := s.transition(); err != nil {
		s.Logger.WithError(err).Error("Phase timer transition failed")
		return
	}
	s.broadcastStateUnsafe()
}

// logAction queues a journal record for this lobby. Records of one session are
// enqueued in ActionIndex order. Assumes lock is held.
func (s *Session) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	s.actionIndex++
	if s.Journal == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.LobbyActionRecord{
		LobbyID:       s.ID,
		ActionIndex:   s.actionIndex,
		ActorID:       actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	s.Journal.Enqueue(record)
}

func (s *Session) playerByIDUnsafe(id uuid.UUID) *models.Player {
	return s.playerIn(s.Players, id)
}

func (s *Session) playerIn(list []*models.Player, id uuid.UUID) *models.Player {
	for _, p := range list {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Session) playerByNameUnsafe(name string) *models.Player {
	for _, p := range s.Players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func removePlayer(list []*models.Player, id uuid.UUID) []*models.Player {
	out := list[:0]
	for _, p := range list {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func containsRole(roles []models.Role, role models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func sameID(a, b *uuid.UUID) bool {
	return a != nil && b != nil && *a == *b
}

func idPtr(id uuid.UUID) *uuid.UUID { return &id }
