// internal/game/helpers_test.go
package game

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/quest/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// sixPlayerRoles is a fixed six player table used where the shuffle must not matter.
var sixPlayerRoles = []models.Role{
	models.RoleMorganLeFey,
	models.RoleBlindHunter,
	models.RoleMinionOfMordred,
	models.RoleCleric,
	models.RoleYouth,
	models.RoleDuke,
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// setupLobby creates a session with n joined players and one connection each.
func setupLobby(t *testing.T, n int) (*Session, []uuid.UUID, []*Connection) {
	t.Helper()
	s := NewSession("TEST")
	s.Logger = quietLogger()
	s.Rand = rand.New(rand.NewSource(42))

	ids := make([]uuid.UUID, n)
	conns := make([]*Connection, n)
	for i := 0; i < n; i++ {
		conns[i] = NewConnection(nil, s.Logger)
		id, err := s.Join(fmt.Sprintf("player%d", i), conns[i])
		require.NoError(t, err)
		ids[i] = id
	}
	return s, ids, conns
}

// setupStarted starts the game and then overrides the shuffled roles with roles,
// in join order, so tests can reason about who is who.
func setupStarted(t *testing.T, n int, roles ...models.Role) (*Session, []uuid.UUID, []*Connection) {
	t.Helper()
	s, ids, conns := setupLobby(t, n)
	require.NoError(t, s.StartGame(ids[0]))
	if len(roles) > 0 {
		require.Len(t, roles, n)
		for i, p := range s.Players {
			p.Role = roles[i]
		}
		s.buildInformationPlanUnsafe()
	}
	for _, c := range conns {
		drain(c)
	}
	return s, ids, conns
}

func drain(c *Connection) []GameEvent {
	var out []GameEvent
	for {
		select {
		case ev := <-c.OutChan:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func privateEvents(events []GameEvent) []GameEvent {
	var out []GameEvent
	for _, ev := range events {
		if ev.Event != EventGameStateUpdate && ev.Event != EventJoined {
			out = append(out, ev)
		}
	}
	return out
}

func eventsOfType(events []GameEvent, typ EventType) []GameEvent {
	var out []GameEvent
	for _, ev := range events {
		if ev.Event == typ {
			out = append(out, ev)
		}
	}
	return out
}

// runQuest drafts team with the token on token, confirms it and plays one card
// per member. Members in fails play a fail card.
func runQuest(t *testing.T, s *Session, team []uuid.UUID, token uuid.UUID, fails ...uuid.UUID) {
	t.Helper()
	leader := *s.CurrentLeader
	require.NoError(t, s.UpdateTeam(leader, team, &token))
	require.NoError(t, s.ConfirmTeam(leader))
	for _, id := range team {
		require.NoError(t, s.SubmitQuest(id, id, !containsID(fails, id)))
	}
}

// nextLeader hands leadership to the first player who has not led yet.
func nextLeader(t *testing.T, s *Session, ids []uuid.UUID) uuid.UUID {
	t.Helper()
	leader := *s.CurrentLeader
	for _, id := range ids {
		if !containsID(s.Veterans, id) && id != leader {
			require.NoError(t, s.UpdateLeader(leader, id))
			require.NoError(t, s.ConfirmLeader(leader))
			return id
		}
	}
	t.Fatal("no eligible leader left")
	return uuid.Nil
}
