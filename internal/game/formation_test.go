// internal/game/formation_test.go
package game

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/quest/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateTeamValidation(t *testing.T) {
	s, ids, _ := setupStarted(t, 6, sixPlayerRoles...)
	leader := *s.CurrentLeader
	other := ids[0]
	if other == leader {
		other = ids[1]
	}

	assert.ErrorIs(t, s.UpdateTeam(other, ids[:2], nil), ErrNotYourTurn)
	assert.ErrorIs(t, s.UpdateTeam(leader, ids[:4], nil), ErrInvalidTeamSize)
	assert.ErrorIs(t, s.UpdateTeam(leader, []uuid.UUID{ids[0], ids[0]}, nil), ErrDuplicatePlayer)
	assert.ErrorIs(t, s.UpdateTeam(leader, []uuid.UUID{uuid.New()}, nil), ErrPlayerNotFound)
	assert.ErrorIs(t, s.UpdateTeam(leader, ids[:2], &ids[4]), ErrTokenNotOnTeam)
	assert.Empty(t, s.CurrentTeam)

	require.NoError(t, s.UpdateTeam(leader, ids[:2], &ids[1]))
	assert.Equal(t, ids[:2], s.CurrentTeam)
	assert.Equal(t, ids[1], *s.MagicTokenHolder)

	require.NoError(t, s.UpdateTeam(leader, ids[:1], nil))
	assert.Nil(t, s.MagicTokenHolder)

	assert.ErrorIs(t, s.ConfirmLeader(leader), ErrWrongPhase)
}

func TestConfirmTeamIff(t *testing.T) {
	required := 3
	for size := 0; size <= required; size++ {
		for _, withToken := range []bool{false, true} {
			s, ids, _ := setupStarted(t, 6, sixPlayerRoles...)
			leader := *s.CurrentLeader
			var token *uuid.UUID
			if withToken && size > 0 {
				token = &ids[0]
			}
			require.NoError(t, s.UpdateTeam(leader, ids[:size], token))

			err := s.ConfirmTeam(leader)
			if size == required && token != nil {
				require.NoError(t, err)
				assert.Equal(t, PhaseQuestResolution, s.Phase)
				continue
			}
			require.Error(t, err)
			if size != required {
				assert.ErrorIs(t, err, ErrInvalidTeamSize)
			} else {
				assert.ErrorIs(t, err, ErrMissingToken)
			}
			assert.Equal(t, PhaseTeamSelection, s.Phase)
		}
	}
}

func TestConfirmLeaderVeterans(t *testing.T) {
	s, ids, _ := setupStarted(t, 6, sixPlayerRoles...)
	s.Phase = PhaseLeaderSelection
	s.CurrentRound = 2
	s.CurrentLeader = &ids[0]
	s.Veterans = []uuid.UUID{ids[0], ids[1]}

	assert.ErrorIs(t, s.ConfirmLeader(ids[0]), ErrMissingLeader)
	assert.ErrorIs(t, s.UpdateLeader(ids[2], ids[3]), ErrNotYourTurn)

	require.NoError(t, s.UpdateLeader(ids[0], ids[1]))
	assert.ErrorIs(t, s.ConfirmLeader(ids[0]), ErrVeteranIneligible)

	require.NoError(t, s.UpdateLeader(ids[0], ids[2]))
	require.NoError(t, s.ConfirmLeader(ids[0]))
	assert.Equal(t, ids[2], *s.CurrentLeader)
	assert.Nil(t, s.UpcomingLeader)
	assert.Equal(t, PhaseTeamSelection, s.Phase)
}

func TestConfirmLeaderAllVeterans(t *testing.T) {
	s, ids, _ := setupStarted(t, 4, models.RoleMorganLeFey, models.RoleBlindHunter, models.RoleCleric, models.RoleYouth)
	s.Phase = PhaseLeaderSelection
	s.CurrentRound = 5
	s.CurrentLeader = &ids[3]
	s.Veterans = append([]uuid.UUID{}, ids...)

	require.NoError(t, s.UpdateLeader(ids[3], ids[0]))
	require.NoError(t, s.ConfirmLeader(ids[3]))
	assert.Equal(t, ids[0], *s.CurrentLeader)
}

func TestConfirmLeaderClearsAmuletOutsideAmuletRounds(t *testing.T) {
	s, ids, _ := setupStarted(t, 6, sixPlayerRoles...)
	s.Phase = PhaseLeaderSelection
	s.CurrentRound = 2
	s.CurrentLeader = &ids[0]
	s.Veterans = []uuid.UUID{ids[0]}

	require.NoError(t, s.UpdateLeader(ids[0], ids[1]))
	require.NoError(t, s.UpdateAmuletHolder(ids[0], ids[2]))
	require.NoError(t, s.ConfirmLeader(ids[0]))
	assert.Nil(t, s.AmuletHolder)
	assert.Equal(t, PhaseTeamSelection, s.Phase)
}

// nine players: rounds three to five carry the amulet.
func amuletSession(t *testing.T) (*Session, []uuid.UUID, []*Connection) {
	t.Helper()
	roles := []models.Role{
		models.RoleMorganLeFey, models.RoleBlindHunter, models.RoleMinionOfMordred,
		models.RoleMinionOfMordred, models.RoleMinionOfMordred, models.RoleCleric,
		models.RoleTroublemaker, models.RoleArchduke, models.RoleLoyalServant,
	}
	s, ids, conns := setupStarted(t, 9, roles...)
	s.Phase = PhaseLeaderSelection
	s.CurrentRound = 4
	s.CurrentLeader = &ids[8]
	s.Veterans = []uuid.UUID{ids[7], ids[8]}
	s.AmuletHistory = []models.AmuletResult{
		{AmuletHolder: ids[5], AmuletUsedOn: ids[6], IsGood: false},
	}
	return s, ids, conns
}

func TestConfirmLeaderAmuletRules(t *testing.T) {
	s, ids, _ := amuletSession(t)
	leader := ids[8]

	require.NoError(t, s.UpdateLeader(leader, ids[0]))
	assert.ErrorIs(t, s.ConfirmLeader(leader), ErrMissingAmuletHolder)

	require.NoError(t, s.UpdateAmuletHolder(leader, ids[5]))
	assert.ErrorIs(t, s.ConfirmLeader(leader), ErrAmuletAlreadyUsed)

	require.NoError(t, s.UpdateAmuletHolder(leader, ids[0]))
	assert.ErrorIs(t, s.ConfirmLeader(leader), ErrSamePersonConflict)

	require.NoError(t, s.UpdateAmuletHolder(leader, leader))
	assert.ErrorIs(t, s.ConfirmLeader(leader), ErrSamePersonConflict)
	assert.Equal(t, PhaseLeaderSelection, s.Phase)

	// a previous target may hold the next amulet
	require.NoError(t, s.UpdateAmuletHolder(leader, ids[6]))
	require.NoError(t, s.ConfirmLeader(leader))
	assert.Equal(t, PhaseAmuletCheck, s.Phase)
	assert.Equal(t, ids[0], *s.CurrentLeader)
	assert.Equal(t, ids[6], *s.AmuletHolder)
}

func TestConfirmAmuletUsage(t *testing.T) {
	s, ids, conns := amuletSession(t)
	leader := ids[8]
	require.NoError(t, s.UpdateLeader(leader, ids[0]))
	require.NoError(t, s.UpdateAmuletHolder(leader, ids[1]))
	require.NoError(t, s.ConfirmLeader(leader))
	holder := ids[1]
	drain(conns[1])

	assert.ErrorIs(t, s.UpdateAmuletUsage(ids[2], ids[3]), ErrNotYourTurn)
	assert.ErrorIs(t, s.ConfirmAmuletUsage(holder), ErrMissingAmuletTarget)

	require.NoError(t, s.UpdateAmuletUsage(holder, holder))
	assert.ErrorIs(t, s.ConfirmAmuletUsage(holder), ErrSelfTarget)

	require.NoError(t, s.UpdateAmuletUsage(holder, ids[5]))
	assert.ErrorIs(t, s.ConfirmAmuletUsage(holder), ErrAmuletReused)

	require.NoError(t, s.UpdateAmuletUsage(holder, ids[6]))
	assert.ErrorIs(t, s.ConfirmAmuletUsage(holder), ErrAmuletFaded)
	assert.Len(t, s.AmuletHistory, 1)

	// the Archduke shows as good
	require.NoError(t, s.UpdateAmuletUsage(holder, ids[7]))
	require.NoError(t, s.ConfirmAmuletUsage(holder))
	assert.Equal(t, PhaseTeamSelection, s.Phase)
	assert.Nil(t, s.AmuletHolder)
	assert.Nil(t, s.AmuletUsedOn)
	require.Len(t, s.AmuletHistory, 2)
	assert.True(t, s.AmuletHistory[1].IsGood)

	info := eventsOfType(drain(conns[1]), EventAmuletInfo)
	require.Len(t, info, 1)
	assert.Equal(t, s.AmuletHistory[1], info[0].Message)

	for i, c := range conns {
		if i != 1 {
			assert.Empty(t, eventsOfType(drain(c), EventAmuletInfo))
		}
	}
}

func TestAmuletHistoryUniqueness(t *testing.T) {
	s, ids, _ := amuletSession(t)
	s.AmuletHistory = append(s.AmuletHistory, models.AmuletResult{AmuletHolder: ids[6], AmuletUsedOn: ids[2]})

	holders := map[uuid.UUID]bool{}
	targets := map[uuid.UUID]bool{}
	// try every holder and target combination, the history must stay unique
	for _, h := range ids {
		for _, target := range ids {
			s.Phase = PhaseAmuletCheck
			s.AmuletHolder = idPtr(h)
			s.AmuletUsedOn = idPtr(target)
			_ = s.ConfirmAmuletUsage(h)
		}
	}
	for _, r := range s.AmuletHistory {
		assert.False(t, holders[r.AmuletHolder], "holder %s used twice", r.AmuletHolder)
		assert.False(t, targets[r.AmuletUsedOn], "target %s checked twice", r.AmuletUsedOn)
		holders[r.AmuletHolder] = true
		targets[r.AmuletUsedOn] = true
	}
}
