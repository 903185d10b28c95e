// internal/game/roles_test.go
package game

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/jason-s-yu/quest/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolesForPlayerCount(t *testing.T) {
	expectedEvils := map[int]int{4: 2, 5: 3, 6: 3, 7: 4, 8: 4, 9: 5, 10: 5}

	for n := MinPlayers; n <= MaxPlayers; n++ {
		for seed := int64(0); seed < 20; seed++ {
			set, err := RolesForPlayerCount(n, rand.New(rand.NewSource(seed)))
			require.NoError(t, err)
			require.Len(t, set.Selected, n)

			evils := 0
			for _, r := range set.Selected {
				if r.IsEvil() {
					evils++
				}
				assert.Contains(t, set.All, r, "selected role must be in the catalogue")
			}
			assert.Equal(t, expectedEvils[n], evils, "evil count for %d players", n)
			assert.Contains(t, set.Selected, models.RoleMorganLeFey)
			assert.Contains(t, set.Selected, models.RoleBlindHunter)

			if n <= 5 {
				assert.NotEmpty(t, set.UnusedGoodRole)
				assert.NotContains(t, set.Selected, set.UnusedGoodRole)
				assert.True(t, set.UnusedGoodRole.IsGood())
			} else {
				assert.Empty(t, set.UnusedGoodRole)
				assert.Contains(t, set.Selected, models.RoleCleric)
			}
		}
	}
}

func TestRolesDukeAndArchduke(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	cases := []struct {
		players  int
		duke     bool
		archduke bool
	}{
		{6, true, false},
		{7, true, false},
		{8, true, false},
		{9, false, true},
		{10, true, true},
	}
	for _, tc := range cases {
		set, err := RolesForPlayerCount(tc.players, rnd)
		require.NoError(t, err)
		assert.Equal(t, tc.duke, containsRole(set.Selected, models.RoleDuke), "duke at %d", tc.players)
		assert.Equal(t, tc.archduke, containsRole(set.Selected, models.RoleArchduke), "archduke at %d", tc.players)
	}
}

func TestRolesUnsupportedCount(t *testing.T) {
	for _, n := range []int{0, 3, 11} {
		_, err := RolesForPlayerCount(n, rand.New(rand.NewSource(1)))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedPlayerCount))
		assert.Equal(t, KindProgrammer, KindOf(err))
	}
}

func TestRoundRulesFor(t *testing.T) {
	for n := MinPlayers; n <= MaxPlayers; n++ {
		rules, err := RoundRulesFor(n)
		require.NoError(t, err)
		require.Len(t, rules, 5)
		for i, r := range rules {
			assert.Equal(t, i+1, r.Round)
			assert.LessOrEqual(t, r.RequiredPlayers, n)
		}
	}

	rules, _ := RoundRulesFor(5)
	for _, r := range rules {
		assert.False(t, r.Amulet)
	}

	rules, _ = RoundRulesFor(6)
	assert.False(t, rules[3].Amulet)
	assert.True(t, rules[4].Amulet)

	rules, _ = RoundRulesFor(7)
	assert.True(t, rules[3].Amulet)
	assert.Equal(t, 2, rules[3].FailsRequired)

	rules, _ = RoundRulesFor(9)
	assert.Equal(t, []bool{false, false, true, true, true}, amuletFlags(rules))
	assert.Equal(t, 5, rules[3].RequiredPlayers)

	_, err := RoundRulesFor(11)
	assert.ErrorIs(t, err, ErrUnsupportedPlayerCount)
}

func amuletFlags(rules []RoundRule) []bool {
	out := make([]bool, len(rules))
	for i, r := range rules {
		out[i] = r.Amulet
	}
	return out
}
