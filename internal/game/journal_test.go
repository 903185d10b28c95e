// internal/game/journal_test.go
package game

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/quest/internal/cache"
	"github.com/jason-s-yu/quest/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingJournal struct {
	mu      sync.Mutex
	records []cache.LobbyActionRecord
}

func (r *recordingJournal) Enqueue(record cache.LobbyActionRecord) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return true
}

func (r *recordingJournal) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.ActionType
	}
	return out
}

func indexOf(types []string, want string) int {
	for i, typ := range types {
		if typ == want {
			return i
		}
	}
	return -1
}

func TestJournalRecordsActionBeforeItsPhase(t *testing.T) {
	s, ids, _ := setupStarted(t, 6, sixPlayerRoles...)
	j := &recordingJournal{}
	s.Journal = j
	goods := []uuid.UUID{ids[3], ids[4], ids[5]}

	runQuest(t, s, goods, ids[3])
	nextLeader(t, s, ids)
	runQuest(t, s, goods[:2], ids[3])
	nextLeader(t, s, ids)
	runQuest(t, s, goods, ids[5])
	require.Equal(t, PhaseGoodVictory, s.Phase)

	types := j.types()
	require.NotEmpty(t, types)
	assert.Equal(t, "phase_GOOD_VICTORY", types[len(types)-1], "the verdict is the last record")

	assert.Less(t, indexOf(types, "confirm_team"), indexOf(types, "phase_QUEST_RESOLUTION"))
	assert.Less(t, indexOf(types, "quest_resolved"), indexOf(types, "phase_LEADER_SELECTION"))
	assert.Less(t, indexOf(types, "confirm_leader"), indexOf(types, "phase_TEAM_SELECTION"))

	for i := 1; i < len(j.records); i++ {
		assert.Equal(t, j.records[i-1].ActionIndex+1, j.records[i].ActionIndex)
	}
}

func TestJournalHuntVerdictIsLast(t *testing.T) {
	s, ids := huntSession(t)
	j := &recordingJournal{}
	s.Journal = j

	require.NoError(t, s.StartHunt(ids[1]))
	require.NoError(t, s.UpdateHunted(ids[1], []models.HuntGuess{
		{PlayerID: ids[3], Role: models.RoleCleric},
		{PlayerID: ids[4], Role: models.RoleYouth},
	}))
	require.NoError(t, s.ConfirmHunted(ids[1]))

	assert.Equal(t, []string{
		"hunt_started",
		"phase_THE_HUNT",
		"update_hunted",
		"confirm_hunted",
		"phase_EVIL_VICTORY",
	}, j.types())
}
