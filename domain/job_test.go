package domain

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageJob_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"numbers", `{"id":"welcome","timestamp":1704067200,"channel_id":99,"content":"hi","files":["a.png"]}`},
		{"strings", `{"id":"welcome","timestamp":"1704067200","channel_id":"99","content":"hi","files":["a.png"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var job MessageJob
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &job))
			assert.Equal(t, "welcome", job.ID)
			assert.Equal(t, leagueStart, job.Timestamp)
			assert.Equal(t, ID(99), job.ChannelID)
			assert.Equal(t, "hi", job.Content)
			assert.Equal(t, []string{"a.png"}, job.Files)
		})
	}
}

func TestMessageJob_UnmarshalJSON_MissingTimestamp(t *testing.T) {
	var job MessageJob
	err := json.Unmarshal([]byte(`{"id":"x","channel_id":1,"content":"hi"}`), &job)
	assert.ErrorIs(t, err, ErrInvalidJob)
}

func TestMessageJob_MarshalJSON(t *testing.T) {
	job := MessageJob{ID: "x", Timestamp: leagueStart, ChannelID: 5, Content: "hello"}
	b, err := json.Marshal(job)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x","timestamp":1704067200,"channel_id":5,"content":"hello"}`, string(b))

	var back MessageJob
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, job, back)
}

func TestMessageJob_Due(t *testing.T) {
	job := MessageJob{Timestamp: leagueStart}
	assert.True(t, job.Due(leagueStart))
	assert.True(t, job.Due(leagueStart.Add(time.Minute)))
	assert.False(t, job.Due(leagueStart.Add(-time.Minute)))
}

func TestMessageJob_Validate(t *testing.T) {
	ok := MessageJob{ID: "x", ChannelID: 1, Content: "hi"}
	require.NoError(t, ok.Validate())

	filesOnly := MessageJob{ID: "x", ChannelID: 1, Files: []string{"a.png"}}
	require.NoError(t, filesOnly.Validate())

	for _, job := range []MessageJob{
		{ChannelID: 1, Content: "hi"},
		{ID: "x", Content: "hi"},
		{ID: "x", ChannelID: 1},
		{ID: "../escape", ChannelID: 1, Content: "hi"},
	} {
		assert.ErrorIs(t, job.Validate(), ErrInvalidJob, "%+v", job)
	}
}

func TestMessageJob_ConfineFiles(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "srv", "attachments")
	job := MessageJob{ID: "x", ChannelID: 1, Files: []string{
		"bracket.png",
		filepath.Join("week1", "pairings.pdf"),
		filepath.Join(root, "rules.pdf"),
	}}

	got, err := job.ConfineFiles(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "bracket.png"),
		filepath.Join(root, "week1", "pairings.pdf"),
		filepath.Join(root, "rules.pdf"),
	}, got.Files)

	noFiles, err := MessageJob{ID: "x", ChannelID: 1, Content: "hi"}.ConfineFiles("")
	require.NoError(t, err)
	assert.Empty(t, noFiles.Files)
}

func TestMessageJob_ConfineFilesRejectsEscapes(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "srv", "attachments")
	for _, f := range []string{
		"/proc/self/environ",
		"../secrets.env",
		"week1/../../secrets.env",
		filepath.Join(root, "..", "attachments-old", "a.png"),
		root,
	} {
		_, err := MessageJob{ID: "x", ChannelID: 1, Files: []string{f}}.ConfineFiles(root)
		assert.ErrorIs(t, err, ErrInvalidJob, f)
	}

	_, err := MessageJob{ID: "x", ChannelID: 1, Files: []string{"a.png"}}.ConfineFiles("")
	assert.ErrorIs(t, err, ErrInvalidJob)
}

func TestMessageJob_MessageNeverMentionsEveryone(t *testing.T) {
	msg := MessageJob{Content: "hi @everyone", Files: []string{"a"}}.Message()
	assert.True(t, msg.MentionUsers)
	assert.True(t, msg.MentionRoles)
	assert.Equal(t, []string{"a"}, msg.Files)
}

func TestAdaptSubmission(t *testing.T) {
	at := leagueStart.Add(90 * time.Minute)
	sub := NewSubmission("alice", "bob", "Ladder", OutcomeDraw, "close game", at)

	r := AdaptSubmission(sub)
	assert.Equal(t, MatchResult{
		Player:     "alice",
		Opponent:   "bob",
		Time:       at.Unix(),
		Draw:       true,
		LeagueName: "Ladder",
	}, r)
	assert.Equal(t, at, r.MatchDate())
	require.NoError(t, r.Validate())
}

func TestMatchResult_Validate(t *testing.T) {
	assert.ErrorIs(t, MatchResult{Player: "a"}.Validate(), ErrInvalidResult)
	assert.ErrorIs(t, MatchResult{Opponent: "a"}.Validate(), ErrInvalidResult)
	assert.ErrorIs(t, MatchResult{Player: "a", Opponent: "a"}.Validate(), ErrInvalidResult)
	assert.ErrorIs(t, MatchResult{Player: "a", Opponent: "b", PlayerVictory: true, Draw: true}.Validate(), ErrInvalidResult)
}

func TestParseOutcome(t *testing.T) {
	o, err := ParseOutcome(" WIN ")
	require.NoError(t, err)
	assert.Equal(t, OutcomeWin, o)

	_, err = ParseOutcome("forfeit")
	assert.ErrorIs(t, err, ErrInvalidResult)
}
