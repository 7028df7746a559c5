package infrastructure

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePostRecord_MarkAndCheck(t *testing.T) {
	rec, err := NewFilePostRecord(t.TempDir())
	require.NoError(t, err)

	posted, err := rec.Posted("Spring Ladder", 5)
	require.NoError(t, err)
	assert.False(t, posted)
	assert.FileExists(t, rec.Path("Spring Ladder"))

	require.NoError(t, rec.MarkPosted("Spring Ladder", 5))

	posted, err = rec.Posted("Spring Ladder", 5)
	require.NoError(t, err)
	assert.True(t, posted)

	posted, err = rec.Posted("Spring Ladder", 6)
	require.NoError(t, err)
	assert.False(t, posted)

	b, err := os.ReadFile(rec.Path("Spring Ladder"))
	require.NoError(t, err)
	assert.JSONEq(t, `[5]`, string(b))
}

func TestFilePostRecord_AcceptsStringEntries(t *testing.T) {
	rec, err := NewFilePostRecord(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(rec.Path("L"), []byte(`["12", 13]`), 0o644))

	for _, week := range []int{12, 13} {
		posted, err := rec.Posted("L", week)
		require.NoError(t, err)
		assert.True(t, posted, week)
	}

	require.NoError(t, rec.MarkPosted("L", 14))
	b, err := os.ReadFile(rec.Path("L"))
	require.NoError(t, err)
	assert.JSONEq(t, `["12", 13, 14]`, string(b))
}

func TestFilePostRecord_Corrupt(t *testing.T) {
	rec, err := NewFilePostRecord(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(rec.Path("L"), []byte(`{`), 0o644))

	_, err = rec.Posted("L", 1)
	assert.ErrorContains(t, err, "decode message record")
}
