package job

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("encodes payload", func(t *testing.T) {
		t.Parallel()

		runAt := time.Date(2024, 7, 22, 9, 0, 0, 0, time.UTC)
		j, err := New("task_created_email", map[string]string{"task_id": "abc"}, runAt)
		require.NoError(t, err)

		assert.Equal(t, "task_created_email", j.Type)
		assert.Equal(t, StatusPending, j.Status)
		assert.Equal(t, runAt, j.RunAt)
		assert.JSONEq(t, `{"task_id":"abc"}`, string(j.Payload))

		var decoded map[string]string
		require.NoError(t, j.Decode(&decoded))
		assert.Equal(t, "abc", decoded["task_id"])
	})

	t.Run("zero run_at means now", func(t *testing.T) {
		t.Parallel()

		before := time.Now().UTC()
		j, err := New("x", nil, time.Time{})
		require.NoError(t, err)
		assert.False(t, j.RunAt.Before(before))
	})

	t.Run("blank type rejected", func(t *testing.T) {
		t.Parallel()

		_, err := New("  ", nil, time.Time{})
		assert.ErrorIs(t, err, ErrInvalidJob)
	})

	t.Run("unencodable payload rejected", func(t *testing.T) {
		t.Parallel()

		_, err := New("x", make(chan int), time.Time{})
		assert.ErrorIs(t, err, ErrInvalidJob)
	})
}
