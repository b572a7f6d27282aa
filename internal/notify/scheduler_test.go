package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskhub/taskhub-api/internal/events"
	"github.com/taskhub/taskhub-api/internal/job"
)

var fixedNow = time.Date(2024, 7, 22, 9, 0, 0, 0, time.UTC)

func newTestScheduler(sub *mockSubmitter) *Scheduler {
	s := NewScheduler(sub, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func emit(t *testing.T, s *Scheduler, eventType string, change events.TaskChange) error {
	t.Helper()
	event, err := events.NewEvent(eventType, change)
	require.NoError(t, err)
	return s.HandleEvent(context.Background(), event)
}

func TestWarningTime(t *testing.T) {
	t.Parallel()

	_, ok := WarningTime(fixedNow.Add(2*time.Hour), fixedNow)
	assert.False(t, ok, "deadline within 24h gets no warning")

	at, ok := WarningTime(fixedNow.Add(48*time.Hour), fixedNow)
	require.True(t, ok)
	assert.Equal(t, fixedNow.Add(24*time.Hour), at)

	at, ok = WarningTime(fixedNow.Add(24*time.Hour), fixedNow)
	require.True(t, ok, "exactly 24h out fires now")
	assert.Equal(t, fixedNow, at)
}

func TestScheduler_Created(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		deadline  time.Time
		wantTypes []string
	}{
		{
			name:      "near deadline skips warning",
			deadline:  fixedNow.Add(2 * time.Hour),
			wantTypes: []string{JobTaskCreatedEmail},
		},
		{
			name:      "far deadline schedules warning",
			deadline:  fixedNow.Add(48 * time.Hour),
			wantTypes: []string{JobTaskCreatedEmail, JobDeadlineWarningEmail},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			sub := &mockSubmitter{}
			s := newTestScheduler(sub)

			change := events.TaskChange{
				TaskID:           uuid.New(),
				Title:            "Report",
				AssigneeUsername: "alice",
				AssigneeEmail:    "alice@example.com",
				StartDate:        fixedNow,
				Deadline:         tc.deadline,
				WarningVersion:   1,
			}
			require.NoError(t, emit(t, s, events.TypeTaskCreated, change))
			assert.Equal(t, tc.wantTypes, sub.types())

			created := sub.byType(JobTaskCreatedEmail)
			assert.Equal(t, fixedNow, created.RunAt)
			var p TaskMailPayload
			require.NoError(t, created.Decode(&p))
			assert.Equal(t, "alice@example.com", p.Email)

			if w := sub.byType(JobDeadlineWarningEmail); w != nil {
				assert.Equal(t, fixedNow.Add(24*time.Hour), w.RunAt)
				var wp DeadlineWarningPayload
				require.NoError(t, w.Decode(&wp))
				assert.Equal(t, DeadlineWarningPayload{TaskID: change.TaskID, WarningVersion: 1}, wp)
			}
		})
	}
}

func TestScheduler_ReplacedUsesCreationTemplate(t *testing.T) {
	t.Parallel()
	sub := &mockSubmitter{}
	s := newTestScheduler(sub)

	require.NoError(t, emit(t, s, events.TypeTaskReplaced, events.TaskChange{
		TaskID:         uuid.New(),
		Deadline:       fixedNow.Add(72 * time.Hour),
		WarningVersion: 4,
	}))
	assert.Equal(t, []string{JobTaskCreatedEmail, JobDeadlineWarningEmail}, sub.types())

	var wp DeadlineWarningPayload
	require.NoError(t, sub.byType(JobDeadlineWarningEmail).Decode(&wp))
	assert.Equal(t, 4, wp.WarningVersion)
}

func TestScheduler_Updated(t *testing.T) {
	t.Parallel()

	t.Run("without deadline change", func(t *testing.T) {
		t.Parallel()
		sub := &mockSubmitter{}
		s := newTestScheduler(sub)

		require.NoError(t, emit(t, s, events.TypeTaskUpdated, events.TaskChange{
			TaskID:   uuid.New(),
			Title:    "Report",
			Deadline: fixedNow.Add(72 * time.Hour),
			Actor:    "alice",
		}))
		assert.Equal(t, []string{JobTaskUpdatedEmail, JobSuperusersNotifiedEmail}, sub.types())

		var ap AdminNoticePayload
		require.NoError(t, sub.byType(JobSuperusersNotifiedEmail).Decode(&ap))
		assert.Equal(t, "alice", ap.Actor)
	})

	t.Run("with deadline change", func(t *testing.T) {
		t.Parallel()
		sub := &mockSubmitter{}
		s := newTestScheduler(sub)

		require.NoError(t, emit(t, s, events.TypeTaskUpdated, events.TaskChange{
			TaskID:          uuid.New(),
			Deadline:        fixedNow.Add(72 * time.Hour),
			WarningVersion:  2,
			DeadlineChanged: true,
		}))
		assert.Equal(t, []string{JobTaskUpdatedEmail, JobSuperusersNotifiedEmail, JobDeadlineWarningEmail}, sub.types())
	})
}

func TestScheduler_IgnoresOtherEvents(t *testing.T) {
	t.Parallel()
	sub := &mockSubmitter{}
	s := newTestScheduler(sub)

	require.NoError(t, emit(t, s, "user.created", events.TaskChange{}))
	assert.Empty(t, sub.types())
}

func TestScheduler_SubmitFailure(t *testing.T) {
	t.Parallel()
	sub := &mockSubmitter{SubmitFn: func(ctx context.Context, j *job.Job) error {
		if j.Type == JobTaskCreatedEmail {
			return errors.New("database unavailable")
		}
		return nil
	}}
	s := newTestScheduler(sub)

	err := emit(t, s, events.TypeTaskCreated, events.TaskChange{
		TaskID:   uuid.New(),
		Deadline: fixedNow.Add(72 * time.Hour),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database unavailable")
	assert.Equal(t, []string{JobDeadlineWarningEmail}, sub.types(), "remaining jobs are still submitted")
}
