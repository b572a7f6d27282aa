package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewTaskDefaults(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 7, 22, 9, 30, 15, 987654321, time.UTC)
	assignee := uuid.New()

	task, err := NewTask(TaskFields{
		Title:       strPtr("Write report"),
		Description: strPtr(""),
		AssigneeID:  &assignee,
	}, now)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.Equal(t, TaskStatusToDo, task.Status)
	assert.Equal(t, TaskPriorityHigh, task.Priority)
	assert.Equal(t, now.Truncate(time.Second), task.StartDate)
	assert.Equal(t, now.Truncate(time.Second), task.Deadline)
	assert.Equal(t, 1, task.WarningVersion)
	assert.Empty(t, task.Description)
}

func TestNewTaskDefaultsAreComputedPerCall(t *testing.T) {
	t.Parallel()

	assignee := uuid.New()
	fields := TaskFields{Title: strPtr("a"), Description: strPtr("b"), AssigneeID: &assignee}

	first, err := NewTask(fields, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	second, err := NewTask(fields, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.NotEqual(t, first.StartDate, second.StartDate)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestNewTaskReportsAllMissingFields(t *testing.T) {
	t.Parallel()

	_, err := NewTask(TaskFields{}, time.Now())

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "description")
	assert.Contains(t, verr.Fields, "assignee")
}

func TestTaskValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Task {
		return &Task{
			ID:          uuid.New(),
			Title:       "Title",
			Description: "Desc",
			Status:      TaskStatusInReview,
			Priority:    TaskPriorityMedium,
			AssigneeID:  uuid.New(),
			StartDate:   time.Now(),
			Deadline:    time.Now(),
		}
	}

	tests := []struct {
		name   string
		mutate func(*Task)
		fields []string
	}{
		{"valid", func(*Task) {}, nil},
		{"blank title", func(t *Task) { t.Title = "   " }, []string{"title"}},
		{"long title", func(t *Task) { t.Title = strings.Repeat("x", MaxTaskTitleLength+1) }, []string{"title"}},
		{"bad enums", func(t *Task) {
			t.Status = "Blocked"
			t.Priority = "Moderate"
		}, []string{"status", "priority"}},
		{"no assignee", func(t *Task) { t.AssigneeID = uuid.Nil }, []string{"assignee"}},
		{"deadline before start is allowed", func(t *Task) {
			t.Deadline = t.StartDate.Add(-48 * time.Hour)
		}, nil},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			task := valid()
			tc.mutate(task)
			err := task.Validate()
			if tc.fields == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			for _, f := range tc.fields {
				assert.Contains(t, verr.Fields, f)
			}
			assert.Len(t, verr.Fields, len(tc.fields))
		})
	}
}

func TestTaskApply(t *testing.T) {
	t.Parallel()

	task := &Task{Title: "old", Description: "keep", Status: TaskStatusToDo}
	status := TaskStatusInProgress

	deadlineChanged := task.Apply(TaskFields{Status: &status})
	assert.False(t, deadlineChanged)
	assert.Equal(t, TaskStatusInProgress, task.Status)
	assert.Equal(t, "old", task.Title)
	assert.Equal(t, "keep", task.Description)

	deadline := time.Date(2024, 7, 23, 0, 0, 0, 500, time.FixedZone("KST", 9*3600))
	assert.True(t, task.Apply(TaskFields{Deadline: &deadline}))
	assert.Equal(t, time.Date(2024, 7, 22, 15, 0, 0, 0, time.UTC), task.Deadline)
}

func TestParseTaskInput(t *testing.T) {
	t.Parallel()

	assignee := uuid.New().String()

	t.Run("create requires only core fields", func(t *testing.T) {
		t.Parallel()
		fields, verr := ParseTaskInput(TaskInput{
			Title:       strPtr("T"),
			Description: strPtr(""),
			Assignee:    &assignee,
		}, ModeCreate)
		require.NoError(t, verr.OrNil())
		assert.Nil(t, fields.Status)
		assert.Nil(t, fields.Deadline)
		require.NotNil(t, fields.AssigneeID)
		assert.Equal(t, assignee, fields.AssigneeID.String())
	})

	t.Run("replace requires every field", func(t *testing.T) {
		t.Parallel()
		_, verr := ParseTaskInput(TaskInput{Title: strPtr("T")}, ModeReplace)
		require.Error(t, verr.OrNil())
		for _, f := range []string{"description", "status", "priority", "assignee", "startDate", "deadline"} {
			assert.Equal(t, []string{MsgRequired}, verr.Fields[f], f)
		}
		assert.NotContains(t, verr.Fields, "title")
	})

	t.Run("patch collects every bad field", func(t *testing.T) {
		t.Parallel()
		_, verr := ParseTaskInput(TaskInput{
			Title:    strPtr(""),
			Status:   strPtr("Blocked"),
			Priority: strPtr("Urgent"),
			Assignee: strPtr("not-a-uuid"),
			Deadline: strPtr("tomorrow"),
		}, ModePatch)
		assert.Len(t, verr.Fields, 5)
		assert.Equal(t, []string{`"Blocked" is not a valid choice.`}, verr.Fields["status"])
	})

	t.Run("patch with nothing is fine", func(t *testing.T) {
		t.Parallel()
		_, verr := ParseTaskInput(TaskInput{}, ModePatch)
		assert.NoError(t, verr.OrNil())
	})

	t.Run("malformed transport values are kept", func(t *testing.T) {
		t.Parallel()
		malformed := NewValidationError()
		malformed.Add("title", MsgNull)
		_, verr := ParseTaskInput(TaskInput{Malformed: malformed, Status: strPtr("nope")}, ModeCreate)
		assert.Equal(t, []string{MsgNull}, verr.Fields["title"])
		assert.Contains(t, verr.Fields, "status")
		assert.Contains(t, verr.Fields, "description")
	})
}

func TestParseTaskSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		field, order string
		want         TaskSort
	}{
		{"", "", TaskSort{Field: SortByDeadline}},
		{"title", "desc", TaskSort{Field: SortByTitle, Descending: true}},
		{"priority", "ASC", TaskSort{Field: SortByPriority}},
		{"startDate", "sideways", TaskSort{Field: SortByStartDate}},
		{"bogus", "desc", TaskSort{Field: SortByDeadline}},
		{"", "desc", TaskSort{Field: SortByDeadline, Descending: true}},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, ParseTaskSort(tc.field, tc.order), "%q/%q", tc.field, tc.order)
	}
}

func TestTimestamps(t *testing.T) {
	t.Parallel()

	valid := map[string]time.Time{
		"2024-07-22T00:00:00Z":             time.Date(2024, 7, 22, 0, 0, 0, 0, time.UTC),
		"2024-07-22T00:00:00.123456Z":      time.Date(2024, 7, 22, 0, 0, 0, 0, time.UTC),
		"2024-07-22T09:00:00+09:00":        time.Date(2024, 7, 22, 0, 0, 0, 0, time.UTC),
		"2024-07-22T00:00:00.5+00:00":      time.Date(2024, 7, 22, 0, 0, 0, 0, time.UTC),
		"2024-07-22T10:15:30":              time.Date(2024, 7, 22, 10, 15, 30, 0, time.UTC),
		"2024-07-22T10:15":                 time.Date(2024, 7, 22, 10, 15, 0, 0, time.UTC),
	}
	for in, want := range valid {
		got, err := ParseTimestamp(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s: got %s", in, got)
		assert.Equal(t, time.UTC, got.Location())
	}

	for _, in := range []string{"", "yesterday", "2024-13-01T00:00:00Z"} {
		_, err := ParseTimestamp(in)
		assert.ErrorIs(t, err, ErrInvalidTimestamp, in)
	}

	kst := time.FixedZone("KST", 9*3600)
	assert.Equal(t, "2024-07-22T15:00:00Z", FormatTimestamp(time.Date(2024, 7, 23, 0, 0, 0, 999, kst)))
}
