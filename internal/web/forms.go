package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/taskhub/taskhub-api/internal/domain"
)

// localInputLayout is the value format of an <input type="datetime-local">.
const localInputLayout = "2006-01-02T15:04"

var taskFormFields = []string{"title", "description", "assignee", "status", "priority", "startDate", "deadline"}

// taskView is a task prepared for display.
type taskView struct {
	ID               string
	Title            string
	Description      string
	AssigneeID       string
	AssigneeUsername string
	Status           domain.TaskStatus
	Priority         domain.TaskPriority
	StartDate        time.Time
	Deadline         time.Time
	Overdue          bool
}

func newTaskViews(tasks []*domain.Task, now time.Time) []taskView {
	out := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskView{
			ID:               t.ID.String(),
			Title:            t.Title,
			Description:      t.Description,
			AssigneeID:       t.AssigneeID.String(),
			AssigneeUsername: t.AssigneeUsername,
			Status:           t.Status,
			Priority:         t.Priority,
			StartDate:        t.StartDate,
			Deadline:         t.Deadline,
			Overdue:          t.Status != domain.TaskStatusDone && t.Deadline.Before(now),
		})
	}
	return out
}

// formValues copies the submitted task fields so a rejected form can be
// redisplayed as the user typed it.
func formValues(r *http.Request) map[string]string {
	values := make(map[string]string, len(taskFormFields))
	for _, name := range taskFormFields {
		values[name] = r.PostFormValue(name)
	}
	return values
}

// taskFormValues fills a form from a stored task, with datetimes shown in
// loc.
func taskFormValues(t *domain.Task, loc *time.Location) map[string]string {
	return map[string]string{
		"title":       t.Title,
		"description": t.Description,
		"assignee":    t.AssigneeID.String(),
		"status":      string(t.Status),
		"priority":    string(t.Priority),
		"startDate":   t.StartDate.In(loc).Format(localInputLayout),
		"deadline":    t.Deadline.In(loc).Format(localInputLayout),
	}
}

// taskInput turns submitted form values into service input. Title and
// description are always sent, so an empty description is stored as empty
// and a blank title is reported as blank. The remaining fields are omitted
// when blank: create falls back to defaults and edit leaves them unchanged.
func taskInput(values map[string]string, loc *time.Location) domain.TaskInput {
	var in domain.TaskInput
	set := func(name string) *string {
		v := strings.TrimSpace(values[name])
		if v == "" {
			return nil
		}
		return &v
	}

	title := strings.TrimSpace(values["title"])
	description := values["description"]
	in.Title = &title
	in.Description = &description
	in.Assignee = set("assignee")
	in.Status = set("status")
	in.Priority = set("priority")
	in.StartDate = localToUTC(set("startDate"), loc)
	in.Deadline = localToUTC(set("deadline"), loc)
	return in
}

// localToUTC reads a datetime-local value as wall time in loc. Values in any
// other format pass through unchanged and are rejected by task validation.
func localToUTC(v *string, loc *time.Location) *string {
	if v == nil {
		return nil
	}
	t, err := time.ParseInLocation(localInputLayout, *v, loc)
	if err != nil {
		return v
	}
	s := domain.FormatTimestamp(t)
	return &s
}
