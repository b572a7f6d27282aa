package notify

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is how dates appear in mail bodies.
const DateLayout = "2006-01-02 15:04"

// Messages renders notification subjects and bodies.
type Messages struct {
	baseURL  string
	location *time.Location
}

// NewMessages creates a Messages that links to baseURL and renders dates in
// loc. A nil loc means UTC.
func NewMessages(baseURL string, loc *time.Location) Messages {
	if loc == nil {
		loc = time.UTC
	}
	return Messages{
		baseURL:  strings.TrimRight(baseURL, "/"),
		location: loc,
	}
}

func (m Messages) date(t time.Time) string {
	return t.In(m.location).Format(DateLayout)
}

// Created renders the mail sent when a task is created or replaced.
func (m Messages) Created(username, title string, start, deadline time.Time) (string, string) {
	subject := fmt.Sprintf("Task %s has been created", title)
	body := fmt.Sprintf("Hello %s! \n\nThe task with the title %s has been created. "+
		"It starts on the date %s and the deadline is on the %s. "+
		"\n\nFor further questions, please refer to the URL: %s/tasklist/",
		username, title, m.date(start), m.date(deadline), m.baseURL)
	return subject, body
}

// Updated renders the mail sent to the assignee after a partial update.
func (m Messages) Updated(username, title string) (string, string) {
	subject := fmt.Sprintf("Task %s has been updated", title)
	body := fmt.Sprintf("Hello %s! \n\nThe task with the title %s has been updated. "+
		"\n\nFor further questions, please refer to the URL: %s/tasklist/",
		username, title, m.baseURL)
	return subject, body
}

// AdminNotice renders the mail sent to superusers after a partial update.
func (m Messages) AdminNotice(title, actor string) (string, string) {
	subject := fmt.Sprintf("Status of Task %s has been updated by %s", title, actor)
	body := fmt.Sprintf("Hello Superuser! \n\nThe task status with the title %s has been updated by %s. "+
		"\n\nTo have a look at every available task, please refer to the URL: %s/tasklist/admin/",
		title, actor, m.baseURL)
	return subject, body
}

// DeadlineWarning renders the mail sent a day before the deadline.
func (m Messages) DeadlineWarning(username, title string, deadline time.Time) (string, string) {
	subject := fmt.Sprintf("Deadline of Task %s is approaching", title)
	body := fmt.Sprintf("Hello %s! \n\nThe Deadline of the task with the title %s is set to be due in 24 hours (%s). "+
		"Please make sure to finish the task or console with your team leader. "+
		"\n\nFor further questions, please refer to the URL: %s/tasklist/",
		username, title, m.date(deadline), m.baseURL)
	return subject, body
}
