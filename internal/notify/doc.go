// Package notify schedules and sends task notification emails.
//
// Scheduler listens for task events and turns them into jobs. Handlers
// executes those jobs, rendering messages and delivering them through a
// mail.Sender. Deadline warnings carry the task's warning version and are
// dropped at send time when the task has since been rescheduled.
package notify
