// Package job runs deferred work. Jobs are persisted with a run_at time,
// claimed by a poll loop once due, and executed by a fixed pool of workers
// through handlers registered per job type. Delivery is at-least-once.
package job
