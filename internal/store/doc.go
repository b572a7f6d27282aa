// Package store defines the persistence contracts for tasks and users, the
// sentinel errors every implementation maps to, and the transaction helper
// services use to group writes.
package store
