// Package domain holds the task tracker's entities (Task, User, Principal),
// their enumerations and defaults, and the field-level validation that every
// write path shares. It has no knowledge of storage or transport.
package domain
