// Package store defines the storage collaborator of the scheduling engine.
// The engine reads a user's items and writes each review as one atomic unit:
// the updated item and its review event are either both persisted or neither
// is. Concrete implementations live under internal/platform.
package store
