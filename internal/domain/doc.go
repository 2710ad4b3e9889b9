// Package domain contains the core entities of the scheduler: memory items,
// review outcomes and the append-only review history. It is independent of
// any storage technology or delivery mechanism.
package domain
