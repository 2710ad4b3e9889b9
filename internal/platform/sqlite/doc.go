// Package sqlite implements the store interfaces with gorm on top of the pure
// Go glebarez/sqlite driver. It backs the "sqlite" database driver for local
// deployments and needs no cgo.
package sqlite
