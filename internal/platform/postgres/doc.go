// Package postgres implements the store interfaces on PostgreSQL through
// database/sql and the pgx stdlib driver. Each review write runs in a single
// transaction guarded by the item's version column.
package postgres
