// Package logger sets up the JSON slog handler of the scheduler and carries
// request-scoped loggers, tagged with the request id, through context.
package logger
