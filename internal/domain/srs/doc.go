// Package srs implements the retention model of the scheduler: the latency
// based performance score, the 0-5 strength transition and the interval table
// that turns a strength into the next due date. All date arithmetic goes
// through a Clock fixed to one reference timezone.
package srs
