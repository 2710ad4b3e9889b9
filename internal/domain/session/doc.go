// Package session holds the pure, per-session parts of the scheduler: which
// items are due, how a study session is composed from due and new items, and
// the statistics folded from the reviews seen so far.
//
// Nothing here touches storage. Plans and stats live only as long as the
// session that produced them.
package session
