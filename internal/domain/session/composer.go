package session

import (
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
	"github.com/phrazzld/scry-scheduler/internal/domain/srs"
)

// Options controls the intake mode of Composer.Compose.
type Options struct {
	MaxTerms           int
	IncludeNewTerms    bool
	PrioritizeDueTerms bool
}

// BlendOptions controls Composer.Blend. When TimeBudget is zero it is derived
// from MaxTerms and the per-item time; when MaxTerms is zero it is derived
// from TimeBudget.
type BlendOptions struct {
	MaxTerms   int
	TimeBudget time.Duration
}

// Composer builds session plans. It is safe for concurrent use.
type Composer struct {
	params   *srs.Params
	resolver *Resolver

	mu  sync.Mutex
	rng *rand.Rand
}

// NewComposer creates a Composer with a randomly seeded generator.
func NewComposer(params *srs.Params, resolver *Resolver) *Composer {
	return NewSeededComposer(params, resolver, rand.Uint64())
}

// NewSeededComposer creates a Composer whose shuffles are reproducible.
func NewSeededComposer(params *srs.Params, resolver *Resolver, seed uint64) *Composer {
	if resolver == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("resolver cannot be nil")
	}
	if params == nil {
		params = srs.NewDefaultParams()
	}
	return &Composer{
		params:   params,
		resolver: resolver,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// due ranks used by the intake sort
const (
	rankNew = iota
	rankDue
	rankNotDue
)

// Compose builds the session intake set from all of a user's items.
//
// Algorithm:
//  1. Drop never-reviewed items unless IncludeNewTerms is set.
//  2. With PrioritizeDueTerms and IncludeNewTerms, order new items before due reviewed items before
//     items that are not yet due, weaker items first within each group.
//     Otherwise the input order is kept.
//  3. Truncate to MaxTerms.
//
// Fewer eligible items than MaxTerms yields all of them; no padding or repeats.
func (c *Composer) Compose(items []*domain.MemoryItem, opts Options, now time.Time) Plan {
	if opts.MaxTerms <= 0 {
		return Plan{}
	}

	eligible := make([]*domain.MemoryItem, 0, len(items))
	for _, item := range dedupe(items, nil) {
		if item.IsNew() && !opts.IncludeNewTerms {
			continue
		}
		eligible = append(eligible, item)
	}

	if opts.PrioritizeDueTerms && opts.IncludeNewTerms {
		ranks := make(map[uuid.UUID]int, len(eligible))
		for _, item := range eligible {
			ranks[item.ID] = c.rank(item, now)
		}
		sort.SliceStable(eligible, func(i, j int) bool {
			ri, rj := ranks[eligible[i].ID], ranks[eligible[j].ID]
			if ri != rj {
				return ri < rj
			}
			return eligible[i].Strength < eligible[j].Strength
		})
	}

	if len(eligible) > opts.MaxTerms {
		eligible = eligible[:opts.MaxTerms]
	}

	return Plan{Items: eligible}
}

func (c *Composer) rank(item *domain.MemoryItem, now time.Time) int {
	switch {
	case item.IsNew():
		return rankNew
	case c.resolver.IsDue(item, now):
		return rankDue
	default:
		return rankNotDue
	}
}

// Blend mixes a new pool and a review pool under the new:review time budget.
//
// The budget is split NewItemShare / (1-NewItemShare) and each share is turned
// back into an item count with ceil(share / TimePerItem), bounded by the pool
// size. Counts never exceed MaxTerms in total. Budget a pool cannot use is
// dropped rather than handed to the other pool, so a short pool shortens the
// session instead of skewing the new:review ratio. New items are taken in the given order, review items by
// weighted sampling, and the result is shuffled so the two kinds interleave.
func (c *Composer) Blend(newPool, reviewPool []*domain.MemoryItem, opts BlendOptions) Plan {
	seen := make(map[uuid.UUID]struct{}, len(newPool)+len(reviewPool))
	newPool = dedupe(newPool, seen)
	reviewPool = dedupe(reviewPool, seen)

	maxTerms, budget := c.resolveBudget(opts)
	if maxTerms <= 0 || (len(newPool) == 0 && len(reviewPool) == 0) {
		return Plan{}
	}

	newBudget := time.Duration(float64(budget) * c.params.NewItemShare)
	reviewBudget := budget - newBudget

	newCount := min(c.itemsFor(newBudget), len(newPool), maxTerms)
	reviewCount := min(c.itemsFor(reviewBudget), len(reviewPool), maxTerms-newCount)

	planned := make([]*domain.MemoryItem, 0, newCount+reviewCount)
	planned = append(planned, newPool[:newCount]...)
	planned = append(planned, c.SampleReview(reviewPool, reviewCount)...)

	c.mu.Lock()
	c.rng.Shuffle(len(planned), func(i, j int) {
		planned[i], planned[j] = planned[j], planned[i]
	})
	c.mu.Unlock()

	return Plan{Items: planned}
}

func (c *Composer) resolveBudget(opts BlendOptions) (int, time.Duration) {
	maxTerms, budget := opts.MaxTerms, opts.TimeBudget
	switch {
	case budget <= 0 && maxTerms > 0:
		budget = time.Duration(maxTerms) * c.params.TimePerItem
	case maxTerms <= 0 && budget > 0:
		maxTerms = c.itemsFor(budget)
	}
	return maxTerms, budget
}

// itemsFor converts a time budget into an item count, rounding up.
func (c *Composer) itemsFor(budget time.Duration) int {
	if budget <= 0 {
		return 0
	}
	unit := c.params.TimePerItem
	return int((budget + unit - 1) / unit)
}

// SampleWeight is the sampling weight of a review candidate: wrongCount+1,
// capped at MaxSampleWeight.
func (c *Composer) SampleWeight(item *domain.MemoryItem) int {
	return max(1, min(item.WrongCount+1, c.params.MaxSampleWeight))
}

// SampleReview draws up to n distinct items from pool, weighted by SampleWeight.
//
// Each candidate is replicated weight times into a working multiset, the
// multiset is shuffled uniformly, and the first n distinct ids in the shuffled
// order are taken. Memory is O(total weight), bounded by pool size times
// MaxSampleWeight.
func (c *Composer) SampleReview(pool []*domain.MemoryItem, n int) []*domain.MemoryItem {
	pool = dedupe(pool, nil)
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	n = min(n, len(pool))

	multiset := make([]int, 0, len(pool))
	for i, item := range pool {
		for w := c.SampleWeight(item); w > 0; w-- {
			multiset = append(multiset, i)
		}
	}

	c.mu.Lock()
	c.rng.Shuffle(len(multiset), func(i, j int) {
		multiset[i], multiset[j] = multiset[j], multiset[i]
	})
	c.mu.Unlock()

	taken := make([]bool, len(pool))
	sampled := make([]*domain.MemoryItem, 0, n)
	for _, idx := range multiset {
		if taken[idx] {
			continue
		}
		taken[idx] = true
		sampled = append(sampled, pool[idx])
		if len(sampled) == n {
			break
		}
	}
	return sampled
}
