package session

import (
	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/domain"
)

// Plan is the ordered working set for one study session. It never holds the
// same item twice. An empty plan means there is nothing to study; it is not an
// error.
type Plan struct {
	Items []*domain.MemoryItem
}

// Len returns the number of planned items.
func (p Plan) Len() int { return len(p.Items) }

// Empty reports whether there is nothing to study.
func (p Plan) Empty() bool { return len(p.Items) == 0 }

// IDs returns the planned item ids in order.
func (p Plan) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(p.Items))
	for i, item := range p.Items {
		ids[i] = item.ID
	}
	return ids
}

// AdjustedSet tracks the items whose strength was already adjusted in the
// current session. It belongs to the session, not to the items.
type AdjustedSet map[uuid.UUID]struct{}

// NewAdjustedSet returns an empty set.
func NewAdjustedSet() AdjustedSet {
	return make(AdjustedSet)
}

// Has reports whether id was already adjusted. A nil set holds nothing.
func (s AdjustedSet) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// Add marks id as adjusted.
func (s AdjustedSet) Add(id uuid.UUID) {
	s[id] = struct{}{}
}

// dedupe drops nil entries and repeated ids, keeping the first occurrence.
func dedupe(items []*domain.MemoryItem, seen map[uuid.UUID]struct{}) []*domain.MemoryItem {
	if seen == nil {
		seen = make(map[uuid.UUID]struct{}, len(items))
	}
	out := make([]*domain.MemoryItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}
