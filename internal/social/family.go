// Package social provides the family registry: households created on
// marriage and grown by childbirth.
package social

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/talgya/civic-sim/internal/entropy"
)

// Family is a married couple and their children.
type Family struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ParentIDs [2]string `json:"parent_ids"`
	ChildIDs  []string  `json:"child_ids"`
	CreatedAt uint64    `json:"created_at"` // Tick
}

// Size counts parents plus children.
func (f *Family) Size() int { return 2 + len(f.ChildIDs) }

// Registry tracks every family. It is not safe for concurrent use.
type Registry struct {
	rng      entropy.Source
	families map[string]*Family
	order    []string
}

// NewRegistry creates an empty registry whose ids are drawn from src.
func NewRegistry(src entropy.Source) *Registry {
	return &Registry{rng: src, families: make(map[string]*Family)}
}

// Create registers a new family for two spouses. Name is built from the
// parents' occupations.
func (r *Registry) Create(parentA, parentB, jobA, jobB string, tick uint64) *Family {
	id, err := uuid.NewRandomFromReader(entropy.Reader{Src: r.rng})
	if err != nil {
		id = uuid.New()
	}
	f := &Family{
		ID:        id.String(),
		Name:      fmt.Sprintf("%s & %s household", jobA, jobB),
		ParentIDs: [2]string{parentA, parentB},
		CreatedAt: tick,
	}
	r.families[f.ID] = f
	r.order = append(r.order, f.ID)
	return f
}

// Get returns a family or nil.
func (r *Registry) Get(id string) *Family {
	return r.families[id]
}

// AddChild appends a child to a family. Unknown families are a no-op.
func (r *Registry) AddChild(familyID, childID string) bool {
	f := r.families[familyID]
	if f == nil {
		return false
	}
	f.ChildIDs = append(f.ChildIDs, childID)
	return true
}

// Prune drops families whose parents are both gone and returns how many
// were removed.
func (r *Registry) Prune(alive func(id string) bool) int {
	kept := r.order[:0]
	removed := 0
	for _, id := range r.order {
		f := r.families[id]
		if !alive(f.ParentIDs[0]) && !alive(f.ParentIDs[1]) {
			delete(r.families, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
	return removed
}

// Len is the number of families.
func (r *Registry) Len() int { return len(r.families) }

// All returns the families in creation order.
func (r *Registry) All() []*Family {
	out := make([]*Family, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.families[id])
	}
	return out
}
