package social

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/civic-sim/internal/entropy"
)

func TestRegistry_CreateAndAddChild(t *testing.T) {
	r := NewRegistry(entropy.New(1))
	f := r.Create("a", "b", "Farmer", "Nurse", 12)

	require.NotNil(t, r.Get(f.ID))
	assert.Equal(t, [2]string{"a", "b"}, f.ParentIDs)
	assert.Equal(t, "Farmer & Nurse household", f.Name)
	assert.Equal(t, 2, f.Size())

	assert.True(t, r.AddChild(f.ID, "c"))
	assert.Equal(t, 3, f.Size())
	assert.False(t, r.AddChild("missing", "c"))
}

func TestRegistry_SameSeedSameIDs(t *testing.T) {
	a := NewRegistry(entropy.New(4)).Create("a", "b", "x", "y", 0)
	b := NewRegistry(entropy.New(4)).Create("a", "b", "x", "y", 0)
	assert.Equal(t, a.ID, b.ID)
}

func TestRegistry_Prune(t *testing.T) {
	r := NewRegistry(entropy.New(2))
	r.Create("a", "b", "x", "y", 0)
	keep := r.Create("c", "d", "x", "y", 0)
	r.Create("e", "f", "x", "y", 0)

	alive := map[string]bool{"c": true}
	removed := r.Prune(func(id string) bool { return alive[id] })

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, r.Len())
	require.Len(t, r.All(), 1)
	assert.Equal(t, keep.ID, r.All()[0].ID)
}
