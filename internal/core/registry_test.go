package core

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Admit(t *testing.T) {
	tests := []struct {
		name      string
		setup     []Identity
		request   Identity
		want      AdmitOutcome
		wantNames []string
	}{
		{
			name:      "new name is appended",
			setup:     []Identity{{Name: "alice", ConnID: "a"}},
			request:   Identity{Name: "bob", ConnID: "b"},
			want:      Admitted,
			wantNames: []string{"alice", "bob"},
		},
		{
			name:      "case-insensitive collision is rejected",
			setup:     []Identity{{Name: "alice", ConnID: "a"}},
			request:   Identity{Name: "ALICE", ConnID: "b"},
			want:      Rejected,
			wantNames: []string{"alice"},
		},
		{
			name:      "same name on same connection reconnects in place",
			setup:     []Identity{{Name: "alice", ConnID: "a"}, {Name: "bob", ConnID: "b"}},
			request:   Identity{Name: "Alice", ConnID: "a"},
			want:      Reconnected,
			wantNames: []string{"Alice", "bob"},
		},
		{
			name:      "new name on same connection replaces in place",
			setup:     []Identity{{Name: "alice", ConnID: "a"}, {Name: "bob", ConnID: "b"}},
			request:   Identity{Name: "carol", ConnID: "a"},
			want:      Reconnected,
			wantNames: []string{"carol", "bob"},
		},
		{
			name:      "non-ASCII case collision is rejected",
			setup:     []Identity{{Name: "Émile", ConnID: "a"}},
			request:   Identity{Name: "émile", ConnID: "b"},
			want:      Rejected,
			wantNames: []string{"Émile"},
		},
		{
			name:      "surrounding whitespace does not dodge the collision",
			setup:     []Identity{{Name: "alice", ConnID: "a"}},
			request:   Identity{Name: " alice ", ConnID: "b"},
			want:      Rejected,
			wantNames: []string{"alice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(nil)
			for _, id := range tt.setup {
				_, outcome := r.Admit(id)
				require.Equal(t, Admitted, outcome)
			}

			_, got := r.Admit(tt.request)
			assert.Equal(t, tt.want, got)

			var names []string
			for _, id := range r.Snapshot() {
				names = append(names, id.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestRegistry_RejectReturnsHolder(t *testing.T) {
	r := NewRegistry(nil)
	r.Admit(Identity{Name: "alice", ConnID: "a"})

	holder, outcome := r.Admit(Identity{Name: "alice", ConnID: "b"})
	require.Equal(t, Rejected, outcome)
	assert.Equal(t, "a", holder.ConnID)
}

func TestRegistry_ReservedAdminGetsDisplayName(t *testing.T) {
	r := NewRegistry(ReservedAdminPolicy(DefaultAdminName, DefaultAdminDisplayName))

	admin, outcome := r.Admit(Identity{Name: "ADMIN215", ConnID: "c"})
	require.Equal(t, Admitted, outcome)
	assert.Equal(t, "Admin", admin.DisplayName)
	assert.Equal(t, "Admin", admin.PresentedName())

	user, _ := r.Admit(Identity{Name: "bob", ConnID: "b"})
	assert.Empty(t, user.DisplayName)
	assert.Equal(t, "bob", user.PresentedName())
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	r := NewRegistry(nil)
	r.Admit(Identity{Name: "alice", ConnID: "a"})
	r.Admit(Identity{Name: "bob", ConnID: "b"})
	r.Admit(Identity{Name: "carol", ConnID: "c"})

	removed, ok := r.Remove("b")
	require.True(t, ok)
	assert.Equal(t, "bob", removed.Name)

	_, ok = r.Remove("b")
	assert.False(t, ok)
	_, ok = r.Remove("ghost")
	assert.False(t, ok)

	// Indexes stay consistent after removal from the middle.
	found, ok := r.Find("c")
	require.True(t, ok)
	assert.Equal(t, "carol", found.Name)

	_, outcome := r.Admit(Identity{Name: "bob", ConnID: "b2"})
	assert.Equal(t, Admitted, outcome)
	assert.Equal(t, 3, r.Len())
}

func TestRegistry_SnapshotIsACopy(t *testing.T) {
	r := NewRegistry(nil)
	r.Admit(Identity{Name: "alice", ConnID: "a"})

	snap := r.Snapshot()
	snap[0].Name = "mallory"

	found, _ := r.Find("a")
	assert.Equal(t, "alice", found.Name)
}

func TestRegistry_RandomOperationsKeepNamesUnique(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	names := []string{"alice", "Alice", "bob", "BOB", "carol", "dave"}
	r := NewRegistry(nil)

	for step := 0; step < 2000; step++ {
		conn := fmt.Sprintf("c%d", rng.IntN(8))
		if rng.IntN(3) == 0 {
			r.Remove(conn)
		} else {
			r.Admit(Identity{Name: names[rng.IntN(len(names))], ConnID: conn})
		}

		seenNames := make(map[string]bool)
		seenConns := make(map[string]bool)
		for _, id := range r.Snapshot() {
			key := strings.ToLower(id.Name)
			require.False(t, seenNames[key], "duplicate name %q at step %d", key, step)
			require.False(t, seenConns[id.ConnID], "duplicate conn %q at step %d", id.ConnID, step)
			seenNames[key] = true
			seenConns[id.ConnID] = true

			found, ok := r.Find(id.ConnID)
			require.True(t, ok)
			require.Equal(t, id, found)
		}
	}
}
