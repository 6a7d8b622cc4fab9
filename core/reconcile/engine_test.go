package reconcile

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestReconcile_Algebra checks current ∪ grant − revoke == desired and
// grant ∩ revoke == ∅ over random set pairs.
func TestReconcile_Algebra(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	universe := []string{"a", "b", "c", "d", "e", "f", "g"}

	randomSet := func() Set {
		s := make(Set)
		for _, item := range universe {
			if rng.Intn(2) == 0 {
				s[item] = struct{}{}
			}
		}
		return s
	}

	for i := 0; i < 500; i++ {
		current, desired := randomSet(), randomSet()
		delta := Reconcile(current, desired)

		result := make(Set)
		for item := range current {
			result[item] = struct{}{}
		}
		for _, item := range delta.ToGrant {
			result[item] = struct{}{}
		}
		for _, item := range delta.ToRevoke {
			delete(result, item)
		}
		assert.Equal(t, desired.Sorted(), result.Sorted(), "case %d", i)

		grant := NewSet(delta.ToGrant...)
		for _, item := range delta.ToRevoke {
			assert.False(t, grant.Has(item), fmt.Sprintf("%s both granted and revoked", item))
		}
	}
}

func TestReconcile_EmptyInputs(t *testing.T) {
	delta := Reconcile(nil, nil)
	assert.True(t, delta.Empty())
	assert.NotNil(t, delta.ToGrant)
	assert.NotNil(t, delta.ToRevoke)

	delta = Reconcile(NewSet("vip"), nil)
	assert.Equal(t, []string{"vip"}, delta.ToRevoke)
	assert.Empty(t, delta.ToGrant)
}

func TestDesiredGroups(t *testing.T) {
	m := Mapping{
		"r1": {"vip", "builder"},
		"r2": {"vip"},
		"r3": {"mod"},
	}

	tests := []struct {
		name   string
		linked bool
		roles  []string
		want   []string
	}{
		{"Union", true, []string{"r1", "r2"}, []string{"builder", "vip"}},
		{"UnknownRoleIgnored", true, []string{"r9", "r3"}, []string{"mod"}},
		{"NoRoles", true, nil, []string{}},
		{"Unlinked", false, []string{"r1", "r3"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DesiredGroups(tt.linked, tt.roles, m).Sorted())
		})
	}
}

func TestMapping_Managed(t *testing.T) {
	m := Mapping{"r1": {"vip", "builder"}, "r2": {"vip"}}
	assert.Equal(t, []string{"builder", "vip"}, m.Managed().Sorted())
}

func TestMapping_IgnoresCase(t *testing.T) {
	// viper hands the mapping over with lowercased role keys
	m := Mapping{"roleadmin": {"Admin"}, "r2": {"VIP", "vip"}}

	assert.Equal(t, []string{"admin"}, m.GroupsFor([]string{"RoleAdmin"}).Sorted())
	assert.Equal(t, []string{"admin", "vip"}, m.GroupsFor([]string{"ROLEADMIN", "R2"}).Sorted())
	assert.Equal(t, []string{"admin", "vip"}, m.Managed().Sorted())
}

func TestMapping_Normalized(t *testing.T) {
	m := Mapping{
		"RoleA": {"VIP", " Builder "},
		"rolea": {"vip", "mod"},
		"r2":    {},
		"":      {"ignored"},
	}
	got := m.Normalized()

	assert.ElementsMatch(t, []string{"vip", "builder", "mod"}, got["rolea"])
	assert.Equal(t, []string{}, got["r2"])
	assert.Len(t, got, 2)
	// The source is left alone
	assert.Equal(t, []string{"VIP", " Builder "}, m["RoleA"])
}
