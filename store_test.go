package eventrouter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type levelUp struct {
	Level int
}

type levelDown struct {
	Level int
}

func TestRegistryForCreatesOncePerType(t *testing.T) {
	s := NewStore()

	up := RegistryFor[levelUp](s)
	require.NotNil(t, up)
	assert.Same(t, up, RegistryFor[levelUp](s))

	down := RegistryFor[levelDown](s)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "eventrouter.levelDown", down.Type().String())
}

func TestLookupDoesNotCreate(t *testing.T) {
	s := NewStore()

	_, ok := Lookup[levelUp](s)
	assert.False(t, ok)
	assert.Zero(t, s.Len())

	created := RegistryFor[levelUp](s)
	got, ok := Lookup[levelUp](s)
	require.True(t, ok)
	assert.Same(t, created, got)
}

func TestPointerAndValueTypesAreDistinct(t *testing.T) {
	s := NewStore()
	RegistryFor[levelUp](s)
	RegistryFor[*levelUp](s)

	assert.Equal(t, []string{"*eventrouter.levelUp", "eventrouter.levelUp"}, s.Types())
}

func TestStoresAreIndependent(t *testing.T) {
	a, b := NewStore(), NewStore()
	RegistryFor[levelUp](a).AddCallback(func(levelUp) {})

	assert.Equal(t, 1, RegistryFor[levelUp](a).Len())
	assert.Equal(t, 0, RegistryFor[levelUp](b).Len())
}

func TestStoreReset(t *testing.T) {
	s := NewStore()
	old := RegistryFor[levelUp](s)
	old.AddCallback(func(levelUp) {})

	s.Reset()

	assert.Zero(t, s.Len())
	fresh := RegistryFor[levelUp](s)
	assert.NotSame(t, old, fresh)
	assert.Zero(t, fresh.Len())
}
