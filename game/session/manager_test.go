package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/castlefall/game/room"
	"github.com/wricardo/castlefall/game/wordlist"
)

func newTestManager() *Manager {
	catalog := wordlist.New(map[string][]string{"basic": {"a", "b", "c", "d"}})
	return NewManager(catalog, room.DefaultOptions())
}

func TestRoomIsCreatedLazily(t *testing.T) {
	m := newTestManager()

	_, err := m.Get("#lobby")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Equal(t, 0, m.Count())

	r := m.Room("#lobby")
	require.NotNil(t, r)
	assert.Same(t, r, m.Room("#lobby"))

	got, err := m.Get("#lobby")
	require.NoError(t, err)
	assert.Same(t, r, got)
	assert.True(t, got.Autokick())
}

func TestList(t *testing.T) {
	m := newTestManager()
	m.Room("zeta")
	m.Room("alpha")
	m.Room("Mid")

	var names []string
	for _, r := range m.List() {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{"Mid", "alpha", "zeta"}, names)
	assert.Equal(t, 3, m.Count())
}

func TestBindUnbind(t *testing.T) {
	m := newTestManager()

	_, had := m.Bind("c1", "r", "A")
	assert.False(t, had)
	assert.Equal(t, 1, m.Connections())

	prev, had := m.Bind("c1", "r", "B")
	assert.True(t, had)
	assert.Equal(t, Status{Room: "r", Name: "A"}, prev)

	status, ok := m.Lookup("c1")
	require.True(t, ok)
	assert.Equal(t, Status{Room: "r", Name: "B"}, status)

	status, ok = m.Unbind("c1")
	assert.True(t, ok)
	assert.Equal(t, "B", status.Name)

	_, ok = m.Unbind("c1")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Connections())
}

func TestDrop(t *testing.T) {
	m := newTestManager()
	m.Bind("c1", "r", "A")

	assert.False(t, m.Drop("c1", Status{Room: "r", Name: "B"}))
	assert.True(t, m.Drop("c1", Status{Room: "r", Name: "A"}))

	_, ok := m.Lookup("c1")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	m := newTestManager()

	t.Run("unmapped", func(t *testing.T) {
		_, _, err := m.Resolve("ghost")
		assert.ErrorIs(t, err, ErrNotMapped)
	})

	t.Run("spectator", func(t *testing.T) {
		m.Bind("s1", "r", "")
		m.Room("r").Join("", "s1")

		_, _, err := m.Resolve("s1")
		assert.ErrorIs(t, err, ErrSpectating)
	})

	t.Run("player", func(t *testing.T) {
		m.Bind("c1", "r", "A")
		m.Room("r").Join("A", "c1")

		r, name, err := m.Resolve("c1")
		require.NoError(t, err)
		assert.Equal(t, "r", r.Name())
		assert.Equal(t, "A", name)
	})

	t.Run("kicked name is stale", func(t *testing.T) {
		m.Bind("c2", "r", "B")
		m.Room("r").Join("B", "c2")
		_, err := m.Room("r").Kick("B")
		require.NoError(t, err)

		_, _, err = m.Resolve("c2")
		assert.ErrorIs(t, err, ErrStaleName)
	})

	t.Run("name taken over by another connection is stale", func(t *testing.T) {
		m.Bind("c3", "r", "C")
		m.Room("r").Join("C", "c3")
		m.Room("r").Join("C", "c4")

		_, _, err := m.Resolve("c3")
		assert.ErrorIs(t, err, ErrStaleName)
	})
}

func TestConcurrentRoomAccess(t *testing.T) {
	m := newTestManager()

	var wg sync.WaitGroup
	rooms := make([]*room.Room, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rooms[i] = m.Room("shared")
			m.Bind(room.ConnID(fmt.Sprintf("c%d", i)), "shared", fmt.Sprintf("p%d", i))
		}(i)
	}
	wg.Wait()

	for _, r := range rooms {
		assert.Same(t, rooms[0], r)
	}
	assert.Equal(t, 1, m.Count())
	assert.Equal(t, 50, m.Connections())
}
