package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type fakeConn struct {
	id string
}

func (f *fakeConn) WriteText([]byte) error  { return nil }
func (f *fakeConn) Close(int, string) error { return nil }

func TestMemory_RegisterAndLookup(t *testing.T) {
	m := NewMemory()
	conn := &fakeConn{id: "a"}

	prev := m.Register("u1", conn)
	assert.Nil(t, prev)

	got, ok := m.Lookup("u1")
	require.True(t, ok)
	assert.Same(t, conn, got)
}

func TestMemory_RegisterReturnsDisplaced(t *testing.T) {
	m := NewMemory()
	first := &fakeConn{id: "a"}
	second := &fakeConn{id: "b"}

	m.Register("u1", first)
	prev := m.Register("u1", second)
	assert.Same(t, first, prev)

	got, ok := m.Lookup("u1")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestMemory_DeregisterRemovesCurrent(t *testing.T) {
	m := NewMemory()
	conn := &fakeConn{id: "a"}

	m.Register("u1", conn)
	assert.True(t, m.Deregister("u1", conn))

	_, ok := m.Lookup("u1")
	assert.False(t, ok)
	assert.Zero(t, m.Count())
}

func TestMemory_StaleDeregisterIsNoOp(t *testing.T) {
	m := NewMemory()
	old := &fakeConn{id: "old"}
	current := &fakeConn{id: "new"}

	m.Register("u1", old)
	m.Register("u1", current)

	// The superseded connection's delayed close callback must not evict
	// the newer session.
	assert.False(t, m.Deregister("u1", old))

	got, ok := m.Lookup("u1")
	require.True(t, ok)
	assert.Same(t, current, got)
}

func TestMemory_DeregisterUnknownUser(t *testing.T) {
	m := NewMemory()
	assert.False(t, m.Deregister("nobody", &fakeConn{}))
}

func TestMemory_LookupMiss(t *testing.T) {
	m := NewMemory()
	conn, ok := m.Lookup("nobody")
	assert.False(t, ok)
	assert.Nil(t, conn)
}

// Lookup always reflects the most recent Register, no matter how
// register, stale deregister, and current deregister calls interleave.
func TestMemory_LookupTracksLatestRegister(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := NewMemory()
		users := []string{"u1", "u2", "u3"}
		latest := make(map[string]*fakeConn)
		stale := make(map[string][]*fakeConn)

		steps := rapid.IntRange(1, 50).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			user := rapid.SampledFrom(users).Draw(t, "user")
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0: // new connection
				conn := &fakeConn{}
				if prev := m.Register(user, conn); prev != nil {
					stale[user] = append(stale[user], prev.(*fakeConn))
				}
				latest[user] = conn
			case 1: // stale close callback from a superseded connection
				if len(stale[user]) > 0 {
					old := stale[user][0]
					stale[user] = stale[user][1:]
					removed := m.Deregister(user, old)
					// A stale socket can never displace the current one.
					if latest[user] != old {
						if removed {
							t.Fatalf("stale deregister evicted live session for %s", user)
						}
					}
				}
			case 2: // current connection closes
				if cur := latest[user]; cur != nil {
					m.Deregister(user, cur)
					delete(latest, user)
				}
			}

			for _, u := range users {
				got, ok := m.Lookup(u)
				want := latest[u]
				if want == nil {
					if ok {
						t.Fatalf("expected no session for %s, found one", u)
					}
				} else if !ok || got != want {
					t.Fatalf("lookup(%s) does not reflect latest register", u)
				}
			}
		}
	})
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	m := NewMemory()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := &fakeConn{}
			for j := 0; j < 100; j++ {
				m.Register("shared", conn)
				m.Lookup("shared")
				m.Deregister("shared", conn)
			}
		}()
	}
	wg.Wait()
}
