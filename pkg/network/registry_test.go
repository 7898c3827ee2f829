package network

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTX96/SocialGossip/pkg/protocol"
)

func addTestUser(t *testing.T, r *Registry, nickname string) *User {
	t.Helper()
	u := newUser(nickname, []byte("hash"), "en")
	require.NoError(t, r.add(u))
	return u
}

func TestRegistryAddAndLookup(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Count())

	alice := addTestUser(t, r, "alice")
	assert.Equal(t, 1, r.Count())

	got, ok := r.Lookup("alice")
	require.True(t, ok)
	assert.Same(t, alice, got)

	// Nicknames are case-sensitive
	_, ok = r.Lookup("Alice")
	assert.False(t, ok)

	err := r.add(newUser("alice", []byte("other"), "it"))
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Equal(t, 1, r.Count())
}

func TestRequestFriendship(t *testing.T) {
	r := NewRegistry()
	addTestUser(t, r, "alice")
	addTestUser(t, r, "bob")

	created, err := r.RequestFriendship("alice", "bob")
	require.NoError(t, err)
	assert.True(t, created)

	// Symmetric in both directions
	assert.True(t, r.AreFriends("alice", "bob"))
	assert.True(t, r.AreFriends("bob", "alice"))

	// Idempotent: second request reports existing edge, no error
	created, err = r.RequestFriendship("bob", "alice")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRequestFriendshipErrors(t *testing.T) {
	r := NewRegistry()
	addTestUser(t, r, "alice")

	_, err := r.RequestFriendship("alice", "alice")
	assert.ErrorIs(t, err, ErrSameUser)

	_, err = r.RequestFriendship("alice", "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = r.RequestFriendship("ghost", "alice")
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.False(t, r.AreFriends("alice", "ghost"))
}

func TestFriendsSnapshot(t *testing.T) {
	r := NewRegistry()
	addTestUser(t, r, "alice")
	bob := addTestUser(t, r, "bob")
	addTestUser(t, r, "carol")

	_, err := r.RequestFriendship("alice", "carol")
	require.NoError(t, err)
	_, err = r.RequestFriendship("alice", "bob")
	require.NoError(t, err)

	require.NoError(t, bob.setOnline(true))

	friends, err := r.Friends("alice")
	require.NoError(t, err)

	// Sorted by nickname, online status reflects current state
	require.Len(t, friends, 2)
	assert.Equal(t, "bob", friends[0].Nickname)
	assert.True(t, friends[0].Online)
	assert.Equal(t, "carol", friends[1].Nickname)
	assert.False(t, friends[1].Online)

	_, err = r.Friends("ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestConcurrentFriendshipRequests(t *testing.T) {
	r := NewRegistry()
	addTestUser(t, r, "alice")
	addTestUser(t, r, "bob")

	const attempts = 32
	createdCount := make(chan bool, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := "alice", "bob"
			if i%2 == 0 {
				a, b = b, a
			}
			created, err := r.RequestFriendship(a, b)
			if err != nil {
				t.Errorf("RequestFriendship: %v", err)
				return
			}
			createdCount <- created
		}(i)
	}
	wg.Wait()
	close(createdCount)

	// Exactly one request observes creation
	var wins int
	for created := range createdCount {
		if created {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
	assert.True(t, r.AreFriends("alice", "bob"))
}

func TestUserSingleSession(t *testing.T) {
	u := newUser("alice", []byte("hash"), "en")
	assert.False(t, u.Online())

	require.NoError(t, u.setOnline(true))
	assert.True(t, u.Online())

	// Second login while online is rejected
	assert.ErrorIs(t, u.setOnline(true), ErrInvalidStatus)
	assert.True(t, u.Online())

	require.NoError(t, u.setOnline(false))
	assert.ErrorIs(t, u.setOnline(false), ErrInvalidStatus)
}

func TestUserRooms(t *testing.T) {
	u := newUser("alice", []byte("hash"), "en")
	assert.Empty(t, u.Rooms())

	u.JoinRoom("zeta")
	u.JoinRoom("alpha")
	assert.True(t, u.InRoom("zeta"))
	assert.Equal(t, []string{"alpha", "zeta"}, u.Rooms())

	u.LeaveRoom("zeta")
	assert.False(t, u.InRoom("zeta"))
	assert.Equal(t, []string{"alpha"}, u.Rooms())
}

// recordingChannel is a PushChannel stub that records lifecycle calls.
type recordingChannel struct {
	mu     sync.Mutex
	closed bool
}

func (c *recordingChannel) PushChatMessage(sender, text string) error { return nil }
func (c *recordingChannel) OfferFile(sender, filename string) (string, error) {
	return "", nil
}
func (c *recordingChannel) NotifyRoomEvent(kind string, room *protocol.ChatRoomInfo) error {
	return nil
}
func (c *recordingChannel) NotifyFriendship(from string, online bool) error { return nil }
func (c *recordingChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *recordingChannel) wasClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestBindAndClearChannel(t *testing.T) {
	u := newUser("alice", []byte("hash"), "en")
	assert.Nil(t, u.Channel())

	first := &recordingChannel{}
	u.BindChannel(first)
	assert.Same(t, first, u.Channel().(*recordingChannel))

	// Rebinding closes the previous channel
	second := &recordingChannel{}
	u.BindChannel(second)
	assert.True(t, first.wasClosed())
	assert.Same(t, second, u.Channel().(*recordingChannel))

	// Clearing a stale channel is a no-op
	u.ClearChannel(first)
	assert.Same(t, second, u.Channel().(*recordingChannel))

	// Clearing the current channel closes it
	u.ClearChannel(second)
	assert.Nil(t, u.Channel())
	assert.True(t, second.wasClosed())

	// nil clears unconditionally
	third := &recordingChannel{}
	u.BindChannel(third)
	u.ClearChannel(nil)
	assert.Nil(t, u.Channel())
	assert.True(t, third.wasClosed())
}
