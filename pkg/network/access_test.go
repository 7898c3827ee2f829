package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	users := NewRegistry()
	access := NewAccessSession(users)

	require.NoError(t, access.Register("alice", "s3cret", "it"))

	// New accounts start offline
	alice, ok := users.Lookup("alice")
	require.True(t, ok)
	assert.False(t, alice.Online())
	assert.Equal(t, "it", alice.Language())

	friends, err := access.Login("alice", "s3cret")
	require.NoError(t, err)
	assert.Empty(t, friends)
	assert.True(t, alice.Online())
}

func TestRegisterValidation(t *testing.T) {
	access := NewAccessSession(NewRegistry())

	require.NoError(t, access.Register("alice", "pw", "it"))

	assert.ErrorIs(t, access.Register("alice", "other", "en"), ErrAlreadyRegistered)
	assert.ErrorIs(t, access.Register("bob", "pw", "ita"), ErrInvalidLanguage)
	assert.ErrorIs(t, access.Register("bob", "pw", "x"), ErrInvalidLanguage)

	// Empty language means unset and is accepted
	assert.NoError(t, access.Register("carol", "pw", ""))
}

func TestLoginFailures(t *testing.T) {
	access := NewAccessSession(NewRegistry())
	require.NoError(t, access.Register("alice", "s3cret", "it"))

	_, err := access.Login("ghost", "whatever")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = access.Login("alice", "wrong")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	// Passwords never round-trip in clear
	_, err = access.Login("alice", "")
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	_, err = access.Login("alice", "s3cret")
	require.NoError(t, err)

	// Second concurrent session is rejected
	_, err = access.Login("alice", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestLoginReportsFriendPresence(t *testing.T) {
	users := NewRegistry()
	access := NewAccessSession(users)
	require.NoError(t, access.Register("alice", "pw", "it"))
	require.NoError(t, access.Register("bob", "pw", "en"))

	_, err := users.RequestFriendship("alice", "bob")
	require.NoError(t, err)

	_, err = access.Login("bob", "pw")
	require.NoError(t, err)

	friends, err := access.Login("alice", "pw")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "bob", friends[0].Nickname)
	assert.True(t, friends[0].Online)
}

func TestLogout(t *testing.T) {
	users := NewRegistry()
	access := NewAccessSession(users)
	require.NoError(t, access.Register("alice", "pw", "it"))

	// Logout while offline is an invalid transition
	assert.ErrorIs(t, access.Logout("alice"), ErrInvalidStatus)
	assert.ErrorIs(t, access.Logout("ghost"), ErrUserNotFound)

	_, err := access.Login("alice", "pw")
	require.NoError(t, err)

	alice, _ := users.Lookup("alice")
	ch := &recordingChannel{}
	alice.BindChannel(ch)

	require.NoError(t, access.Logout("alice"))
	assert.False(t, alice.Online())

	// Logout tears down the notification channel
	assert.Nil(t, alice.Channel())
	assert.True(t, ch.wasClosed())

	// Login works again after logout
	_, err = access.Login("alice", "pw")
	assert.NoError(t, err)
}
