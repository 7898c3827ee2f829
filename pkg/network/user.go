package network

import (
	"sort"
	"sync"
)

// LanguageLength is the required length of a user's language code
// (two-letter ISO 639).
const LanguageLength = 2

// User is one SocialGossip account. Accounts are created by
// registration and never deleted for the process lifetime.
//
// The friend set is guarded by the owning Registry's lock (friendship
// is a two-user mutation and must stay symmetric); everything else
// mutable is guarded by the user's own mutex.
type User struct {
	nickname     string
	passwordHash []byte
	language     string

	mu      sync.Mutex
	online  bool
	channel PushChannel
	rooms   map[string]struct{}

	friends map[string]struct{} // guarded by Registry.mu
}

func newUser(nickname string, passwordHash []byte, language string) *User {
	return &User{
		nickname:     nickname,
		passwordHash: passwordHash,
		language:     language,
		rooms:        make(map[string]struct{}),
		friends:      make(map[string]struct{}),
	}
}

// Nickname returns the user's unique, case-sensitive identity.
func (u *User) Nickname() string { return u.nickname }

// Language returns the user's two-letter language code, or "" if unset.
func (u *User) Language() string { return u.language }

// Online reports whether the user is currently logged in.
func (u *User) Online() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.online
}

// Channel returns the user's bound push channel, or nil.
func (u *User) Channel() PushChannel {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.channel
}

// BindChannel installs ch as the user's push channel. At most one
// channel is bound at a time; a previous channel is closed first.
func (u *User) BindChannel(ch PushChannel) {
	u.mu.Lock()
	prev := u.channel
	u.channel = ch
	u.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
}

// ClearChannel removes ch if it is still the bound channel and closes
// it. Passing nil clears unconditionally. Used on logout and when a
// push fails against a dead connection.
func (u *User) ClearChannel(ch PushChannel) {
	u.mu.Lock()
	cur := u.channel
	if ch != nil && cur != ch {
		u.mu.Unlock()
		return
	}
	u.channel = nil
	u.mu.Unlock()

	if cur != nil {
		cur.Close()
	}
}

// JoinRoom records room membership in the user's joined-room set.
func (u *User) JoinRoom(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.rooms[name] = struct{}{}
}

// LeaveRoom removes room membership.
func (u *User) LeaveRoom(name string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.rooms, name)
}

// InRoom reports whether the user is subscribed to the named room.
func (u *User) InRoom(name string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.rooms[name]
	return ok
}

// Rooms returns a sorted snapshot of the user's joined-room names.
func (u *User) Rooms() []string {
	u.mu.Lock()
	names := make([]string, 0, len(u.rooms))
	for name := range u.rooms {
		names = append(names, name)
	}
	u.mu.Unlock()

	sort.Strings(names)
	return names
}

// setOnline flips the online flag, enforcing the single-session
// invariant: going online while online (or offline while offline) is
// ErrInvalidStatus.
func (u *User) setOnline(online bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.online == online {
		return ErrInvalidStatus
	}
	u.online = online
	return nil
}
