package network

import (
	"sort"
	"sync"

	"github.com/GTX96/SocialGossip/pkg/protocol"
)

// Registry owns every known user and the friendship relation between
// them. All lookups and mutations serialize on a single registry-wide
// RWMutex; friendship edges live in both users' friend sets and are
// only touched under the write lock, which keeps the relation
// symmetric and irreflexive at every observable instant.
//
// There is no delete: accounts are permanent once registered.
type Registry struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewRegistry returns an empty user registry.
func NewRegistry() *Registry {
	return &Registry{users: make(map[string]*User)}
}

// Lookup resolves a nickname. Nicknames are case-sensitive.
func (r *Registry) Lookup(nickname string) (*User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[nickname]
	return u, ok
}

// add stores a new user, failing if the nickname is taken.
func (r *Registry) add(u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[u.nickname]; exists {
		return ErrAlreadyRegistered
	}
	r.users[u.nickname] = u
	return nil
}

// Count returns the number of registered accounts.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// ForEach invokes fn for every registered user while holding the
// registry lock, so broadcasts cannot miss a concurrently-added user.
// fn must not call back into registry mutation.
func (r *Registry) ForEach(fn func(*User)) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		fn(u)
	}
}

// RequestFriendship creates the friendship edge a↔b. It returns true
// if the edge was newly created, false (with nil error) if the two
// users were already friends. ErrSameUser if a==b, ErrUserNotFound if
// either nickname is unknown.
func (r *Registry) RequestFriendship(a, b string) (bool, error) {
	if a == b {
		return false, ErrSameUser
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ua, ok := r.users[a]
	if !ok {
		return false, ErrUserNotFound
	}
	ub, ok := r.users[b]
	if !ok {
		return false, ErrUserNotFound
	}

	if _, friends := ua.friends[b]; friends {
		return false, nil
	}

	ua.friends[b] = struct{}{}
	ub.friends[a] = struct{}{}
	return true, nil
}

// AreFriends reports whether the friendship edge a↔b exists.
func (r *Registry) AreFriends(a, b string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ua, ok := r.users[a]
	if !ok {
		return false
	}
	_, friends := ua.friends[b]
	return friends
}

// Friends returns a snapshot of the user's friends with their current
// online status, sorted by nickname.
func (r *Registry) Friends(nickname string) ([]protocol.Friend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[nickname]
	if !ok {
		return nil, ErrUserNotFound
	}

	friends := make([]protocol.Friend, 0, len(u.friends))
	for nick := range u.friends {
		friend := r.users[nick]
		friends = append(friends, protocol.Friend{
			Nickname: nick,
			Online:   friend != nil && friend.Online(),
		})
	}

	sort.Slice(friends, func(i, j int) bool {
		return friends[i].Nickname < friends[j].Nickname
	})
	return friends, nil
}
