// Package chatroom implements ephemeral group chat rooms whose message
// traffic is relayed over UDP multicast: the room entity, the registry
// orchestrating create/join/close, and the per-room relay dispatcher.
package chatroom

import (
	"errors"
	"net"
	"sync"

	"github.com/GTX96/SocialGossip/pkg/network"
	"github.com/GTX96/SocialGossip/pkg/protocol"
)

var (
	// ErrAlreadyRegistered is returned when a room name (case-insensitive)
	// is already in use.
	ErrAlreadyRegistered = errors.New("chatroom already registered")
	// ErrNotFound is returned when no active room has the given name.
	ErrNotFound = errors.New("chatroom not found")
	// ErrAlreadySubscribed is returned when a joining user is already a
	// subscriber of the room.
	ErrAlreadySubscribed = errors.New("user already subscribed")
	// ErrAddressSpace is returned when the multicast address space for
	// new rooms is exhausted.
	ErrAddressSpace = errors.New("multicast address space exhausted")
	// ErrNotPermitted is returned when a non-admin attempts an
	// admin-only operation.
	ErrNotPermitted = errors.New("operation not permitted")
)

// Room is a named group with a multicast address, an ordered subscriber
// list (index 0 is the admin), and a running relay dispatcher. A room
// has at least one subscriber for its entire lifetime.
type Room struct {
	name       string
	group      *net.UDPAddr
	dispatcher *Dispatcher

	mu          sync.RWMutex
	subscribers []*network.User
}

func newRoom(name string, group *net.UDPAddr, dispatcher *Dispatcher) *Room {
	return &Room{
		name:       name,
		group:      group,
		dispatcher: dispatcher,
	}
}

// Name returns the room's unique name.
func (r *Room) Name() string { return r.name }

// GroupAddr returns the room's multicast group address.
func (r *Room) GroupAddr() *net.UDPAddr { return r.group }

// RelayAddr returns the address of the room's relay listener, where
// clients send their datagrams for redistribution.
func (r *Room) RelayAddr() *net.UDPAddr { return r.dispatcher.RelayAddr() }

// Admin returns subscriber 0, the room's admin.
func (r *Room) Admin() *network.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.subscribers[0]
}

// NumSubscribers returns the current subscriber count.
func (r *Room) NumSubscribers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subscribers)
}

// Subscribers returns a snapshot of the subscriber list in insertion order.
func (r *Room) Subscribers() []*network.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := make([]*network.User, len(r.subscribers))
	copy(subs, r.subscribers)
	return subs
}

// addSubscriber appends a user, failing if already present.
func (r *Room) addSubscriber(u *network.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sub := range r.subscribers {
		if sub == u {
			return ErrAlreadySubscribed
		}
	}
	r.subscribers = append(r.subscribers, u)
	return nil
}

// Info builds the wire description of the room.
func (r *Room) Info() *protocol.ChatRoomInfo {
	relay := r.RelayAddr()

	r.mu.RLock()
	subs := make([]string, len(r.subscribers))
	for i, sub := range r.subscribers {
		subs[i] = sub.Nickname()
	}
	r.mu.RUnlock()

	return &protocol.ChatRoomInfo{
		Name:             r.name,
		MulticastAddress: r.group.IP.String(),
		MulticastPort:    r.group.Port,
		MessageAddress:   relay.IP.String(),
		MessagePort:      relay.Port,
		Subscribers:      subs,
	}
}
