package chatroom

import (
	"fmt"
	"log"
	"net"
	"strings"
	"sync"

	"github.com/GTX96/SocialGossip/pkg/netutil"
	"github.com/GTX96/SocialGossip/pkg/network"
	"github.com/GTX96/SocialGossip/pkg/protocol"
)

// Registry is the set of active rooms. Create, join and close all run
// under its single lock, so room transitions are mutually exclusive
// and no caller ever observes a half-updated room.
//
// Lock order: registry lock → room lock → network registry lock.
// Never the reverse.
type Registry struct {
	users *network.Registry
	base  net.IP

	mu    sync.Mutex
	rooms []*Room // insertion order drives multicast address allocation
}

// NewRegistry returns a room registry allocating multicast group
// addresses upward from baseAddr (an IPv4 multicast address whose last
// octet is the first offset).
func NewRegistry(baseAddr string, users *network.Registry) (*Registry, error) {
	base := net.ParseIP(baseAddr)
	if base == nil || base.To4() == nil || !base.IsMulticast() {
		return nil, fmt.Errorf("invalid multicast base address %q", baseAddr)
	}

	return &Registry{
		users: users,
		base:  base.To4(),
	}, nil
}

// nextGroupAddr derives the multicast address for the next room:
// the base address with its last octet increased by the current room
// count. ErrAddressSpace once the octet would overflow.
func (r *Registry) nextGroupAddr() (net.IP, error) {
	offset := int(r.base[3]) + len(r.rooms)
	if offset >= 256 {
		return nil, ErrAddressSpace
	}

	ip := make(net.IP, 4)
	copy(ip, r.base)
	ip[3] = byte(offset)
	return ip, nil
}

func (r *Registry) findLocked(name string) (*Room, bool) {
	for _, room := range r.rooms {
		if strings.EqualFold(room.name, name) {
			return room, true
		}
	}
	return nil, false
}

// Lookup resolves an active room by name (case-insensitive).
func (r *Registry) Lookup(name string) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findLocked(name)
}

// Count returns the number of active rooms.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// Snapshot returns the wire description of every active room.
func (r *Registry) Snapshot() []protocol.ChatRoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]protocol.ChatRoomInfo, 0, len(r.rooms))
	for _, room := range r.rooms {
		infos = append(infos, *room.Info())
	}
	return infos
}

// Create registers a new room with the requester as subscriber 0 (the
// admin), starts its relay dispatcher, and broadcasts the new room to
// every online user. ErrAlreadyRegistered if the name is taken,
// ErrAddressSpace when no multicast address is left.
func (r *Registry) Create(name string, requester *network.User) (*Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.findLocked(name); exists {
		return nil, ErrAlreadyRegistered
	}

	ip, err := r.nextGroupAddr()
	if err != nil {
		return nil, err
	}

	port, err := netutil.FreeUDPPort()
	if err != nil {
		return nil, err
	}
	group := &net.UDPAddr{IP: ip, Port: port}

	dispatcher, err := NewDispatcher(group)
	if err != nil {
		return nil, err
	}

	room := newRoom(name, group, dispatcher)
	if err := room.addSubscriber(requester); err != nil {
		dispatcher.Stop() // unreachable in practice, but never leak the sockets
		return nil, err
	}
	requester.JoinRoom(room.name)

	go dispatcher.Run()
	r.rooms = append(r.rooms, room)

	log.Printf("Room %q created by %s (group %s, relay %s)",
		name, requester.Nickname(), group, room.RelayAddr())

	r.broadcast(protocol.NotifyNewChatRoom, room.Info())
	return room, nil
}

// Join appends the requester to the room's subscriber list and
// broadcasts the updated room. ErrNotFound or ErrAlreadySubscribed.
func (r *Registry) Join(name string, requester *network.User) (*Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.findLocked(name)
	if !ok {
		return nil, ErrNotFound
	}

	if err := room.addSubscriber(requester); err != nil {
		return nil, err
	}
	requester.JoinRoom(room.name)

	log.Printf("Room %q joined by %s (%d subscribers)",
		room.name, requester.Nickname(), room.NumSubscribers())

	r.broadcast(protocol.NotifyUpdatedChatRoom, room.Info())
	return room, nil
}

// Close tears a room down: only subscriber 0 may close it. The closure
// sentinel is published to the multicast group, the dispatcher is
// stopped and awaited, membership is removed from every subscriber,
// the room leaves the registry, and the removal is broadcast. The
// whole sequence runs under the registry lock.
func (r *Registry) Close(name string, requester *network.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.findLocked(name)
	if !ok {
		return ErrNotFound
	}

	if room.Admin() != requester {
		return ErrNotPermitted
	}

	info := room.Info()

	if err := room.dispatcher.SendToGroup([]byte(protocol.RoomClosedSentinel)); err != nil {
		log.Printf("Room %q: send close sentinel: %v", room.name, err)
	}
	room.dispatcher.Stop()

	for _, sub := range room.Subscribers() {
		sub.LeaveRoom(room.name)
	}

	for i, active := range r.rooms {
		if active == room {
			r.rooms = append(r.rooms[:i], r.rooms[i+1:]...)
			break
		}
	}

	log.Printf("Room %q closed by %s", room.name, requester.Nickname())

	r.broadcast(protocol.NotifyRemovedChatRoom, info)
	return nil
}

// CloseAll stops every dispatcher. Server shutdown only; no events are
// broadcast and membership is left as-is.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, room := range r.rooms {
		room.dispatcher.Stop()
	}
	r.rooms = nil
}

// broadcast delivers a structural room event to every online user with
// a bound push channel. Runs while holding the registry lock (and,
// inside ForEach, the network registry read lock) so no concurrently
// added user is missed. A failed push means a dead channel; the
// capability is cleared so later sends do not keep hitting it.
func (r *Registry) broadcast(kind string, info *protocol.ChatRoomInfo) {
	r.users.ForEach(func(u *network.User) {
		ch := u.Channel()
		if ch == nil {
			return
		}
		if err := ch.NotifyRoomEvent(kind, info); err != nil {
			log.Printf("Room event %s to %s failed: %v", kind, u.Nickname(), err)
			u.ClearChannel(ch)
		}
	})
}
