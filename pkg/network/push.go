package network

import "github.com/GTX96/SocialGossip/pkg/protocol"

// PushChannel is the capability to deliver out-of-band traffic to one
// online user: asynchronous pushes (chat messages, file offers) and the
// structural events every online user observes (rooms appearing and
// disappearing, new friendships).
//
// Implementations must serialize delivery: a push and the synchronous
// file-offer round trip on the same channel never interleave.
type PushChannel interface {
	// PushChatMessage delivers a direct text message.
	PushChatMessage(sender, text string) error

	// OfferFile delivers a file offer and blocks for the receiver's
	// reply, returning it verbatim for the server to relay back to the
	// offering client.
	OfferFile(sender, filename string) (string, error)

	// NotifyRoomEvent delivers a structural room event (one of
	// protocol.NotifyNewChatRoom/NotifyUpdatedChatRoom/NotifyRemovedChatRoom).
	NotifyRoomEvent(kind string, room *protocol.ChatRoomInfo) error

	// NotifyFriendship tells the user a friendship edge to them was
	// created, and whether the initiator is online.
	NotifyFriendship(from string, online bool) error

	// Close releases the underlying transport.
	Close() error
}
