package server

import (
	"sync"

	"github.com/GTX96/SocialGossip/pkg/protocol"
)

// NotificationChannel is the connection-backed push capability bound to
// one online user. It owns its socket: once a session is upgraded into
// a channel, the session task ends and nothing else reads the
// connection.
//
// The mutex serializes all delivery on the channel, including the
// synchronous file-offer round trip — a push can never interleave with
// an in-flight offer/reply exchange.
type NotificationChannel struct {
	nickname string
	conn     *SafeConn
	mu       sync.Mutex
}

func newNotificationChannel(nickname string, conn *SafeConn) *NotificationChannel {
	return &NotificationChannel{nickname: nickname, conn: conn}
}

func (nc *NotificationChannel) push(n *protocol.Notification) error {
	raw, err := n.Encode()
	if err != nil {
		return err
	}

	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.conn.WriteString(raw)
}

// PushChatMessage delivers a direct text message to the channel owner.
func (nc *NotificationChannel) PushChatMessage(sender, text string) error {
	return nc.push(protocol.NewChatMessageNotification(sender, text))
}

// OfferFile delivers a file offer and blocks for the owner's reply,
// which is returned verbatim for relaying back to the offering client.
// The channel stays locked for the whole round trip.
func (nc *NotificationChannel) OfferFile(sender, filename string) (string, error) {
	raw, err := protocol.NewIncomingFileNotification(sender, filename).Encode()
	if err != nil {
		return "", err
	}

	nc.mu.Lock()
	defer nc.mu.Unlock()

	if err := nc.conn.WriteString(raw); err != nil {
		return "", err
	}
	return nc.conn.ReadString()
}

// NotifyRoomEvent delivers a structural room event.
func (nc *NotificationChannel) NotifyRoomEvent(kind string, room *protocol.ChatRoomInfo) error {
	return nc.push(protocol.NewChatRoomNotification(kind, room))
}

// NotifyFriendship tells the owner a friendship edge to them was created.
func (nc *NotificationChannel) NotifyFriendship(from string, online bool) error {
	return nc.push(protocol.NewFriendshipNotification(from, online))
}

// Close releases the underlying connection.
func (nc *NotificationChannel) Close() error {
	return nc.conn.Close()
}
