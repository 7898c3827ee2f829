package server

import (
	"context"
	"errors"
	"log"

	"github.com/GTX96/SocialGossip/pkg/chatroom"
	"github.com/GTX96/SocialGossip/pkg/network"
	"github.com/GTX96/SocialGossip/pkg/protocol"
)

// handleAccess handles ACCESS requests (login/register).
func (s *Server) handleAccess(sess *Session, req *protocol.Request) error {
	if req.Password == "" || req.AccessType == "" {
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeInvalidRequest)
	}

	switch req.AccessType {
	case protocol.AccessLogin:
		return s.handleLogin(sess, req)
	case protocol.AccessRegister:
		return s.handleRegister(sess, req)
	default:
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeInvalidRequest)
	}
}

func (s *Server) handleLogin(sess *Session, req *protocol.Request) error {
	friends, err := s.access.Login(req.NicknameSender, req.Password)
	if err != nil {
		debugLog.Printf("Session %d: login %s failed: %v", sess.ID, req.NicknameSender, err)
		switch {
		case errors.Is(err, network.ErrUserNotFound):
			return s.sendFail(sess, req.RequestType, protocol.ErrCodeSenderUserNotFound)
		case errors.Is(err, network.ErrPasswordMismatch):
			return s.sendFail(sess, req.RequestType, protocol.ErrCodePasswordMismatch)
		case errors.Is(err, network.ErrInvalidStatus):
			return s.sendFail(sess, req.RequestType, protocol.ErrCodeSenderUserInvalidStatus)
		default:
			return s.sendFail(sess, req.RequestType, protocol.ErrCodeInvalidRequest)
		}
	}

	s.metrics.UserLoggedIn()
	log.Printf("Session %d: %s logged in", sess.ID, req.NicknameSender)

	return s.sendResponse(sess, req.RequestType,
		protocol.NewLoginResponse(friends, s.rooms.Snapshot()))
}

func (s *Server) handleRegister(sess *Session, req *protocol.Request) error {
	// Language is mandatory at registration
	if req.Language == "" {
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeInvalidRequest)
	}

	if err := s.access.Register(req.NicknameSender, req.Password, req.Language); err != nil {
		debugLog.Printf("Session %d: register %s failed: %v", sess.ID, req.NicknameSender, err)
		switch {
		case errors.Is(err, network.ErrAlreadyRegistered):
			return s.sendFail(sess, req.RequestType, protocol.ErrCodeUserAlreadyRegistered)
		case errors.Is(err, network.ErrInvalidLanguage):
			return s.sendFail(sess, req.RequestType, protocol.ErrCodeInvalidRequest)
		default:
			errorLog.Printf("Session %d: register %s: %v", sess.ID, req.NicknameSender, err)
			return s.sendFail(sess, req.RequestType, protocol.ErrCodeInvalidRequest)
		}
	}

	log.Printf("Session %d: %s registered (lang %s)", sess.ID, req.NicknameSender, req.Language)

	return s.sendResponse(sess, req.RequestType,
		protocol.NewRegistrationResponse(s.rooms.Snapshot()))
}

// handleLogout handles LOGOUT requests.
func (s *Server) handleLogout(sess *Session, req *protocol.Request) error {
	if err := s.access.Logout(req.NicknameSender); err != nil {
		switch {
		case errors.Is(err, network.ErrUserNotFound):
			return s.sendFail(sess, req.RequestType, protocol.ErrCodeSenderUserNotFound)
		case errors.Is(err, network.ErrInvalidStatus):
			return s.sendFail(sess, req.RequestType, protocol.ErrCodeSenderUserInvalidStatus)
		default:
			return s.sendFail(sess, req.RequestType, protocol.ErrCodeInvalidRequest)
		}
	}

	s.metrics.UserLoggedOut()
	log.Printf("Session %d: %s logged out", sess.ID, req.NicknameSender)
	return s.sendSuccess(sess, req.RequestType)
}

// resolveOnlineSender applies the shared precondition of INTERACTION,
// CHAT_NOTIFICATION_CHAN and CHATROOM_REQUEST: the sender must be a
// known, online user.
func (s *Server) resolveOnlineSender(nickname string) (*network.User, protocol.ErrorCode) {
	u, ok := s.users.Lookup(nickname)
	if !ok {
		return nil, protocol.ErrCodeSenderUserNotFound
	}
	if !u.Online() {
		return nil, protocol.ErrCodeSenderUserInvalidStatus
	}
	return u, ""
}

// handleInteraction handles INTERACTION requests (find-user /
// friendship / message-send / file-send).
func (s *Server) handleInteraction(sess *Session, req *protocol.Request) error {
	sender, failCode := s.resolveOnlineSender(req.NicknameSender)
	if failCode != "" {
		return s.sendFail(sess, req.RequestType, failCode)
	}

	if req.NicknameReceiver == "" {
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeInvalidRequest)
	}

	receiver, ok := s.users.Lookup(req.NicknameReceiver)
	if !ok {
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeReceiverUserNotFound)
	}

	if sender == receiver {
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeSameUsers)
	}

	switch req.InteractionType {
	case protocol.InteractionFindUser:
		// Pure existence probe - reaching this point is the answer
		return s.sendSuccess(sess, req.RequestType)
	case protocol.InteractionFriendship:
		return s.handleFriendship(sess, req, sender, receiver)
	case protocol.InteractionMessageSend:
		return s.handleMessageSend(sess, req, sender, receiver)
	case protocol.InteractionFileSend:
		return s.handleFileSend(sess, req, sender, receiver)
	default:
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeInvalidRequest)
	}
}

func (s *Server) handleFriendship(sess *Session, req *protocol.Request, sender, receiver *network.User) error {
	created, err := s.users.RequestFriendship(sender.Nickname(), receiver.Nickname())
	if err != nil {
		// The registry re-validates both nicknames under its own lock
		switch {
		case errors.Is(err, network.ErrSameUser):
			return s.sendFail(sess, req.RequestType, protocol.ErrCodeSameUsers)
		default:
			return s.sendFail(sess, req.RequestType, protocol.ErrCodeReceiverUserNotFound)
		}
	}

	if !created {
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeAlreadyFriend)
	}

	receiverOnline := receiver.Online()
	log.Printf("Friendship %s ↔ %s created", sender.Nickname(), receiver.Nickname())

	if ch := receiver.Channel(); receiverOnline && ch != nil {
		if err := ch.NotifyFriendship(sender.Nickname(), true); err != nil {
			debugLog.Printf("Friendship notify to %s failed: %v", receiver.Nickname(), err)
			receiver.ClearChannel(ch)
		} else {
			s.metrics.RecordNotification(protocol.NotifyNewFriendship)
		}
	}

	return s.sendResponse(sess, req.RequestType, protocol.NewFriendshipResponse(receiverOnline))
}

func (s *Server) handleMessageSend(sess *Session, req *protocol.Request, sender, receiver *network.User) error {
	if req.Text == "" {
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeInvalidRequest)
	}

	if !receiver.Online() {
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeReceiverUserInvalidStatus)
	}
	ch := receiver.Channel()
	if ch == nil {
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeReceiverUserInvalidStatus)
	}

	// Best-effort translation; any failure falls back to the original
	text := req.Text
	if translated, err := s.translator.Translate(context.Background(), req.Text,
		sender.Language(), receiver.Language()); err == nil {
		text = translated
	} else {
		debugLog.Printf("Translation %s→%s failed: %v",
			sender.Language(), receiver.Language(), err)
	}

	if err := ch.PushChatMessage(sender.Nickname(), text); err != nil {
		debugLog.Printf("Message push to %s failed: %v", receiver.Nickname(), err)
		receiver.ClearChannel(ch)
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeReceiverUserInvalidStatus)
	}

	s.metrics.RecordNotification(protocol.NotifyNewChatMessage)
	return s.sendSuccess(sess, req.RequestType)
}

func (s *Server) handleFileSend(sess *Session, req *protocol.Request, sender, receiver *network.User) error {
	if req.Filename == "" {
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeInvalidRequest)
	}

	if !receiver.Online() {
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeReceiverUserInvalidStatus)
	}
	ch := receiver.Channel()
	if ch == nil {
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeReceiverUserInvalidStatus)
	}

	// Synchronous proxy: the receiver's accept/reject reply is relayed
	// back to the sender verbatim as this request's response
	reply, err := ch.OfferFile(sender.Nickname(), req.Filename)
	if err != nil {
		debugLog.Printf("File offer to %s failed: %v", receiver.Nickname(), err)
		receiver.ClearChannel(ch)
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeCannotReceiveFile)
	}

	s.metrics.RecordNotification(protocol.NotifyNewIncomingFile)
	s.metrics.RecordRequest(req.RequestType, "RELAYED")
	return sess.Conn.WriteString(reply)
}

// handleNotificationChannel handles CHAT_NOTIFICATION_CHAN: it binds
// this connection as the sender's push channel and puts the session in
// its terminal state.
func (s *Server) handleNotificationChannel(sess *Session, req *protocol.Request) error {
	sender, failCode := s.resolveOnlineSender(req.NicknameSender)
	if failCode != "" {
		return s.sendFail(sess, req.RequestType, failCode)
	}

	sender.BindChannel(newNotificationChannel(sender.Nickname(), sess.Conn))
	log.Printf("Session %d: notification channel bound for %s", sess.ID, sender.Nickname())

	if err := s.sendSuccess(sess, req.RequestType); err != nil {
		return err
	}
	return errUpgraded
}

// handleChatRoomRequest handles CHATROOM_REQUEST (new/join/close).
func (s *Server) handleChatRoomRequest(sess *Session, req *protocol.Request) error {
	sender, failCode := s.resolveOnlineSender(req.NicknameSender)
	if failCode != "" {
		return s.sendFail(sess, req.RequestType, failCode)
	}

	if req.ChatRoomName == "" || req.ChatRoomType == "" {
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeInvalidRequest)
	}

	switch req.ChatRoomType {
	case protocol.ChatRoomNew:
		if _, err := s.rooms.Create(req.ChatRoomName, sender); err != nil {
			return s.sendFail(sess, req.RequestType, chatRoomErrorCode(err))
		}
		s.metrics.RoomCreated()
		return s.sendSuccess(sess, req.RequestType)

	case protocol.ChatRoomJoin:
		if _, err := s.rooms.Join(req.ChatRoomName, sender); err != nil {
			return s.sendFail(sess, req.RequestType, chatRoomErrorCode(err))
		}
		return s.sendSuccess(sess, req.RequestType)

	case protocol.ChatRoomClose:
		if err := s.rooms.Close(req.ChatRoomName, sender); err != nil {
			return s.sendFail(sess, req.RequestType, chatRoomErrorCode(err))
		}
		s.metrics.RoomClosed()
		return s.sendSuccess(sess, req.RequestType)

	default:
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeInvalidRequest)
	}
}

// chatRoomErrorCode maps room registry errors onto the wire taxonomy.
func chatRoomErrorCode(err error) protocol.ErrorCode {
	switch {
	case errors.Is(err, chatroom.ErrAlreadyRegistered):
		return protocol.ErrCodeChatRoomAlreadyRegistered
	case errors.Is(err, chatroom.ErrNotFound):
		return protocol.ErrCodeChatRoomNotFound
	case errors.Is(err, chatroom.ErrAlreadySubscribed):
		return protocol.ErrCodeUserAlreadyRegistered
	case errors.Is(err, chatroom.ErrAddressSpace):
		return protocol.ErrCodeCannotCreateChatRoom
	case errors.Is(err, chatroom.ErrNotPermitted):
		return protocol.ErrCodeOperationNotPermitted
	default:
		return protocol.ErrCodeCannotCreateChatRoom
	}
}
