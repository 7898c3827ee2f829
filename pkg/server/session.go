package server

import (
	"errors"
	"io"

	"github.com/GTX96/SocialGossip/pkg/protocol"
)

// errUpgraded is returned by the notification-channel handler: the
// session task ends but the socket stays open, owned thereafter by the
// user's NotificationChannel.
var errUpgraded = errors.New("session upgraded to notification channel")

// Session is one per-connection protocol state machine. It lives until
// the connection closes or the session is upgraded into a standing
// notification channel.
type Session struct {
	ID         uint64
	Conn       *SafeConn
	RemoteAddr string
}

// messageLoop decodes one request per cycle, dispatches it, and writes
// exactly one response (the channel-upgrade request terminates the loop
// instead). I/O failures end the session; business failures never do.
func (s *Server) messageLoop(sess *Session) {
	upgraded := false
	defer func() {
		s.removeSession(sess.ID)
		if !upgraded {
			sess.Conn.Close()
			s.metrics.ConnectionClosed()
		}
	}()

	for {
		raw, err := sess.Conn.ReadString()
		if err != nil {
			if err == io.EOF {
				debugLog.Printf("Session %d: client disconnected", sess.ID)
			} else {
				debugLog.Printf("Session %d: read error: %v", sess.ID, err)
			}
			return
		}

		debugLog.Printf("Session %d ← RECV: %s", sess.ID, raw)

		if err := s.handleRequest(sess, raw); err != nil {
			if errors.Is(err, errUpgraded) {
				upgraded = true
				debugLog.Printf("Session %d: upgraded to notification channel", sess.ID)
				return
			}
			// Write failure - connection is gone
			debugLog.Printf("Session %d: send error: %v", sess.ID, err)
			return
		}
	}
}

// handleRequest parses and dispatches one request. Malformed traffic
// gets an INVALID_REQUEST response; only transport errors propagate.
func (s *Server) handleRequest(sess *Session, raw string) error {
	req, err := protocol.ParseRequest(raw)
	if err != nil {
		debugLog.Printf("Session %d: unparseable request: %v", sess.ID, err)
		return s.sendFail(sess, "", protocol.ErrCodeInvalidRequest)
	}

	switch req.RequestType {
	case protocol.RequestAccess:
		return s.handleAccess(sess, req)
	case protocol.RequestLogout:
		return s.handleLogout(sess, req)
	case protocol.RequestInteraction:
		return s.handleInteraction(sess, req)
	case protocol.RequestNotificationChannel:
		return s.handleNotificationChannel(sess, req)
	case protocol.RequestChatRoom:
		return s.handleChatRoomRequest(sess, req)
	default:
		return s.sendFail(sess, req.RequestType, protocol.ErrCodeInvalidRequest)
	}
}

// sendResponse writes a response and records the request outcome.
func (s *Server) sendResponse(sess *Session, kind string, resp *protocol.Response) error {
	raw, err := resp.Encode()
	if err != nil {
		return err
	}

	if kind != "" {
		s.metrics.RecordRequest(kind, resp.Outcome)
	}
	debugLog.Printf("Session %d → SEND: %s", sess.ID, raw)
	return sess.Conn.WriteString(raw)
}

func (s *Server) sendFail(sess *Session, kind string, code protocol.ErrorCode) error {
	return s.sendResponse(sess, kind, protocol.NewFailResponse(code))
}

func (s *Server) sendSuccess(sess *Session, kind string) error {
	return s.sendResponse(sess, kind, protocol.NewSuccessResponse())
}
