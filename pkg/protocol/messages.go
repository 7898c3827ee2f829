package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message type discriminator, present in every envelope as "message-type".
const (
	TypeRequest      = "REQUEST"
	TypeResponse     = "RESPONSE"
	TypeNotification = "NOTIFICATION"
)

// Request kinds ("request-type").
const (
	RequestAccess              = "ACCESS"
	RequestLogout              = "LOGOUT"
	RequestInteraction         = "INTERACTION"
	RequestNotificationChannel = "CHAT_NOTIFICATION_CHAN"
	RequestChatRoom            = "CHATROOM_REQUEST"
)

// Access sub-kinds ("access-type").
const (
	AccessLogin    = "LOGIN"
	AccessRegister = "REGISTER"
)

// Interaction sub-kinds ("interaction-type").
const (
	InteractionFindUser    = "FIND_USER_REQUEST"
	InteractionFriendship  = "FRIENDSHIP_REQUEST"
	InteractionMessageSend = "MESSAGE_SEND_REQUEST"
	InteractionFileSend    = "FILE_SEND_REQUEST"
)

// Chat room sub-kinds ("chatroom-request-type").
const (
	ChatRoomNew   = "NEW_CHATROOM"
	ChatRoomJoin  = "JOIN_CHATROOM"
	ChatRoomClose = "CLOSE_CHATROOM"
)

// Response outcomes ("outcome").
const (
	OutcomeSuccess = "SUCCESS"
	OutcomeFail    = "FAIL"
)

// Notification kinds ("notification-type").
const (
	NotifyNewChatMessage  = "NEW_CHAT_MESSAGE"
	NotifyNewIncomingFile = "NEW_INCOMING_FILE"
	NotifyNewChatRoom     = "NEW_CHATROOM"
	NotifyUpdatedChatRoom = "UPDATED_CHATROOM"
	NotifyRemovedChatRoom = "REMOVED_CHATROOM"
	NotifyNewFriendship   = "NEW_FRIENDSHIP"
)

// ErrorCode identifies a failed-response cause. Every business-rule
// violation maps to exactly one of these; they are wire values.
type ErrorCode string

const (
	ErrCodeInvalidRequest            ErrorCode = "INVALID_REQUEST"
	ErrCodeSenderUserNotFound        ErrorCode = "SENDER_USER_NOT_FOUND"
	ErrCodeReceiverUserNotFound      ErrorCode = "RECEIVER_USER_NOT_FOUND"
	ErrCodeSenderUserInvalidStatus   ErrorCode = "SENDER_USER_INVALID_STATUS"
	ErrCodeReceiverUserInvalidStatus ErrorCode = "RECEIVER_USER_INVALID_STATUS"
	ErrCodeUserAlreadyRegistered     ErrorCode = "USER_ALREADY_REGISTERED"
	ErrCodePasswordMismatch          ErrorCode = "PASSWORD_MISMATCH"
	ErrCodeAlreadyFriend             ErrorCode = "ALREADY_FRIEND"
	ErrCodeSameUsers                 ErrorCode = "SAME_USERS"
	ErrCodeCannotReceiveFile         ErrorCode = "CANNOT_RECEIVE_FILE"
	ErrCodeChatRoomAlreadyRegistered ErrorCode = "CHATROOM_ALREADY_REGISTERED"
	ErrCodeChatRoomNotFound          ErrorCode = "CHATROOM_NOT_FOUND"
	ErrCodeCannotCreateChatRoom      ErrorCode = "CANNOT_CREATE_CHATROOM"
	ErrCodeOperationNotPermitted     ErrorCode = "OPERATION_NOT_PERMITTED"
)

// RoomClosedSentinel is the reserved multicast payload that tells room
// listeners the room has been closed. Clients compare it literally.
const RoomClosedSentinel = "CHATROOM CLOSED"

// GroupChatLine formats a group chat datagram payload.
func GroupChatLine(sender, text string) string {
	return fmt.Sprintf("[%s]: %s\n", sender, text)
}

var (
	ErrNotARequest      = errors.New("message is not a request envelope")
	ErrNotAResponse     = errors.New("message is not a response envelope")
	ErrNotANotification = errors.New("message is not a notification envelope")
)

// Friend is one entry of a login response friend list.
type Friend struct {
	Nickname string `json:"nickname"`
	Online   bool   `json:"online"`
}

// ChatRoomInfo describes a room to clients: where its multicast traffic
// is published and where its relay listener receives datagrams. Field
// names are part of the wire contract.
type ChatRoomInfo struct {
	Name             string   `json:"name"`
	MulticastAddress string   `json:"ms-address"`
	MulticastPort    int      `json:"ms-port"`
	MessageAddress   string   `json:"message-address"`
	MessagePort      int      `json:"message-port"`
	Subscribers      []string `json:"list-subscriber"`
}

// Request is the envelope for every client request. Only the fields
// relevant to the request kind are populated.
type Request struct {
	MessageType      string `json:"message-type"`
	RequestType      string `json:"request-type"`
	NicknameSender   string `json:"nickname-sender"`
	AccessType       string `json:"access-type,omitempty"`
	Password         string `json:"password,omitempty"`
	Language         string `json:"language,omitempty"`
	NicknameReceiver string `json:"nickname-receiver,omitempty"`
	InteractionType  string `json:"interaction-type,omitempty"`
	Text             string `json:"text,omitempty"`
	Filename         string `json:"filename,omitempty"`
	ChatRoomName     string `json:"chatroom-name,omitempty"`
	ChatRoomType     string `json:"chatroom-request-type,omitempty"`
}

// Response is the envelope for every server reply to a request.
type Response struct {
	MessageType    string         `json:"message-type"`
	Outcome        string         `json:"outcome"`
	Error          ErrorCode      `json:"error,omitempty"`
	Friends        []Friend       `json:"friend-list,omitempty"`
	ChatRooms      []ChatRoomInfo `json:"chatroom-list,omitempty"`
	ReceiverOnline *bool          `json:"receiver-online,omitempty"`
}

// Notification is the envelope for asynchronous pushes on a user's
// notification channel, including out-of-band structural events.
type Notification struct {
	MessageType      string        `json:"message-type"`
	NotificationType string        `json:"notification-type"`
	NicknameSender   string        `json:"nickname-sender,omitempty"`
	Text             string        `json:"text,omitempty"`
	Filename         string        `json:"filename,omitempty"`
	ChatRoom         *ChatRoomInfo `json:"chatroom,omitempty"`
	Online           *bool         `json:"online,omitempty"`
}

// ---------------------------------------------------------------------------
// Request constructors
// ---------------------------------------------------------------------------

func NewLoginRequest(nickname, password string) *Request {
	return &Request{
		MessageType:    TypeRequest,
		RequestType:    RequestAccess,
		AccessType:     AccessLogin,
		NicknameSender: nickname,
		Password:       password,
	}
}

func NewRegisterRequest(nickname, password, language string) *Request {
	return &Request{
		MessageType:    TypeRequest,
		RequestType:    RequestAccess,
		AccessType:     AccessRegister,
		NicknameSender: nickname,
		Password:       password,
		Language:       language,
	}
}

func NewLogoutRequest(nickname string) *Request {
	return &Request{
		MessageType:    TypeRequest,
		RequestType:    RequestLogout,
		NicknameSender: nickname,
	}
}

func NewInteractionRequest(kind, sender, receiver string) *Request {
	return &Request{
		MessageType:      TypeRequest,
		RequestType:      RequestInteraction,
		InteractionType:  kind,
		NicknameSender:   sender,
		NicknameReceiver: receiver,
	}
}

func NewMessageSendRequest(sender, receiver, text string) *Request {
	req := NewInteractionRequest(InteractionMessageSend, sender, receiver)
	req.Text = text
	return req
}

func NewFileSendRequest(sender, receiver, filename string) *Request {
	req := NewInteractionRequest(InteractionFileSend, sender, receiver)
	req.Filename = filename
	return req
}

func NewNotificationChannelRequest(nickname string) *Request {
	return &Request{
		MessageType:    TypeRequest,
		RequestType:    RequestNotificationChannel,
		NicknameSender: nickname,
	}
}

func NewChatRoomRequest(kind, sender, room string) *Request {
	return &Request{
		MessageType:    TypeRequest,
		RequestType:    RequestChatRoom,
		ChatRoomType:   kind,
		NicknameSender: sender,
		ChatRoomName:   room,
	}
}

// ---------------------------------------------------------------------------
// Response constructors
// ---------------------------------------------------------------------------

func NewSuccessResponse() *Response {
	return &Response{MessageType: TypeResponse, Outcome: OutcomeSuccess}
}

func NewFailResponse(code ErrorCode) *Response {
	return &Response{MessageType: TypeResponse, Outcome: OutcomeFail, Error: code}
}

// NewLoginResponse reports the caller's friend list and the active rooms.
func NewLoginResponse(friends []Friend, rooms []ChatRoomInfo) *Response {
	resp := NewSuccessResponse()
	resp.Friends = friends
	resp.ChatRooms = rooms
	return resp
}

// NewRegistrationResponse reports the active rooms to a fresh account.
func NewRegistrationResponse(rooms []ChatRoomInfo) *Response {
	resp := NewSuccessResponse()
	resp.ChatRooms = rooms
	return resp
}

// NewFriendshipResponse reports the new friend's online status.
func NewFriendshipResponse(receiverOnline bool) *Response {
	resp := NewSuccessResponse()
	resp.ReceiverOnline = &receiverOnline
	return resp
}

// ---------------------------------------------------------------------------
// Notification constructors
// ---------------------------------------------------------------------------

func NewChatMessageNotification(sender, text string) *Notification {
	return &Notification{
		MessageType:      TypeNotification,
		NotificationType: NotifyNewChatMessage,
		NicknameSender:   sender,
		Text:             text,
	}
}

func NewIncomingFileNotification(sender, filename string) *Notification {
	return &Notification{
		MessageType:      TypeNotification,
		NotificationType: NotifyNewIncomingFile,
		NicknameSender:   sender,
		Filename:         filename,
	}
}

func NewChatRoomNotification(kind string, room *ChatRoomInfo) *Notification {
	return &Notification{
		MessageType:      TypeNotification,
		NotificationType: kind,
		ChatRoom:         room,
	}
}

func NewFriendshipNotification(from string, online bool) *Notification {
	return &Notification{
		MessageType:      TypeNotification,
		NotificationType: NotifyNewFriendship,
		NicknameSender:   from,
		Online:           &online,
	}
}

// ---------------------------------------------------------------------------
// Encoding / parsing
// ---------------------------------------------------------------------------

func (r *Request) Encode() (string, error) {
	r.MessageType = TypeRequest
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *Response) Encode() (string, error) {
	r.MessageType = TypeResponse
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (n *Notification) Encode() (string, error) {
	n.MessageType = TypeNotification
	b, err := json.Marshal(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// messageType peeks at the discriminator without committing to a shape.
func messageType(raw string) (string, error) {
	var probe struct {
		MessageType string `json:"message-type"`
	}
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return "", err
	}
	return probe.MessageType, nil
}

// ParseRequest decodes a request envelope. A syntactically valid JSON
// object with the wrong discriminator is ErrNotARequest, so callers can
// distinguish malformed traffic from misdirected traffic.
func ParseRequest(raw string) (*Request, error) {
	mt, err := messageType(raw)
	if err != nil {
		return nil, err
	}
	if mt != TypeRequest {
		return nil, ErrNotARequest
	}

	req := &Request{}
	if err := json.Unmarshal([]byte(raw), req); err != nil {
		return nil, err
	}
	if req.NicknameSender == "" || req.RequestType == "" {
		return nil, ErrNotARequest
	}
	return req, nil
}

// ParseResponse decodes a response envelope.
func ParseResponse(raw string) (*Response, error) {
	mt, err := messageType(raw)
	if err != nil {
		return nil, err
	}
	if mt != TypeResponse {
		return nil, ErrNotAResponse
	}

	resp := &Response{}
	if err := json.Unmarshal([]byte(raw), resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ParseNotification decodes a notification envelope.
func ParseNotification(raw string) (*Notification, error) {
	mt, err := messageType(raw)
	if err != nil {
		return nil, err
	}
	if mt != TypeNotification {
		return nil, ErrNotANotification
	}

	n := &Notification{}
	if err := json.Unmarshal([]byte(raw), n); err != nil {
		return nil, err
	}
	return n, nil
}
