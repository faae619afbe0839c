package service

import "errors"

// Taxonomía de errores del slice de mensajería. Los handlers HTTP y el canal
// en tiempo real traducen estos valores a su propio formato.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// ChatError lleva el mensaje visible para el usuario junto a su categoría.
type ChatError struct {
	Kind    error
	Message string
}

func (e *ChatError) Error() string {
	return e.Message
}

func (e *ChatError) Unwrap() error {
	return e.Kind
}

func newChatError(kind error, message string) error {
	return &ChatError{Kind: kind, Message: message}
}

// Mensajes compartidos por REST y websocket.
const (
	MsgConversationNotFound = "Conversation not found"
	MsgNotAllowedToPost     = "Not allowed to post to this conversation"
	MsgNotAllowedToJoin     = "Not allowed to join this conversation"
	MsgNotAllowedToRead     = "Forbidden"
	MsgTextRequired         = "Message text is required"
	MsgTooFewParticipants   = "At least two participants are required"
	MsgMustBeParticipant    = "You must be part of the conversation"
)
