package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"overseas-housing/internal/domain"
	"overseas-housing/internal/repository"
)

// MessagePublisher recibe cada mensaje ya persistido para difundirlo.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, msg domain.Message)
}

// ConversationService encapsula las reglas de conversaciones y mensajes.
// Es el único punto de escritura: REST y websocket pasan por aquí.
type ConversationService struct {
	logger        *zap.Logger
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	publisher     MessagePublisher
	now           func() time.Time
}

var ErrConversationServiceNotConfigured = errors.New("conversation service not configured")

func NewConversationService(
	logger *zap.Logger,
	conversations repository.ConversationRepository,
	messages repository.MessageRepository,
	publisher MessagePublisher,
) *ConversationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversationService{
		logger:        logger,
		conversations: conversations,
		messages:      messages,
		publisher:     publisher,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SetPublisher permite conectar el hub después de construir el servicio.
func (s *ConversationService) SetPublisher(p MessagePublisher) {
	s.publisher = p
}

func (s *ConversationService) ready() error {
	if s == nil || s.conversations == nil || s.messages == nil {
		return ErrConversationServiceNotConfigured
	}
	return nil
}

func (s *ConversationService) ListForUser(ctx context.Context, userID string) ([]domain.Conversation, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return []domain.Conversation{}, nil
	}
	convs, err := s.conversations.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

func (s *ConversationService) Get(ctx context.Context, conversationID string) (domain.Conversation, error) {
	if err := s.ready(); err != nil {
		return domain.Conversation{}, err
	}
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return domain.Conversation{}, newChatError(ErrNotFound, MsgConversationNotFound)
	}
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Conversation{}, newChatError(ErrNotFound, MsgConversationNotFound)
		}
		return domain.Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

// GetForParticipant devuelve la conversación sólo si callerID participa en ella.
func (s *ConversationService) GetForParticipant(ctx context.Context, conversationID, callerID string) (domain.Conversation, error) {
	conv, err := s.Get(ctx, conversationID)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !conv.HasParticipant(callerID) {
		return domain.Conversation{}, newChatError(ErrForbidden, MsgNotAllowedToRead)
	}
	return conv, nil
}

func (s *ConversationService) ListMessages(ctx context.Context, conversationID, callerID string) ([]domain.Message, error) {
	conv, err := s.GetForParticipant(ctx, conversationID, callerID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByConversationID(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

// AuthorizeJoin valida que userID pueda suscribirse a la sala de la conversación.
func (s *ConversationService) AuthorizeJoin(ctx context.Context, conversationID, userID string) error {
	conv, err := s.Get(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(userID) {
		return newChatError(ErrForbidden, MsgNotAllowedToJoin)
	}
	return nil
}

func (s *ConversationService) CreateMessage(ctx context.Context, conversationID, senderID, text string) (domain.Message, error) {
	conv, err := s.Get(ctx, conversationID)
	if err != nil {
		return domain.Message{}, err
	}
	if !conv.HasParticipant(senderID) {
		return domain.Message{}, newChatError(ErrForbidden, MsgNotAllowedToPost)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Message{}, newChatError(ErrInvalidArgument, MsgTextRequired)
	}

	msg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Text:           text,
		CreatedAt:      s.now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return domain.Message{}, fmt.Errorf("create message: %w", err)
	}

	if s.publisher != nil {
		s.publisher.PublishMessage(ctx, msg)
	}
	return msg, nil
}

func (s *ConversationService) CreateConversation(ctx context.Context, callerID string, participantIDs []string) (domain.Conversation, error) {
	if err := s.ready(); err != nil {
		return domain.Conversation{}, err
	}

	participants := normalizeParticipants(participantIDs)
	if len(participants) < 2 {
		return domain.Conversation{}, newChatError(ErrInvalidArgument, MsgTooFewParticipants)
	}
	conv := domain.Conversation{
		ID:             uuid.NewString(),
		ParticipantIDs: participants,
		CreatedAt:      s.now(),
	}
	if !conv.HasParticipant(strings.TrimSpace(callerID)) {
		return domain.Conversation{}, newChatError(ErrForbidden, MsgMustBeParticipant)
	}

	if err := s.conversations.Create(ctx, conv); err != nil {
		return domain.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.Int("participants", len(conv.ParticipantIDs)),
	)
	return conv, nil
}

// normalizeParticipants recorta, descarta vacíos y elimina duplicados manteniendo el orden.
func normalizeParticipants(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
