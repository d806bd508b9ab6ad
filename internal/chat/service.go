package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/koor-works/koor-backend/internal/notifications"
	"github.com/koor-works/koor-backend/internal/users"
	"github.com/koor-works/koor-backend/pkg/config"
	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/enums"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/pagination"
	"github.com/koor-works/koor-backend/pkg/ws"
)

// ActivityRoom receives presence and conversation-level updates for every
// connected client.
const ActivityRoom = "chat_activity"

// RoomFor is the per-conversation fan-out room.
func RoomFor(conversationID uuid.UUID) string {
	return fmt.Sprintf("chat_%s", conversationID)
}

// ServiceParams groups dependencies for the chat service.
type ServiceParams struct {
	Repo     *Repository
	UserRepo *users.Repository
	Users    users.Service
	Notifier notifications.Service
	Hub      *ws.Hub
	Config   config.ChatConfig
	Logger   *logger.Logger
	Now      func() time.Time
}

// SendParams carries one outgoing message.
type SendParams struct {
	ConversationID uuid.UUID
	ContentType    enums.MessageContentType
	Message        string
	AttachmentID   *uuid.UUID
}

// Event is the wire format broadcast to rooms.
type Event struct {
	Type           string     `json:"type"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	MessageID      *uuid.UUID `json:"message_id,omitempty"`
	SenderID       *uuid.UUID `json:"sender_id,omitempty"`
	ContentType    string     `json:"content_type,omitempty"`
	Message        string     `json:"message,omitempty"`
	AttachmentID   *uuid.UUID `json:"attachment_id,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	Online         *bool      `json:"online,omitempty"`
	UserID         *uuid.UUID `json:"user_id,omitempty"`
}

// inboundFrame is what clients push over the socket.
type inboundFrame struct {
	ConversationID uuid.UUID  `json:"conversation_id"`
	ContentType    string     `json:"content_type"`
	Message        string     `json:"message"`
	AttachmentID   *uuid.UUID `json:"attachment_id"`
}

// Service runs two-party conversations over REST and the websocket hub.
type Service interface {
	Resolve(ctx context.Context, actorID, otherID uuid.UUID) (*models.Conversation, error)
	List(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Conversation, int64, error)
	History(ctx context.Context, actorID, conversationID uuid.UUID, page pagination.Params) ([]models.ChatMessage, int64, error)
	Send(ctx context.Context, actorID uuid.UUID, params SendParams) (*models.ChatMessage, error)
	MarkRead(ctx context.Context, actorID, conversationID uuid.UUID) error
	Leave(ctx context.Context, actorID, conversationID uuid.UUID) error

	// Connect attaches an upgraded websocket connection to the hub, joins
	// the caller's conversation rooms and announces presence.
	Connect(ctx context.Context, conn ws.Conn, userID uuid.UUID) (*ws.Client, error)
}

type service struct {
	repo     *Repository
	userRepo *users.Repository
	users    users.Service
	notifier notifications.Service
	hub      *ws.Hub
	cfg      config.ChatConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the chat service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chat repo is required")
	}
	if params.UserRepo == nil || params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user dependencies are required")
	}
	if params.Hub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hub is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		userRepo: params.UserRepo,
		users:    params.Users,
		notifier: params.Notifier,
		hub:      params.Hub,
		cfg:      params.Config,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) Resolve(ctx context.Context, actorID, otherID uuid.UUID) (*models.Conversation, error) {
	if actorID == otherID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cannot start a conversation with yourself")
	}
	other, err := s.userRepo.FindByID(ctx, otherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !other.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	existing, err := s.repo.FindBetween(ctx, actorID, otherID)
	if err == nil {
		// Resurrect covers both a removed conversation and a membership the
		// actor previously left.
		if err := s.repo.Resurrect(ctx, existing.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resurrect conversation")
		}
		return s.byID(ctx, existing.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve conversation")
	}

	created, err := s.repo.Create(ctx, actorID, otherID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create conversation")
	}
	return s.byID(ctx, created.ID)
}

func (s *service) List(ctx context.Context, userID uuid.UUID, page pagination.Params) ([]models.Conversation, int64, error) {
	page.Limit = pagination.NormalizeLimit(page.Limit)
	rows, count, err := s.repo.ListForUser(ctx, userID, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list conversations")
	}
	return rows, count, nil
}

func (s *service) History(ctx context.Context, actorID, conversationID uuid.UUID, page pagination.Params) ([]models.ChatMessage, int64, error) {
	if _, err := s.membership(ctx, actorID, conversationID); err != nil {
		return nil, 0, err
	}
	page.Limit = pagination.NormalizeLimit(page.Limit)
	rows, count, err := s.repo.Messages(ctx, conversationID, page)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load history")
	}
	return rows, count, nil
}

func (s *service) Send(ctx context.Context, actorID uuid.UUID, params SendParams) (*models.ChatMessage, error) {
	conversation, err := s.membership(ctx, actorID, params.ConversationID)
	if err != nil {
		return nil, err
	}

	contentType := params.ContentType
	if contentType == "" {
		contentType = enums.MessageContentTypeText
	}
	if !contentType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid content type").WithField("content_type")
	}
	if contentType == enums.MessageContentTypeText {
		if params.Message == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "message body is required").WithField("message")
		}
	} else if params.AttachmentID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "attachment is required").WithField("attachment_id")
	}

	msg := &models.ChatMessage{
		ConversationID: conversation.ID,
		SenderID:       actorID,
		ContentType:    contentType,
		Message:        params.Message,
		AttachmentID:   params.AttachmentID,
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist message")
	}
	now := s.now()
	if err := s.repo.TouchLastMessage(ctx, conversation.ID, now); err != nil {
		s.logg.Error(ctx, "touch last message failed", err)
	}

	s.broadcastMessage(conversation, msg)
	s.notifyRecipients(ctx, conversation, msg)
	return msg, nil
}

func (s *service) MarkRead(ctx context.Context, actorID, conversationID uuid.UUID) error {
	if _, err := s.membership(ctx, actorID, conversationID); err != nil {
		return err
	}
	if err := s.repo.MarkRead(ctx, conversationID, actorID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark read")
	}
	return nil
}

func (s *service) Leave(ctx context.Context, actorID, conversationID uuid.UUID) error {
	if _, err := s.membership(ctx, actorID, conversationID); err != nil {
		return err
	}
	if err := s.repo.Leave(ctx, conversationID, actorID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "leave conversation")
	}
	return nil
}

func (s *service) Connect(ctx context.Context, conn ws.Conn, userID uuid.UUID) (*ws.Client, error) {
	conversations, _, err := s.repo.ListForUser(ctx, userID, pagination.Params{Limit: pagination.MaxLimit})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load conversations")
	}

	client := ws.Attach(ctx, s.hub, conn, userID, s.cfg, s.logg, s.onInbound, s.onDisconnect)
	s.hub.Join(client, ActivityRoom)
	for _, conversation := range conversations {
		s.hub.Join(client, RoomFor(conversation.ID))
	}

	if err := s.users.SetOnline(ctx, userID, true); err != nil {
		s.logg.Error(ctx, "presence update failed", err)
	}
	s.broadcastPresence(userID, true, client)
	return client, nil
}

func (s *service) onInbound(ctx context.Context, client *ws.Client, payload []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "dropping malformed chat frame")
		return
	}

	contentType := enums.MessageContentType(frame.ContentType)
	if frame.ContentType == "" {
		contentType = enums.MessageContentTypeText
	}
	if _, err := s.Send(ctx, client.UserID, SendParams{
		ConversationID: frame.ConversationID,
		ContentType:    contentType,
		Message:        frame.Message,
		AttachmentID:   frame.AttachmentID,
	}); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "inbound chat message rejected")
	}
}

func (s *service) onDisconnect(client *ws.Client) {
	ctx := context.Background()
	if err := s.users.SetOnline(ctx, client.UserID, false); err != nil {
		s.logg.Error(ctx, "presence update failed", err)
	}
	s.broadcastPresence(client.UserID, false, nil)
}

func (s *service) broadcastMessage(conversation *models.Conversation, msg *models.ChatMessage) {
	sentAt := msg.CreatedAt
	event := Event{
		Type:           "message",
		ConversationID: conversation.ID,
		MessageID:      &msg.ID,
		SenderID:       &msg.SenderID,
		ContentType:    msg.ContentType.String(),
		Message:        msg.Message,
		AttachmentID:   msg.AttachmentID,
		SentAt:         &sentAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	s.hub.Broadcast(RoomFor(conversation.ID), payload, nil)

	activity, err := json.Marshal(Event{Type: "conversation_update", ConversationID: conversation.ID, SentAt: &sentAt})
	if err != nil {
		return
	}
	s.hub.Broadcast(ActivityRoom, activity, nil)
}

func (s *service) broadcastPresence(userID uuid.UUID, online bool, exclude *ws.Client) {
	payload, err := json.Marshal(Event{Type: "presence", UserID: &userID, Online: &online})
	if err != nil {
		return
	}
	s.hub.Broadcast(ActivityRoom, payload, exclude)
}

func (s *service) notifyRecipients(ctx context.Context, conversation *models.Conversation, msg *models.ChatMessage) {
	if s.notifier == nil {
		return
	}
	for _, participant := range conversation.Participants {
		if participant.UserID == msg.SenderID || participant.IsRemoved {
			continue
		}
		s.notifier.Notify(ctx, notifications.NotifyParams{
			UserID:         participant.UserID,
			Kind:           enums.NotificationTypeMessage,
			SenderID:       &msg.SenderID,
			ConversationID: &conversation.ID,
		})
	}
}

func (s *service) membership(ctx context.Context, actorID, conversationID uuid.UUID) (*models.Conversation, error) {
	conversation, err := s.byID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	for _, participant := range conversation.Participants {
		if participant.UserID == actorID && !participant.IsRemoved {
			return conversation, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeForbidden, pkgerrors.PermissionDeniedMessage)
}

func (s *service) byID(ctx context.Context, conversationID uuid.UUID) (*models.Conversation, error) {
	conversation, err := s.repo.FindByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "conversation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load conversation")
	}
	return conversation, nil
}

