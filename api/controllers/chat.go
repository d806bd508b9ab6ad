package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/koor-works/koor-backend/api/middleware"
	"github.com/koor-works/koor-backend/api/responses"
	"github.com/koor-works/koor-backend/api/validators"
	"github.com/koor-works/koor-backend/internal/chat"
	"github.com/koor-works/koor-backend/pkg/enums"
	"github.com/koor-works/koor-backend/pkg/logger"
	"github.com/koor-works/koor-backend/pkg/pagination"
)

type resolveConversationRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

type sendMessageRequest struct {
	ContentType  string  `json:"content_type" validate:"omitempty,oneof=text image video document"`
	Message      string  `json:"message"`
	AttachmentID *string `json:"attachment_id" validate:"omitempty,uuid"`
}

// ResolveConversation finds or creates the 1:1 conversation with another
// user, resurrecting a previously left one.
func ResolveConversation(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resolveConversationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		otherID, err := validators.ParseURLUUID(req.UserID, "user_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		conversation, err := svc.Resolve(r.Context(), actor.ID, otherID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, conversation)
	}
}

// ListConversations pages the caller's live conversations by recency.
func ListConversations(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := pagination.FromRequest(r)
		actor := middleware.UserFromContext(r.Context())
		results, count, err := svc.List(r.Context(), actor.ID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, page, count, results)
	}
}

// ConversationHistory pages a conversation's messages, newest first.
func ConversationHistory(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversationID, err := validators.ParseURLUUID(chi.URLParam(r, "conversationID"), "conversationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page := pagination.FromRequest(r)
		actor := middleware.UserFromContext(r.Context())
		results, count, err := svc.History(r.Context(), actor.ID, conversationID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, r, page, count, results)
	}
}

// SendMessage posts a message over the REST surface; delivery to open
// sockets happens through the hub.
func SendMessage(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversationID, err := validators.ParseURLUUID(chi.URLParam(r, "conversationID"), "conversationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req sendMessageRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		attachmentID, err := parseOptionalUUID(req.AttachmentID, "attachment_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		message, err := svc.Send(r.Context(), actor.ID, chat.SendParams{
			ConversationID: conversationID,
			ContentType:    enums.MessageContentType(req.ContentType),
			Message:        req.Message,
			AttachmentID:   attachmentID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, message)
	}
}

// MarkConversationRead flags the other side's messages as read.
func MarkConversationRead(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversationID, err := validators.ParseURLUUID(chi.URLParam(r, "conversationID"), "conversationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		if err := svc.MarkRead(r.Context(), actor.ID, conversationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// LeaveConversation soft-removes the caller's side of a conversation.
func LeaveConversation(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conversationID, err := validators.ParseURLUUID(chi.URLParam(r, "conversationID"), "conversationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.UserFromContext(r.Context())
		if err := svc.Leave(r.Context(), actor.ID, conversationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// ChatSocket upgrades the request and attaches the caller to the hub. Origin
// filtering happens in the CORS layer; the upgrader accepts what got here.
func ChatSocket(svc chat.Service, logg *logger.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.UserFromContext(r.Context())

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the handshake failure.
			logg.Warn(r.Context(), "websocket upgrade failed")
			return
		}

		if _, err := svc.Connect(r.Context(), conn, actor.ID); err != nil {
			logg.Error(r.Context(), "websocket attach failed", err)
			conn.Close()
		}
	}
}
