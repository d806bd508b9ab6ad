package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/koor-works/koor-backend/pkg/db/models"
)

type contextKey string

const (
	ctxUser      contextKey = "user"
	ctxSessionID contextKey = "session_id"
)

// UserFromContext returns the authenticated user, or nil outside the auth
// middleware.
func UserFromContext(ctx context.Context) *models.User {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxUser).(*models.User); ok {
		return v
	}
	return nil
}

// SessionIDFromContext returns the session row id bound to the access token.
func SessionIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxSessionID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

// WithUser injects the authenticated user, used by tests and the websocket
// handshake.
func WithUser(ctx context.Context, user *models.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUser, user)
}

// WithSessionID injects the session id into the context.
func WithSessionID(ctx context.Context, sessionID uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}
