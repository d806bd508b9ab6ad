package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/koor-works/koor-backend/pkg/enums"
)

// TokenType distinguishes the two JWT variants the API issues.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenPayload captures the data available when minting a JWT. SessionID is
// the server-side session row the token is bound to.
type TokenPayload struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	Role      enums.Role
}

// TokenClaims represents the typed JWT issued to clients.
type TokenClaims struct {
	UserID    uuid.UUID  `json:"user_id"`
	SessionID uuid.UUID  `json:"session_id"`
	Role      enums.Role `json:"role"`
	TokenType TokenType  `json:"token_type"`
	jwt.RegisteredClaims
}
