package auth

import (
	"context"
	"errors"
	"fmt"

	apperrors "bptracker/internal/errors"
	"bptracker/internal/model"
)

// UserResolver loads the account a token was issued for.
type UserResolver interface {
	GetUser(ctx context.Context, id uint) (*model.User, error)
}

// Guard turns a raw access token into the calling user.
type Guard struct {
	tokens *JWTService
	users  UserResolver
}

// NewGuard creates a guard that validates with tokens and resolves with users.
func NewGuard(tokens *JWTService, users UserResolver) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Authorize returns the user identified by rawToken. A token whose user no
// longer exists is invalid; store failures are returned wrapped and are never
// downgraded to an anonymous caller.
func (g *Guard) Authorize(ctx context.Context, rawToken string) (*model.User, error) {
	userID, err := g.tokens.Validate(rawToken)
	if err != nil {
		return nil, err
	}

	user, err := g.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, fmt.Errorf("resolve token user: %w", err)
	}
	return user, nil
}
