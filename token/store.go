package token

import (
	"context"

	"github.com/officegrid/sentinel/id"
)

// Store defines persistence operations for feature tokens.
type Store interface {
	// CreateToken persists a new token.
	CreateToken(ctx context.Context, t *Token) error

	// GetToken retrieves a token by ID.
	GetToken(ctx context.Context, tokenID id.TokenID) (*Token, error)

	// GetTokenByName retrieves a token by its unique credential string.
	GetTokenByName(ctx context.Context, name string) (*Token, error)

	// UpdateToken persists changes to a token.
	UpdateToken(ctx context.Context, t *Token) error

	// DeactivateToken marks a token unusable for future redemptions.
	// Grants already activated through it are unaffected.
	DeactivateToken(ctx context.Context, tokenID id.TokenID) error

	// ListTokens returns tokens matching the filter.
	ListTokens(ctx context.Context, filter *ListFilter) ([]*Token, error)

	// CountTokens returns the number of tokens matching the filter.
	CountTokens(ctx context.Context, filter *ListFilter) (int64, error)
}
