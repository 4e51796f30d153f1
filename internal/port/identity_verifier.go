package port

import (
	"context"

	"github.com/rl1809/laventory/internal/core/domain"
)

type IdentityVerifier interface {
	// Verify resolves a bearer token into the identity it was issued for
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}
