package port

import (
	"context"

	"github.com/rl1809/laventory/internal/core/domain"
)

type RecipeProvider interface {
	Name() string

	// Recipe returns nil, nil when no recipe uses the ingredients
	Recipe(ctx context.Context, ingredients []string) (*domain.Recipe, error)
}
