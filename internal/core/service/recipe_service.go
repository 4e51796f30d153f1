package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rl1809/laventory/internal/core/domain"
	"github.com/rl1809/laventory/internal/port"
)

// RecipeService asks recipe providers, in order, for a recipe made of
// ingredients the user has in stock.
type RecipeService struct {
	providers []port.RecipeProvider
	ledger    *LedgerService
	logger    *slog.Logger
}

func NewRecipeService(ledger *LedgerService, logger *slog.Logger, providers ...port.RecipeProvider) *RecipeService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecipeService{
		providers: providers,
		ledger:    ledger,
		logger:    logger,
	}
}

func (s *RecipeService) Generate(ctx context.Context, id *domain.Identity, ingredients []string) (*domain.Recipe, error) {
	const op = "recipe"
	if !id.SignedIn() {
		return nil, s.fail(ctx, "", newError(op, ErrUnauthenticated, nil))
	}

	selected := uniqueNames(ingredients)
	if len(selected) == 0 {
		return nil, s.fail(ctx, id.UserID, newError(op, ErrInvalidInput, errors.New("no ingredient selected")))
	}

	snap, err := s.ledger.List(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, name := range selected {
		if _, ok := snap.Get(name); !ok {
			return nil, s.fail(ctx, id.UserID, newError(op, ErrInvalidInput, fmt.Errorf("%q is not in the inventory", name)))
		}
	}

	if len(s.providers) == 0 {
		return nil, s.fail(ctx, id.UserID, newError(op, ErrRemoteFailure, errors.New("no recipe provider configured")))
	}

	var failures []error
	for _, p := range s.providers {
		recipe, err := p.Recipe(ctx, selected)
		if err != nil {
			s.logger.WarnContext(ctx, "recipe provider failed", "provider", p.Name(), "error", err)
			failures = append(failures, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		if recipe.Valid() {
			s.logger.InfoContext(ctx, "recipe generated", "provider", p.Name(), "user_id", id.UserID, "recipe", recipe.Name)
			return recipe, nil
		}
	}

	if len(failures) == len(s.providers) {
		return nil, s.fail(ctx, id.UserID, newError(op, ErrRemoteFailure, errors.Join(failures...)))
	}
	return nil, s.fail(ctx, id.UserID, newError(op, ErrNoRecipe, nil))
}

func (s *RecipeService) fail(ctx context.Context, userID string, err *Error) error {
	logFailure(ctx, s.logger, userID, err)
	return err
}

func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = domain.NormalizeName(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
