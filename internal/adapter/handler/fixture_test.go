package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rl1809/laventory/internal/adapter/auth"
	"github.com/rl1809/laventory/internal/adapter/storage"
	"github.com/rl1809/laventory/internal/core/domain"
	"github.com/rl1809/laventory/internal/core/service"
)

const testSecret = "test-secret"

var errBackend = errors.New("backend unavailable")

type fakeDetector struct {
	detections []domain.Detection
	err        error
}

func (f *fakeDetector) Detect(ctx context.Context, image []byte, mimeType string) ([]domain.Detection, error) {
	return f.detections, f.err
}

type fakeRecipes struct {
	recipe *domain.Recipe
	err    error
}

func (f *fakeRecipes) Name() string { return "fake" }

func (f *fakeRecipes) Recipe(ctx context.Context, ingredients []string) (*domain.Recipe, error) {
	return f.recipe, f.err
}

type fakeImages struct {
	url string
	err error
}

func (f *fakeImages) Name() string { return "fake" }

func (f *fakeImages) ImageURL(ctx context.Context, query string) (string, error) {
	return f.url, f.err
}

// brokenStore fails every write while reads still go to the memory store.
type brokenStore struct {
	*storage.MemoryStore
}

func (b brokenStore) Set(ctx context.Context, userID string, item domain.Item) error {
	return errBackend
}

func (b brokenStore) Update(ctx context.Context, userID string, item domain.Item) error {
	return errBackend
}

type fixture struct {
	store    *storage.MemoryStore
	ledger   *service.LedgerService
	detect   *fakeDetector
	recipes  *fakeRecipes
	verifier *auth.JWTVerifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemoryStore()
	return &fixture{
		store:  store,
		ledger: service.NewLedgerService(store, service.WithLogger(discardLogger())),
		detect: &fakeDetector{detections: []domain.Detection{
			{Label: "cup", Score: 0.3},
			{Label: "banana", Score: 0.8},
		}},
		recipes: &fakeRecipes{recipe: &domain.Recipe{
			Name:         "Banana Bread",
			Ingredients:  []string{"banana", "flour"},
			Instructions: []string{"Mash the bananas.", "Bake for 50 minutes."},
		}},
		verifier: auth.NewJWTVerifier(testSecret, "laventory"),
	}
}

func (f *fixture) services() (*service.DetectionService, *service.RecipeService) {
	detection := service.NewDetectionService(f.detect, f.ledger, discardLogger())
	recipes := service.NewRecipeService(f.ledger, discardLogger(), f.recipes)
	return detection, recipes
}

func (f *fixture) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := f.verifier.Issue(domain.Identity{UserID: userID, Email: userID + "@example.com"}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func (f *fixture) seed(t *testing.T, userID string, items ...domain.Item) {
	t.Helper()
	for _, item := range items {
		if err := f.store.Set(context.Background(), userID, item); err != nil {
			t.Fatalf("seed %v: %v", item, err)
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
