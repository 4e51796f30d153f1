package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rl1809/laventory/internal/core/domain"
	"github.com/rl1809/laventory/internal/port"
)

// ImageService looks up a stock picture for an item the user has in stock.
type ImageService struct {
	finder port.ImageFinder
	ledger *LedgerService
	logger *slog.Logger
}

// NewImageService accepts a nil finder, every lookup then fails as a remote
// failure.
func NewImageService(ledger *LedgerService, finder port.ImageFinder, logger *slog.Logger) *ImageService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageService{
		finder: finder,
		ledger: ledger,
		logger: logger,
	}
}

func (s *ImageService) Find(ctx context.Context, id *domain.Identity, name string) (string, error) {
	const op = "image"
	if !id.SignedIn() {
		return "", s.fail(ctx, "", newError(op, ErrUnauthenticated, nil))
	}

	name = domain.NormalizeName(name)
	if name == "" {
		return "", s.fail(ctx, id.UserID, newError(op, ErrInvalidInput, errors.New("item name is required")))
	}

	snap, err := s.ledger.List(ctx, id)
	if err != nil {
		return "", err
	}
	if _, ok := snap.Get(name); !ok {
		return "", s.fail(ctx, id.UserID, newError(op, ErrNotFound, nil))
	}

	if s.finder == nil {
		return "", s.fail(ctx, id.UserID, newError(op, ErrRemoteFailure, errors.New("no image provider configured")))
	}

	url, err := s.finder.ImageURL(ctx, name)
	if err != nil {
		return "", s.fail(ctx, id.UserID, newError(op, ErrRemoteFailure, err))
	}
	if url == "" {
		return "", s.fail(ctx, id.UserID, newError(op, ErrNoImage, nil))
	}
	return url, nil
}

func (s *ImageService) fail(ctx context.Context, userID string, err *Error) error {
	logFailure(ctx, s.logger, userID, err)
	return err
}
