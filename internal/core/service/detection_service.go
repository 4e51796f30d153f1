package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rl1809/laventory/internal/core/domain"
	"github.com/rl1809/laventory/internal/port"
)

type DetectionService struct {
	detector port.ObjectDetector
	ledger   *LedgerService
	logger   *slog.Logger
}

// NewDetectionService accepts a nil detector; every call then fails with
// ErrRemoteFailure.
func NewDetectionService(detector port.ObjectDetector, ledger *LedgerService, logger *slog.Logger) *DetectionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DetectionService{
		detector: detector,
		ledger:   ledger,
		logger:   logger,
	}
}

// Detect returns the objects found in image, best match first.
func (s *DetectionService) Detect(ctx context.Context, id *domain.Identity, image []byte, mimeType string) ([]domain.Detection, error) {
	const op = "detect"
	if !id.SignedIn() {
		return nil, s.fail(ctx, "", newError(op, ErrUnauthenticated, nil))
	}
	if len(image) == 0 {
		return nil, s.fail(ctx, id.UserID, newError(op, ErrInvalidInput, errors.New("image is empty")))
	}
	if s.detector == nil {
		return nil, s.fail(ctx, id.UserID, newError(op, ErrRemoteFailure, errors.New("object detection is not configured")))
	}

	detections, err := s.detector.Detect(ctx, image, mimeType)
	if err != nil {
		return nil, s.fail(ctx, id.UserID, newError(op, ErrRemoteFailure, fmt.Errorf("detect: %w", err)))
	}
	return domain.RankDetections(detections), nil
}

// DetectAndAdd adds one unit of the best detected object to the ledger.
func (s *DetectionService) DetectAndAdd(ctx context.Context, id *domain.Identity, image []byte, mimeType string) (domain.Detection, domain.Snapshot, error) {
	detections, err := s.Detect(ctx, id, image, mimeType)
	if err != nil {
		return domain.Detection{}, nil, err
	}
	if len(detections) == 0 {
		return domain.Detection{}, nil, s.fail(ctx, id.UserID, newError("detect", ErrNoDetection, nil))
	}

	top := detections[0]
	snap, err := s.ledger.Add(ctx, id, top.Label, 1)
	if err != nil {
		return top, nil, err
	}
	return top, snap, nil
}

func (s *DetectionService) fail(ctx context.Context, userID string, err *Error) error {
	logFailure(ctx, s.logger, userID, err)
	return err
}
