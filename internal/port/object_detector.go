package port

import (
	"context"

	"github.com/rl1809/laventory/internal/core/domain"
)

type ObjectDetector interface {
	// Detect returns the objects recognised in a still image
	Detect(ctx context.Context, image []byte, mimeType string) ([]domain.Detection, error)
}
