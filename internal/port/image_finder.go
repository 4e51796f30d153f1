package port

import "context"

type ImageFinder interface {
	Name() string
	// ImageURL returns "", nil when no image matches query
	ImageURL(ctx context.Context, query string) (string, error)
}
