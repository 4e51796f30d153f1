package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNotFound        = errors.New("not found")
	ErrRemoteFailure   = errors.New("remote failure")
	ErrInvalidInput    = errors.New("invalid input")
	ErrNoRecipe        = errors.New("no recipe found")
	ErrNoDetection     = errors.New("no object detected")
	ErrNoImage         = errors.New("no image found")
)

var kinds = []error{
	ErrUnauthenticated,
	ErrNotFound,
	ErrInvalidInput,
	ErrNoRecipe,
	ErrNoDetection,
	ErrNoImage,
	ErrRemoteFailure,
}

var kindNames = map[error]string{
	ErrUnauthenticated: "unauthenticated",
	ErrNotFound:        "not_found",
	ErrRemoteFailure:   "remote_failure",
	ErrInvalidInput:    "invalid_input",
	ErrNoRecipe:        "no_recipe",
	ErrNoDetection:     "no_detection",
	ErrNoImage:         "no_image",
}

// Error is the failure returned by every service operation. Both the kind
// sentinel and the underlying cause are reachable through errors.Is.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the kind sentinel of err. Errors that carry no kind are
// reported as ErrRemoteFailure.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrRemoteFailure
}

// KindName is the wire name of the kind of err, empty for nil.
func KindName(err error) string {
	if err == nil {
		return ""
	}
	return kindNames[KindOf(err)]
}

func newError(op string, kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func logFailure(ctx context.Context, logger *slog.Logger, userID string, err *Error) {
	level := slog.LevelInfo
	if err.Kind == ErrRemoteFailure {
		level = slog.LevelError
	}
	logger.LogAttrs(ctx, level, "operation failed",
		slog.String("op", err.Op),
		slog.String("user_id", userID),
		slog.String("kind", kindNames[err.Kind]),
		slog.Any("error", err),
	)
}
