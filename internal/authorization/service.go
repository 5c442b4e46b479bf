package authorization

import (
	"context"
	"errors"
)

var (
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidObject   = errors.New("invalid_object")
	ErrInvalidAction   = errors.New("invalid_action")
)

// Service decides whether the principal in ctx may perform action on object.
type Service interface {
	Authorize(ctx context.Context, object string, action string) error
}
