package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/findash/internal/service"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidScope = errors.New("invalid scope")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateScope ensures documents are always owned by a user inside a namespace.
func validateScope(scope service.Scope) error {
	if strings.TrimSpace(scope.Namespace) == "" {
		return fmt.Errorf("%w: missing namespace", ErrInvalidScope)
	}
	if strings.TrimSpace(scope.UserID) == "" {
		return fmt.Errorf("%w: missing user ID", ErrInvalidScope)
	}
	if strings.Contains(scope.UserID, "/") {
		return fmt.Errorf("%w: user ID cannot contain '/'", ErrInvalidScope)
	}
	return nil
}

// validateDocument checks the arguments shared by every document operation.
func validateDocument(ctx context.Context, scope service.Scope, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateScope(scope); err != nil {
		return err
	}
	return validateString(id, "id")
}
