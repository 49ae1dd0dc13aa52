package gateway

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	appErrors "github.com/noah-isme/learnlingo-api/pkg/errors"
)

// Kind classifies gateway failures.
type Kind string

const (
	KindTransport  Kind = "transport"
	KindPermission Kind = "permission"
	KindNotFound   Kind = "not_found"
)

// Error is the only error type that crosses the gateway boundary.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "failed to " + e.Op
	}
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound builds a not-found error for op.
func NotFound(op string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Err: errors.New("not found")}
}

// KindOf returns the kind of a gateway error, or KindTransport for anything else.
func KindOf(err error) Kind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindTransport
}

// IsNotFound reports whether err is a not-found gateway error.
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// Message is the human-readable cause surfaced to callers.
func Message(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// AppError maps a gateway error onto the HTTP-aware error taxonomy.
func AppError(err error, notFoundMessage string) *appErrors.Error {
	if err == nil {
		return nil
	}
	switch KindOf(err) {
	case KindNotFound:
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, http.StatusNotFound, notFoundMessage)
	case KindPermission:
		return appErrors.Wrap(err, appErrors.ErrForbidden.Code, http.StatusForbidden, appErrors.ErrForbidden.Message)
	default:
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, http.StatusServiceUnavailable, "data store unavailable")
	}
}

// postgres error classes
const (
	pqInsufficientPrivilege = "42501"
	pqForeignKeyViolation   = "23503"
)

func sqlError(op string, err error) error {
	if err == nil {
		return nil
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}
	kind := KindTransport
	var pqErr *pq.Error
	switch {
	case errors.Is(err, sql.ErrNoRows):
		kind = KindNotFound
	case errors.As(err, &pqErr) && pqErr.Code == pqInsufficientPrivilege:
		kind = KindPermission
	case errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation:
		kind = KindNotFound
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func firestoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr
	}
	kind := KindTransport
	switch status.Code(err) {
	case codes.NotFound:
		kind = KindNotFound
	case codes.PermissionDenied, codes.Unauthenticated:
		kind = KindPermission
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
