package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/receiptsplit/internal/errs"
	"github.com/mmynk/receiptsplit/internal/storage"
)

// toConnectError maps engine and storage failures onto Connect codes.
// Errors that already carry a code pass through.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrStaleWrite):
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, storage.ErrDuplicate):
		return connect.NewError(connect.CodeAlreadyExists, err)
	}

	var e *errs.Error
	if !errors.As(err, &e) {
		return connect.NewError(connect.CodeInternal, err)
	}
	switch e.Kind {
	case errs.Forbidden:
		return connect.NewError(connect.CodePermissionDenied, err)
	case errs.InvalidInput:
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errs.NotFound:
		return connect.NewError(connect.CodeNotFound, err)
	case errs.Conflict:
		return connect.NewError(connect.CodeFailedPrecondition, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
