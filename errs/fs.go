package errs

import (
	"errors"
	"io/fs"
)

// FromFS maps an error returned by the os package onto a kind. The path is
// kept in the cause, which *fs.PathError already formats.
func FromFS(msg string, err error) *Error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Wrap(ErrKindNotFound, msg, err)
	case errors.Is(err, fs.ErrPermission):
		return Wrap(ErrKindPermissionDenied, msg, err)
	case errors.Is(err, fs.ErrInvalid):
		return Wrap(ErrKindInvalidArgument, msg, err)
	default:
		return Wrap(ErrKindIO, msg, err)
	}
}
