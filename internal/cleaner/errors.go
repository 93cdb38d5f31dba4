package cleaner

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// ErrorReason categorizes why a trash move or rollback failed
type ErrorReason int

const (
	ErrorPermissionDenied ErrorReason = iota
	ErrorFileInUse
	ErrorFileNotFound
	ErrorDiskFull
	ErrorTargetExists
	ErrorUnknown
)

// String returns a human-readable error reason
func (e ErrorReason) String() string {
	switch e {
	case ErrorPermissionDenied:
		return "Permission denied"
	case ErrorFileInUse:
		return "File is in use"
	case ErrorFileNotFound:
		return "File not found"
	case ErrorDiskFull:
		return "Disk full"
	case ErrorTargetExists:
		return "Target already exists"
	case ErrorUnknown:
		return "Unknown error"
	default:
		return "Unspecified error"
	}
}

// MoveError represents a categorized trash-move failure
type MoveError struct {
	Path      string
	Reason    ErrorReason
	Original  error
	Retryable bool
}

// Error implements the error interface
func (e *MoveError) Error() string {
	return fmt.Sprintf("%s: %s (%v)", e.Path, e.Reason, e.Original)
}

func (e *MoveError) Unwrap() error {
	return e.Original
}

// CategorizeError analyzes an error and returns a categorized MoveError
func CategorizeError(path string, err error) *MoveError {
	if err == nil {
		return nil
	}

	moveErr := &MoveError{
		Path:     path,
		Original: err,
		Reason:   ErrorUnknown,
	}

	if os.IsNotExist(err) {
		moveErr.Reason = ErrorFileNotFound
		return moveErr
	}

	if os.IsPermission(err) {
		moveErr.Reason = ErrorPermissionDenied
		return moveErr
	}

	if os.IsExist(err) {
		moveErr.Reason = ErrorTargetExists
		return moveErr
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM:
			moveErr.Reason = ErrorPermissionDenied
		case syscall.EBUSY, syscall.ETXTBSY:
			moveErr.Reason = ErrorFileInUse
			moveErr.Retryable = true
		case syscall.ENOENT:
			moveErr.Reason = ErrorFileNotFound
		case syscall.ENOSPC:
			moveErr.Reason = ErrorDiskFull
		case syscall.EEXIST:
			moveErr.Reason = ErrorTargetExists
		}
	}

	return moveErr
}
