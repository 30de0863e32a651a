package smc

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type ErrCode)
// and an error message.
type Error struct {
	Code ErrCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	errorCode := ""
	switch e.Code {
	case ErrCNotFound:
		errorCode = "NotFound"
	case ErrCOpenFailed:
		errorCode = "OpenFailed"
	case ErrCCommunication:
		errorCode = "Communication"
	case ErrCTypeMismatch:
		errorCode = "TypeMismatch"
	case ErrCBadKey:
		errorCode = "BadKey"
	case ErrCFrameSize:
		errorCode = "FrameSize"
	default:
		errorCode = "Unknown"
	}

	return fmt.Sprintf("SMCError (code %s): %s", errorCode, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// CodeOf extracts the ErrCode from an error. It returns ErrCSuccess for a
// nil error and ErrCUnknown for errors that do not wrap an *Error.
func CodeOf(err error) ErrCode {
	if err == nil {
		return ErrCSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCUnknown
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type ErrCode uint64

const (
	ErrCSuccess       ErrCode = iota // 0: Operation completed successfully.
	ErrCNotFound                     // 1: No matching controller service exists.
	ErrCOpenFailed                   // 2: A service was found but could not be opened.
	ErrCCommunication                // 3: An exchange reported a non-success status.
	ErrCTypeMismatch                 // 4: Payload type tag differs from the requested type.
	ErrCBadKey                       // 5: Key is not exactly four bytes.
	ErrCFrameSize                    // 6: Request or response buffer size mismatch.
	ErrCUnknown                      // 7: Error did not originate in this package.
)
