package graph

import (
	"fmt"

	scanerrors "github.com/ispyb/fluorescence-scan/cmd/fluorescence-scan/errors"
)

// Error codes reported in the extensions of a GraphQL error.
const (
	CodeDataUnavailable = "DATA_UNAVAILABLE"
	CodeBadUserInput    = "BAD_USER_INPUT"
)

var (
	errDataUnavailable = &Error{
		Message: "fluorescence scan data is temporarily unavailable",
		Code:    CodeDataUnavailable,
		err:     scanerrors.ErrDataUnavailable,
	}

	errNoTypename = badUserInput("representation is missing __typename")
)

// Error is a client-facing GraphQL error. Its message never exposes the
// underlying cause.
type Error struct {
	Message string
	Code    string
	err     error
}

func (e *Error) Error() string {
	return e.Message
}

// Extensions implements the extensions interface of graphql-go, adding the
// error code to the response.
func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.Code}
}

func (e *Error) Unwrap() error {
	return e.err
}

func badUserInput(format string, a ...interface{}) *Error {
	return &Error{
		Message: fmt.Sprintf(format, a...),
		Code:    CodeBadUserInput,
		err:     scanerrors.ErrInvalidIdentifier,
	}
}
