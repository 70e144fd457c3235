package domain

import "errors"

var (
	ErrRequiredFieldsMissing = errors.New("required field(s) missing")
	ErrMissingID             = errors.New("missing _id")
	ErrNoUpdateFields        = errors.New("no update field(s) sent")
	ErrCouldNotUpdate        = errors.New("could not update")
	ErrCouldNotDelete        = errors.New("could not delete")
)

// Infrastructure failures. These surface as 500 responses with a generic body.
var (
	ErrRetrieval = errors.New("could not retrieve issues")
	ErrPersist   = errors.New("could not save issue")
)

// ErrInvalidInput marks a request body that could not be decoded.
var ErrInvalidInput = errors.New("invalid input")

// IssueError is a business failure reported to the caller in the response
// body. ID is echoed back when the request carried one.
type IssueError struct {
	Err error
	ID  string
}

// NewIssueError wraps a business sentinel with the id it applies to.
func NewIssueError(err error, id string) *IssueError {
	return &IssueError{Err: err, ID: id}
}

func (e *IssueError) Error() string {
	if e.ID == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.ID
}

func (e *IssueError) Unwrap() error {
	return e.Err
}

// ValidationError represents a field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
