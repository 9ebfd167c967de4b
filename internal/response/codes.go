package response

import (
	"errors"
	"fmt"
	"net/http"
)

// Click error codes. The numbers are the gateway contract and must not change.
const (
	CodeSuccess             = 0
	CodeSignCheckFailed     = -1
	CodeIncorrectAmount     = -2
	CodeActionNotFound      = -3
	CodeAlreadyPaid         = -4
	CodeTransactionNotFound = -6
	CodeUpdateFailed        = -7
	CodeBadRequest          = -8
	CodeClickError          = -9
)

// Notes sent with each code
const (
	NoteSuccess             = "Success"
	NoteSignCheckFailed     = "SIGN CHECK FAILED!"
	NoteIncorrectAmount     = "Incorrect parameter amount"
	NoteActionNotFound      = "Action not found"
	NoteAlreadyPaid         = "Transaction already paid"
	NoteTransactionNotFound = "Transaction does not exist"
	NoteUpdateFailed        = "Failed to update transaction"
	NoteBadRequest          = "Error in request from click"
	NoteClickError          = "Click error"
	NoteProductNotFound     = "Product not found"
)

// ClickError is a business failure with its gateway code. Err keeps the
// underlying cause for logging and is never sent to the caller.
type ClickError struct {
	Code       int
	Note       string
	HTTPStatus int
	Err        error
}

func (e *ClickError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("click error %d: %s (%v)", e.Code, e.Note, e.Err)
	}
	return fmt.Sprintf("click error %d: %s", e.Code, e.Note)
}

func (e *ClickError) Unwrap() error {
	return e.Err
}

// NewClickError creates a ClickError
func NewClickError(code int, note string) *ClickError {
	return &ClickError{Code: code, Note: note}
}

// Wrap attaches the cause to a ClickError
func Wrap(err error, code int, note string) *ClickError {
	return &ClickError{Code: code, Note: note, Err: err}
}

// AsClickError extracts a *ClickError from an error chain
func AsClickError(err error) (*ClickError, bool) {
	var ce *ClickError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

var (
	ErrSignCheckFailed     = NewClickError(CodeSignCheckFailed, NoteSignCheckFailed)
	ErrIncorrectAmount     = NewClickError(CodeIncorrectAmount, NoteIncorrectAmount)
	ErrActionNotFound      = NewClickError(CodeActionNotFound, NoteActionNotFound)
	ErrAlreadyPaid         = NewClickError(CodeAlreadyPaid, NoteAlreadyPaid)
	ErrTransactionNotFound = NewClickError(CodeTransactionNotFound, NoteTransactionNotFound)
	ErrBadRequest          = NewClickError(CodeBadRequest, NoteBadRequest)

	// ErrProductNotFound keeps the code the storefront already handles.
	ErrProductNotFound = &ClickError{Code: -1, Note: NoteProductNotFound, HTTPStatus: http.StatusBadRequest}
)

// UpstreamError translates an error reported by Click in a complete callback:
// a cancelled payment (-1) becomes -4, anything else -9.
func UpstreamError(clickError int) *ClickError {
	if clickError == -1 {
		return NewClickError(CodeAlreadyPaid, NoteClickError)
	}
	return NewClickError(CodeClickError, NoteClickError)
}

// InvalidInput is a 400 for merchant endpoints
func InvalidInput(note string) *ClickError {
	return &ClickError{Code: -1, Note: note, HTTPStatus: http.StatusBadRequest}
}

// Internal is a 500 for merchant endpoints; the cause is kept for logging only
func Internal(err error, note string) *ClickError {
	return &ClickError{Code: CodeUpdateFailed, Note: note, HTTPStatus: http.StatusInternalServerError, Err: err}
}
