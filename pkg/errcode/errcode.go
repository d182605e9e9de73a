package errcode

import "fmt"

// Error represents a business error
type Error struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("errcode: %d, msg: %s", e.Code, e.Msg)
}

// New creates a new error with code and message
func New(code int, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Wrap wraps an error with additional context
func (e *Error) Wrap(err error) *Error {
	if err == nil {
		return e
	}
	return &Error{
		Code: e.Code,
		Msg:  fmt.Sprintf("%s: %v", e.Msg, err),
	}
}

// Is matches wrapped errors against their base by code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Common error codes
var (
	// Success
	ErrSuccess = New(0, "success")

	// Common errors (1xxx)
	ErrInvalidParam   = New(1001, "invalid parameter")
	ErrInternalServer = New(1002, "internal server error")

	// Network errors (2xxx)
	ErrNetworkFailure = New(2001, "network request failed")
	ErrSearchFailed   = New(2002, "user search failed")
	ErrLoadFailed     = New(2003, "message load failed")
	ErrSendFailed     = New(2004, "message send failed")

	// Conversation errors (3xxx)
	ErrUnknownConversation = New(3001, "conversation not in local store")
	ErrConvNotFound        = New(3002, "conversation not found")
	ErrNoSelection         = New(3003, "no active conversation")

	// Message errors (4xxx)
	ErrEmptySubmission = New(4001, "message has neither text nor image")

	// Push channel errors (5xxx)
	ErrChannelClosed = New(5001, "push channel closed")
)
