package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidInput      = errors.New("invalid input")
	ErrRemoteCallFailed  = errors.New("remote call failed")
	ErrEmptyResult       = errors.New("empty result")
	ErrPersistenceFailed = errors.New("persistence failed")
)

// UserMessage strips the taxonomy prefix so that job records carry the
// provider-facing text only.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var msg *MessageError
	if errors.As(err, &msg) {
		return msg.Message
	}
	return err.Error()
}

// MessageError pairs a taxonomy sentinel with the text shown to the user.
type MessageError struct {
	Kind    error
	Message string
}

// NewMessageError builds a MessageError for the given sentinel.
func NewMessageError(kind error, message string) *MessageError {
	return &MessageError{Kind: kind, Message: message}
}

func (e *MessageError) Error() string { return e.Message }

func (e *MessageError) Unwrap() error { return e.Kind }
