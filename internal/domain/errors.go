package domain

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrEmptyMessage     = errors.New("message has no content")
	ErrMessageTooLarge  = errors.New("message too large")
	ErrMessageNotFound  = errors.New("message not found")
	ErrNotRecipient     = errors.New("caller is not the recipient")
	ErrUploadFailed     = errors.New("media upload failed")
	ErrStoreUnavailable = errors.New("message store unavailable")
)
