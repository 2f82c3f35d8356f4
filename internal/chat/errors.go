package chat

import "errors"

var (
	// ErrBlankMessage rejects sends whose text is empty or whitespace.
	ErrBlankMessage = errors.New("message is blank")
	// ErrBusy rejects an operation while a conflicting one is in flight.
	ErrBusy = errors.New("operation already in flight")
	// ErrNoSession rejects operations that need an active session.
	ErrNoSession = errors.New("no active session")
	// ErrBadIndex rejects an edit aimed at a message that cannot be edited.
	ErrBadIndex = errors.New("message cannot be edited")
)
