package errors

import "fmt"

var (
	// Message mutation taxonomy. These are reported to the originating
	// requester only and never broadcast.
	ErrUnauthorized   = fmt.Errorf("requester is not the message sender")
	ErrNotFound       = fmt.Errorf("message not found")
	ErrMessageDeleted = fmt.Errorf("message already deleted")
	ErrEmptyContent   = fmt.Errorf("message content is empty")

	ErrChannelNotFound = fmt.Errorf("channel not found")
	ErrUserNotFound    = fmt.Errorf("user not found")
	ErrAlreadyMember   = fmt.Errorf("user is already a channel member")
	ErrEmailTaken      = fmt.Errorf("email already registered")
	ErrUsernameTaken   = fmt.Errorf("username already taken")

	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")

	// ErrSlowConsumer is returned by a connection whose outbound buffer is
	// full. The router reacts by disconnecting the connection.
	ErrSlowConsumer = fmt.Errorf("outbound buffer full")

	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")
)
