/*
Package errs provides the application's coded error type.

This file lists the error code constants, grouped by family. Codes identify
failures both internally and on the wire.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrRateLimitExceeded indicates that the request rate exceeded the limit.
	ErrRateLimitExceeded = 1002
)

// 2xxx: Messaging and History Errors
const (
	// ErrMessageEmpty indicates that the message text was empty after trimming.
	ErrMessageEmpty = 2101

	// ErrMessageContentTooLong indicates that the message text exceeded the byte cap.
	ErrMessageContentTooLong = 2102

	// ErrMessageSendFailed indicates that persisting a message failed; the
	// message was not broadcast and the sender may retry.
	ErrMessageSendFailed = 2103

	// ErrHistoryLoadFailed indicates that fetching recent history on join failed.
	ErrHistoryLoadFailed = 2104

	// ErrJoinRequired indicates a chat event arrived before the connection joined.
	ErrJoinRequired = 2105
)

// 3xxx: Authentication and Session Errors
const (
	// ErrUnauthorized indicates a missing, malformed, or expired credential
	// at connection handshake.
	ErrUnauthorized = 3001
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified internal error.
	ErrUnknown = 5000
)
