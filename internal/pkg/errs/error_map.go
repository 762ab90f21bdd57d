/*
Package errs provides the application's coded error type.

This file maps every error code to its user-facing message and, where an
HTTP exchange is involved, the response status.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
// History and send failures deliberately expose no internal detail.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Messaging and History Errors
	ErrMessageEmpty:          {Code: ErrMessageEmpty, Message: "Message text cannot be empty."},
	ErrMessageContentTooLong: {Code: ErrMessageContentTooLong, Message: "Message is too long."},
	ErrMessageSendFailed:     {Code: ErrMessageSendFailed, Message: "Error sending message"},
	ErrHistoryLoadFailed:     {Code: ErrHistoryLoadFailed, Message: "Error loading messages"},
	ErrJoinRequired:          {Code: ErrJoinRequired, Message: "Join the chat before sending events."},

	// 3xxx: Authentication and Session Errors
	ErrUnauthorized: {Code: ErrUnauthorized, Message: "Authentication failed.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
