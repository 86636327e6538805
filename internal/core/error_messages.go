// Error Codes Reference
//
// Technical errors are mapped to coded, user-facing messages so that logs and
// HTTP responses carry the same reference. Codes are grouped by category:
//
//	LOAD001 - Unknown format: the data file is neither a workbook nor delimited text
//	LOAD002 - File missing: the configured data file does not exist
//	LOAD003 - Corrupt workbook: the workbook archive cannot be read
//	LOAD004 - Sheet missing: the requested sheet is not in the workbook
//	LOAD005 - Empty workbook: the workbook has no sheets
//	LOAD006 - Parse error: a delimited text line could not be parsed
//
//	VAL001  - Invalid coordinates: latitude or longitude out of range
//	VAL002  - Invalid body: the request body is not valid JSON
//	VAL003  - Missing range: no range key in the request
//
//	SINK001 - Sink unreachable: the event store refused the connection
//	SINK002 - Sink busy: the dispatch queue is full and the event was dropped
//	SINK003 - Sink rejected: the event store answered with an error status
//
//	REQ001  - Cancelled: the request was cancelled
//	REQ002  - Timed out: the request or write timed out
//	RATE001 - Rate limited: too many requests
//
//	ERR000  - Unknown error: nothing above matched; check the logs
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Reference for logs and support
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Loading
	{
		pattern: "unknown table format",
		msg: UserMessage{
			Message: "The data file format is not supported",
			Action:  "Provide an .xlsx workbook or a comma-separated file",
			Code:    "LOAD001",
		},
	},
	{
		pattern: "file does not exist",
		msg: UserMessage{
			Message: "The data file was not found",
			Action:  "Check DATA_FILE points at the bundled workbook",
			Code:    "LOAD002",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "The data file was not found",
			Action:  "Check DATA_FILE points at the bundled workbook",
			Code:    "LOAD002",
		},
	},
	{
		pattern: "not a valid zip",
		msg: UserMessage{
			Message: "The workbook could not be read",
			Action:  "Re-export the workbook from the spreadsheet application",
			Code:    "LOAD003",
		},
	},
	{
		pattern: "does not exist",
		msg: UserMessage{
			Message: "The requested sheet is not in the workbook",
			Action:  "Check DATA_SHEET or leave it empty to use the first sheet",
			Code:    "LOAD004",
		},
	},
	{
		pattern: "workbook has no sheets",
		msg: UserMessage{
			Message: "The workbook has no sheets",
			Action:  "Provide a workbook with the range table on its first sheet",
			Code:    "LOAD005",
		},
	},
	{
		pattern: "parse error",
		msg: UserMessage{
			Message: "The data file could not be parsed",
			Action:  "Check the file is comma-separated and quotes are balanced",
			Code:    "LOAD006",
		},
	},

	// Validation
	{
		pattern: "invalid coordinates",
		msg: UserMessage{
			Message: "The reported location is not valid",
			Action:  "Send latitude in [-90, 90] and longitude in [-180, 180]",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request body could not be read",
			Action:  "Send a JSON object with a range field",
			Code:    "VAL002",
		},
	},
	{
		pattern: "range is required",
		msg: UserMessage{
			Message: "No range was selected",
			Action:  "Choose a range from the list",
			Code:    "VAL003",
		},
	},

	// Sinks
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the event store",
			Action:  "Check the sink address and that the store is running",
			Code:    "SINK001",
		},
	},
	{
		pattern: "dispatch queue full",
		msg: UserMessage{
			Message: "Too many selections are being recorded",
			Action:  "Raise SINK_MAX_INFLIGHT or check the event store latency",
			Code:    "SINK002",
		},
	},
	{
		pattern: "unexpected status",
		msg: UserMessage{
			Message: "The event store rejected the write",
			Action:  "Check the sink credentials and path",
			Code:    "SINK003",
		},
	},

	// Requests
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again in a few moments",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Please try again in a few moments",
			Code:    "REQ002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Nil maps to
// the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
