// Package core provides the business logic for CSV coordinate reprojection.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # Request Errors
//
//	SEL001 - Selection conflict: X and Y point at the same column
//	         Action: Choose different columns for X and Y
//	         Matches: ErrSelectionConflict
//
//	REQ001 - Missing input: no file, no fields, or no CRS selected
//	         Action: Load a CSV file and choose both coordinate systems
//	         Matches: ErrMissingPrerequisite
//
// # Coordinate Reference System Errors (CRS001-CRS099)
//
//	CRS001 - Unknown CRS: the code could not be resolved
//	         Action: Check the EPSG code or paste a proj4 definition
//	         Matches: ErrCRSResolution
//
//	CRS002 - Lookup failed: the definition service could not be reached
//	         Action: Try again later or use a CRS from the list
//	         Matches: ErrCRSResolution whose cause mentions "fetch"
//
// # Coordinate Errors (COORD001-COORD099)
//
//	COORD001 - Invalid value: a coordinate cell is not a number or DMS value
//	           Matches: *InvalidCoordinateError (row and raw values in the message)
//
//	COORD002 - Out of domain: the values are not valid for the input CRS
//	           Matches: *OutOfDomainError (raw values and CRS in the message)
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large          Patterns: "file too large", "request body too large"
//	FILE002 - Invalid CSV             Patterns: "parse csv"
//	FILE003 - Unsupported encoding    Patterns: "unknown encoding"
//	FILE004 - No file                 Patterns: "no file provided"
//	FILE005 - Empty file              Patterns: "empty file"
//
// # Conversion Errors (CONV001-CONV099)
//
//	CONV001 - System busy             Patterns: "too many concurrent conversions"
//	CONV002 - Cancelled               Patterns: "context canceled"
//	CONV003 - Timed out               Patterns: "deadline exceeded"
//
// # History Errors (HIST001-HIST099)
//
//	HIST001 - Conversion not found    Patterns: "conversion not found"
//	HIST002 - History disabled        Patterns: "history is not available"
//
// # Rate Limiting
//
//	RATE001 - Rate limited            Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check application logs for the original
// technical error when users report ERR000.
//
// # Matching Order
//
// Typed errors are checked first with errors.As / errors.Is so their messages
// can quote the offending row and values. Remaining errors are matched
// case-insensitively with strings.Contains; the first matching pattern wins.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so more specific patterns come first.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "parse csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure the file is comma-separated with a header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unknown encoding",
		msg: UserMessage{
			Message: "The selected text encoding is not supported",
			Action:  "Save the file as UTF-8 or pick another encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file with X and Y columns",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a CSV file with a header and data rows",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Conversion Errors (CONV001-CONV003)
	// =========================================================================
	{
		pattern: "too many concurrent conversions",
		msg: UserMessage{
			Message: "Too many conversions in progress",
			Action:  "Please wait a moment and try again",
			Code:    "CONV001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Conversion was cancelled",
			Action:  "Please try again",
			Code:    "CONV002",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Conversion timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "CONV003",
		},
	},

	// =========================================================================
	// History Errors (HIST001-HIST002)
	// =========================================================================
	{
		pattern: "conversion not found",
		msg: UserMessage{
			Message: "Conversion not found",
			Action:  "Check the conversion ID",
			Code:    "HIST001",
		},
	},
	{
		pattern: "history is not available",
		msg: UserMessage{
			Message: "Conversion history is not enabled on this server",
			Action:  "Configure DATABASE_URL to keep a history",
			Code:    "HIST002",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
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

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	_, err := core.Reproject(req)
//	msg := core.MapError(err)
//	// msg.Code == "COORD001"
//	// msg.Message == "Invalid value in row 2: (bad, 3)"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if msg, ok := mapTypedError(err); ok {
		return msg
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// mapTypedError handles the conversion errors that carry their own context.
func mapTypedError(err error) (UserMessage, bool) {
	var invalid *InvalidCoordinateError
	if errors.As(err, &invalid) {
		return UserMessage{
			Message: fmt.Sprintf("Invalid value in row %d: (%s, %s)", invalid.Row, invalid.RawX, invalid.RawY),
			Action:  "Fix the coordinate value or clear the row's coordinate cells",
			Code:    "COORD001",
		}, true
	}

	var domain *OutOfDomainError
	if errors.As(err, &domain) {
		return UserMessage{
			Message: fmt.Sprintf("The values %s, %s are not valid for the selected coordinate system (%s)",
				domain.RawX, domain.RawY, domain.InputCRS),
			Action: "Check that the input coordinate system matches the data",
			Code:   "COORD002",
		}, true
	}

	switch {
	case errors.Is(err, ErrSelectionConflict):
		return UserMessage{
			Message: "X and Y must be different columns",
			Action:  "Choose different columns for X and Y",
			Code:    "SEL001",
		}, true
	case errors.Is(err, ErrMissingPrerequisite):
		return UserMessage{
			Message: "A file, both coordinate fields and both coordinate systems are required",
			Action:  "Load a CSV file and choose the input and output coordinate systems",
			Code:    "REQ001",
		}, true
	case errors.Is(err, ErrCRSResolution):
		if strings.Contains(strings.ToLower(err.Error()), "fetch") {
			return UserMessage{
				Message: "The coordinate system definition could not be downloaded",
				Action:  "Try again later or choose a coordinate system from the list",
				Code:    "CRS002",
			}, true
		}
		return UserMessage{
			Message: "Invalid CRS code or CRS not found",
			Action:  "Check the EPSG code or paste a proj4 definition",
			Code:    "CRS001",
		}, true
	}

	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean message for users.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
