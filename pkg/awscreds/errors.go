package awscreds

import (
	"fmt"
	"time"
)

// CredErrorCode categorizes credential resolution errors
type CredErrorCode string

const (
	CredCodeFileNotFound    CredErrorCode = "credentials_file_not_found"
	CredCodeProfileNotFound CredErrorCode = "profile_not_found"
	CredCodeInvalid         CredErrorCode = "invalid_credentials"
	CredCodeParse           CredErrorCode = "parse_error"
)

// CredError represents a credential resolution failure. Resolution errors
// are never retried automatically; the caller decides whether to fail the
// session or fall back.
type CredError struct {
	Code    CredErrorCode
	Profile string // empty for file-level errors
	Message string
}

// Error implements the error interface
func (e *CredError) Error() string {
	if e.Profile != "" {
		return fmt.Sprintf("profile %q: %s (code=%s)", e.Profile, e.Message, e.Code)
	}
	return fmt.Sprintf("%s (code=%s)", e.Message, e.Code)
}

// NewFileNotFoundError reports a missing credentials file on explicit lookup
func NewFileNotFoundError(path string) *CredError {
	return &CredError{
		Code:    CredCodeFileNotFound,
		Message: fmt.Sprintf("credentials file not found at %s", path),
	}
}

// NewProfileNotFoundError reports a profile absent from both AWS files
func NewProfileNotFoundError(profile string) *CredError {
	return &CredError{
		Code:    CredCodeProfileNotFound,
		Profile: profile,
		Message: "profile not found",
	}
}

// NewInvalidCredentialsError reports a profile whose credentials are
// incomplete or no longer usable
func NewInvalidCredentialsError(profile, message string) *CredError {
	return &CredError{
		Code:    CredCodeInvalid,
		Profile: profile,
		Message: message,
	}
}

// NewParseError reports unreadable files or a failed credential export
func NewParseError(message string) *CredError {
	return &CredError{
		Code:    CredCodeParse,
		Message: message,
	}
}

// NewExportTimeoutError reports a credential export that exceeded its
// wall-clock deadline and was terminated
func NewExportTimeoutError(profile string, timeout time.Duration) *CredError {
	return &CredError{
		Code:    CredCodeParse,
		Profile: profile,
		Message: fmt.Sprintf("credential export timed out after %s and was terminated", timeout),
	}
}
