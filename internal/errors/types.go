// Package errors provides the structured error taxonomy shared by every
// xdevkit package: configuration problems, missing files, failed external
// tools, network failures and internal faults.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeTool       ErrorType = "tool"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeInternal   ErrorType = "internal"
)

// KitError is a structured error type with context.
type KitError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	FilePath    string
	Recoverable bool
}

// Error implements the error interface.
func (e *KitError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *KitError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison on type and code.
func (e *KitError) Is(target error) bool {
	var t *KitError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *KitError) WithContext(key string, value interface{}) *KitError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithFile adds file location information.
func (e *KitError) WithFile(filePath string) *KitError {
	e.FilePath = filePath

	return e
}

// WithComponent adds component context.
func (e *KitError) WithComponent(component string) *KitError {
	e.Component = component

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *KitError {
	return &KitError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *KitError {
	return &KitError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *KitError {
	return &KitError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewToolError creates an error for an external tool invocation.
func NewToolError(code, message string, cause error) *KitError {
	return &KitError{
		Type:        ErrorTypeTool,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewNetworkError creates a network error.
func NewNetworkError(code, message string, cause error) *KitError {
	return &KitError{
		Type:        ErrorTypeNetwork,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *KitError {
	return &KitError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsConfigError checks if an error is configuration-related.
func IsConfigError(err error) bool {
	return hasType(err, ErrorTypeConfig)
}

// IsToolError checks if an error came from an external tool.
func IsToolError(err error) bool {
	return hasType(err, ErrorTypeTool)
}

// IsIOError checks if an error is an I/O error.
func IsIOError(err error) bool {
	return hasType(err, ErrorTypeIO)
}

// IsNetworkError checks if an error is a network error.
func IsNetworkError(err error) bool {
	return hasType(err, ErrorTypeNetwork)
}

func hasType(err error, t ErrorType) bool {
	var ke *KitError
	if errors.As(err, &ke) {
		return ke.Type == t
	}

	return false
}

// Common error codes.
const (
	ErrCodeInvalidPath        = "ERR_INVALID_PATH"
	ErrCodePathTraversal      = "ERR_PATH_TRAVERSAL"
	ErrCodeConfigInvalid      = "ERR_CONFIG_INVALID"
	ErrCodePageConfigMissing  = "ERR_PAGE_CONFIG_MISSING"
	ErrCodePageConfigParse    = "ERR_PAGE_CONFIG_PARSE"
	ErrCodeInlineFileMissing  = "ERR_INLINE_FILE_MISSING"
	ErrCodeFileOperation      = "ERR_FILE_OPERATION"
	ErrCodeToolNotFound       = "ERR_TOOL_NOT_FOUND"
	ErrCodeToolFailed         = "ERR_TOOL_FAILED"
	ErrCodeToolOutputMismatch = "ERR_TOOL_OUTPUT_MISMATCH"
	ErrCodeDownloadFailed     = "ERR_DOWNLOAD_FAILED"
	ErrCodeArchiveInvalid     = "ERR_ARCHIVE_INVALID"
	ErrCodeDestinationExists  = "ERR_DESTINATION_EXISTS"
	ErrCodeInternalError      = "ERR_INTERNAL"
)

// ErrPathTraversal reports a path that would resolve outside its root.
func ErrPathTraversal(path string) *KitError {
	return NewValidationError(ErrCodePathTraversal, "path escapes its root: "+path).WithFile(path)
}

// ErrPageConfigMissing reports a template whose page identifier has no entry
// in the loaded page configuration.
func ErrPageConfigMissing(pageID string) *KitError {
	return NewConfigError(
		ErrCodePageConfigMissing,
		"page config undefined: "+pageID,
	).WithContext("page", pageID)
}

// ErrInlineFileMissing reports an inline script or stylesheet that does not
// exist at render time.
func ErrInlineFileMissing(path string, cause error) *KitError {
	return NewIOError(
		ErrCodeInlineFileMissing,
		"inline asset file not exists: "+path,
		cause,
	).WithFile(path)
}

// ErrToolNotFound reports an executable missing from PATH.
func ErrToolNotFound(tool string, cause error) *KitError {
	return NewToolError(
		ErrCodeToolNotFound,
		fmt.Sprintf("%s not found in PATH", tool),
		cause,
	).WithContext("tool", tool)
}

// ErrToolFailed reports a non-zero exit of an external tool.
func ErrToolFailed(tool string, exitCode int, stderr string, cause error) *KitError {
	return NewToolError(
		ErrCodeToolFailed,
		fmt.Sprintf("%s exited with status %d", tool, exitCode),
		cause,
	).WithContext("tool", tool).
		WithContext("exit_code", exitCode).
		WithContext("stderr", stderr)
}

// ErrDownloadFailed reports a failed archive download.
func ErrDownloadFailed(url string, cause error) *KitError {
	return NewNetworkError(
		ErrCodeDownloadFailed,
		"download failed: "+url,
		cause,
	).WithContext("url", url)
}
