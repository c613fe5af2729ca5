package errors

import (
	"errors"
	"strings"
)

// Wrap wraps an error with additional context, creating a KitError if the
// input is not already one.
func Wrap(err error, errType ErrorType, code, message string) *KitError {
	if err == nil {
		return nil
	}

	var ke *KitError
	if errors.As(err, &ke) {
		return &KitError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       ke,
			Context:     ke.Context,
			Component:   ke.Component,
			FilePath:    ke.FilePath,
			Recoverable: ke.Recoverable,
		}
	}

	return &KitError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation,
	}
}

// WrapIO wraps a filesystem failure for the given path.
func WrapIO(err error, message, path string) *KitError {
	ke := Wrap(err, ErrorTypeIO, ErrCodeFileOperation, message)
	if ke != nil {
		ke.FilePath = path
	}

	return ke
}

// WrapConfig wraps an error as a configuration error.
func WrapConfig(err error, code, message string) *KitError {
	return Wrap(err, ErrorTypeConfig, code, message)
}

// WrapValidation wraps an error as a validation error.
func WrapValidation(err error, code, message string) *KitError {
	return Wrap(err, ErrorTypeValidation, code, message)
}

// FormatError renders err for the terminal. A failed tool's captured stderr
// follows the error line, and network and filesystem failures get a hint.
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(err.Error())

	var ke *KitError
	if errors.As(err, &ke) {
		if stderr, _ := ke.Context["stderr"].(string); IsToolError(err) && strings.TrimSpace(stderr) != "" {
			for _, line := range strings.Split(strings.TrimRight(stderr, "\n"), "\n") {
				b.WriteString("\n  | ")
				b.WriteString(line)
			}
		}
	}

	switch {
	case IsNetworkError(err):
		b.WriteString("\nhint: check the archive URL (--url) and your network connection")
	case IsIOError(err):
		b.WriteString("\nhint: check that the file exists and the output directory is writable")
	}

	return b.String()
}

// GetErrorContext extracts context information from a KitError, suitable
// for structured log fields.
func GetErrorContext(err error) map[string]interface{} {
	var ke *KitError
	if errors.As(err, &ke) {
		context := make(map[string]interface{}, len(ke.Context)+4)
		for k, v := range ke.Context {
			context[k] = v
		}
		if ke.Component != "" {
			context["component"] = ke.Component
		}
		if ke.FilePath != "" {
			context["file"] = ke.FilePath
		}
		context["type"] = string(ke.Type)
		context["code"] = ke.Code

		return context
	}

	return map[string]interface{}{
		"message": err.Error(),
		"type":    "unknown",
	}
}

// IsFatalError reports whether err is a failure rather than rejected input.
// Validation errors are the only recoverable kind.
func IsFatalError(err error) bool {
	var ke *KitError
	if errors.As(err, &ke) {
		return !ke.Recoverable
	}

	return err != nil
}
