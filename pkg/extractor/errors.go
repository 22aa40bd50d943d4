package extractor

import (
	"errors"
	"fmt"
)

// ErrorKind identifies the class of an extraction failure so callers can
// map it to an HTTP status without string matching
type ErrorKind string

const (
	// KindInvalidFormat means the payload does not start with a %PDF header
	KindInvalidFormat ErrorKind = "invalid_format"
	// KindPasswordProtected means the document is encrypted
	KindPasswordProtected ErrorKind = "password_protected"
	// KindEmptyDocument means no text was recoverable through any strategy
	KindEmptyDocument ErrorKind = "empty_document"
	// KindParse covers parser failures that are not one of the above
	KindParse ErrorKind = "parse_failure"
)

// ExtractionError is a typed, non-retryable PDF processing error
type ExtractionError struct {
	Kind    ErrorKind
	Message string
}

func (e *ExtractionError) Error() string {
	return e.Message
}

// NewExtractionError builds a typed extraction error
func NewExtractionError(kind ErrorKind, format string, args ...interface{}) *ExtractionError {
	return &ExtractionError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the error kind, or the zero kind for nil and untyped errors
func KindOf(err error) ErrorKind {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}

// IsInvalidFormat reports whether err is a bad-magic-header failure
func IsInvalidFormat(err error) bool { return KindOf(err) == KindInvalidFormat }

// IsPasswordProtected reports whether err signals an encrypted document
func IsPasswordProtected(err error) bool { return KindOf(err) == KindPasswordProtected }

// IsEmptyDocument reports whether err signals a document with no
// extractable text through any path
func IsEmptyDocument(err error) bool { return KindOf(err) == KindEmptyDocument }
