package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures by where they originate.
type ErrorKind string

const (
	// KindValidation covers unknown catalog names and bad arguments. Raised before any I/O.
	KindValidation ErrorKind = "validation"
	// KindUpstream covers network failures and non-2xx responses from openFDA.
	KindUpstream ErrorKind = "upstream"
	// KindPartialFetch covers a single failed item inside a multi-request aggregation.
	KindPartialFetch ErrorKind = "partial_fetch"
)

// Error is the categorized error returned by use cases and adapters.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Validation builds a validation error.
func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// Upstream builds an upstream error wrapping cause, which may be nil.
func Upstream(code, message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Code: code, Message: message, Err: cause}
}

// PartialFetch wraps the failure of one item of an aggregated read.
func PartialFetch(item string, cause error) *Error {
	return &Error{Kind: KindPartialFetch, Code: "partial_fetch", Message: fmt.Sprintf("fetching %s failed", item), Err: cause}
}

// IsKind reports whether any error in err's chain is a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// Standard validation errors for catalog lookups.
func unknownTool(name string) *Error {
	return Validation("unknown_tool", "Unknown tool: "+name)
}

func unknownResource(uri string) *Error {
	return Validation("unknown_resource", "Unknown resource URI: "+uri)
}

func unknownPrompt(name string) *Error {
	return Validation("unknown_prompt", "Unknown prompt: "+name)
}

// MissingArgument reports a required argument that was not supplied.
func MissingArgument(name string) *Error {
	return Validation("missing_argument", "missing required argument: "+name)
}
