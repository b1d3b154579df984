// Package diag implements the filter's Error Channel (spec.md §4H): an
// ordered list of {code, message, span} diagnostics distinct from Go
// error values, since a filter accumulates many errors per compile
// pass rather than failing on the first one.
package diag

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/CESNET/flowfilter/pkg/ast"
)

// Code identifies a diagnostic's taxonomy (spec.md §7).
type Code int

const (
	CodeLex Code = iota
	CodeParse
	CodeUnknownIdentifier
	CodeType
	CodeAmbiguous
	CodeList
	CodeDivisionByZero
	CodeInternal
)

func (c Code) String() string {
	switch c {
	case CodeLex:
		return "LexError"
	case CodeParse:
		return "ParseError"
	case CodeUnknownIdentifier:
		return "UnknownIdentifier"
	case CodeType:
		return "TypeError"
	case CodeAmbiguous:
		return "Ambiguous"
	case CodeList:
		return "ListError"
	case CodeDivisionByZero:
		return "DivisionByZero"
	case CodeInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Diagnostic is one entry in the channel. Span is the zero value when
// the error has no meaningful source location (e.g. a post-compile
// internal failure raised from the evaluator without node context).
type Diagnostic struct {
	Code    Code
	Message string
	Span    ast.Span
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s (at %d:%d)", d.Code, d.Message, d.Span.Begin, d.Span.End)
}

// Channel is the ordered, append-only diagnostic list owned by one
// compiled filter instance. InstanceID tags it for correlation across
// logs, grounded on the teacher's use of generated machine/request ids
// (pkg/utils.GenerateUUID in the source middleware) replaced here by
// google/uuid per this module's domain-stack choice.
type Channel struct {
	InstanceID  uuid.UUID
	diagnostics []Diagnostic
}

// NewChannel creates an empty channel tagged with a fresh instance id.
func NewChannel() *Channel {
	return &Channel{InstanceID: uuid.New()}
}

// Add appends a diagnostic.
func (c *Channel) Add(code Code, span ast.Span, format string, args ...interface{}) {
	c.diagnostics = append(c.diagnostics, Diagnostic{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	})
}

// Count returns the number of accumulated diagnostics.
func (c *Channel) Count() int { return len(c.diagnostics) }

// Reset discards every accumulated diagnostic, keeping InstanceID
// stable across a filter's repeated Compile calls.
func (c *Channel) Reset() { c.diagnostics = nil }

// At returns the Nth diagnostic and whether it exists, matching
// fds_filter_get_error_message/get_error_location's indexed access.
func (c *Channel) At(index int) (Diagnostic, bool) {
	if index < 0 || index >= len(c.diagnostics) {
		return Diagnostic{}, false
	}
	return c.diagnostics[index], true
}

// All returns every accumulated diagnostic in append order.
func (c *Channel) All() []Diagnostic {
	return c.diagnostics
}

// HasErrors reports whether any diagnostic was ever appended. Analysis
// reports success only while this is false (spec.md §7 propagation
// policy); lexer and parser errors end compilation before analysis runs.
func (c *Channel) HasErrors() bool { return len(c.diagnostics) > 0 }
