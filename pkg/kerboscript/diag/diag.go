// Package diag defines the positions, ranges, and diagnostics shared by every
// stage of the analysis pipeline.
//
// Positions are zero-based line/character pairs and the Diagnostic shape
// mirrors the editor protocol's wire format, so results can be handed to a
// transport layer without translation.
package diag

import "fmt"

// Position is a zero-based line/character pair.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Before reports whether p comes strictly before other in the document.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

// After reports whether p comes strictly after other in the document.
func (p Position) After(other Position) bool {
	return other.Before(p)
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Character+1)
}

// Range is a half-open span between two positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Contains reports whether pos falls inside the range.
func (r Range) Contains(pos Position) bool {
	return !pos.Before(r.Start) && pos.Before(r.End)
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// Location is a range inside a named document.
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// Severity follows the editor-protocol numbering.
type Severity int

const (
	SeverityError       Severity = 1
	SeverityWarning     Severity = 2
	SeverityInformation Severity = 3
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "information"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Diagnostic codes, used for severity overrides and test assertions.
const (
	CodeParse           = "parse"
	CodeRedeclared      = "redeclared"
	CodeShadowed        = "shadowed"
	CodeUnresolved      = "unresolved"
	CodeUnusedVariable  = "unused-variable"
	CodeUnusedParameter = "unused-parameter"
	CodeUnusedLock      = "unused-lock"
	CodeType            = "type"
	CodeLoad            = "load"
)

// RelatedInformation cross-references another location, such as the original
// declaration a shadowing warning points back to.
type RelatedInformation struct {
	Location Location `json:"location"`
	Message  string   `json:"message"`
}

// Diagnostic is one reported problem.
type Diagnostic struct {
	Range              Range                `json:"range"`
	Message            string               `json:"message"`
	Severity           Severity             `json:"severity"`
	Code               string               `json:"code,omitempty"`
	RelatedInformation []RelatedInformation `json:"relatedInformation,omitempty"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s", d.Range.Start, d.Severity, d.Message)
}

// NewError builds an error-severity diagnostic.
func NewError(rng Range, code, message string) Diagnostic {
	return Diagnostic{Range: rng, Message: message, Severity: SeverityError, Code: code}
}

// NewWarning builds a warning-severity diagnostic.
func NewWarning(rng Range, code, message string) Diagnostic {
	return Diagnostic{Range: rng, Message: message, Severity: SeverityWarning, Code: code}
}

// ParseError is a structured syntax error produced by the parser. Construct
// names the production that was being attempted when the failure happened;
// the statement loops use it to pick a resynchronization target and the
// Inner list carries errors from inside a failed block so one reported
// diagnostic can expose the whole region.
type ParseError struct {
	Range     Range
	Message   string
	Construct string
	Example   string
	Inner     []*ParseError
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Range.Start, e.Message)
}

// Diagnostic converts the parse error, and its nested errors, to the wire
// shape. Nested errors become related information on the outer diagnostic.
func (e *ParseError) Diagnostic(uri string) Diagnostic {
	d := NewError(e.Range, CodeParse, e.Message)
	if e.Example != "" {
		d.Message += " (e.g. " + e.Example + ")"
	}
	for _, inner := range e.Inner {
		d.RelatedInformation = append(d.RelatedInformation, RelatedInformation{
			Location: Location{URI: uri, Range: inner.Range},
			Message:  inner.Message,
		})
	}
	return d
}
