package sourcemap

import "fmt"

// Kind classifies the hard failures the package can report (spec §7). UNMAPPED
// is not one of these: it is an in-band query result, never an error.
type Kind int

const (
	// InvalidMap covers structural problems: wrong or missing version, a map
	// with neither "mappings" nor "sections", or one with both.
	InvalidMap Kind = iota + 1

	// MalformedVLQ covers problems found while decoding the "mappings" string
	// itself: an illegal Base64 character, a truncated continuation, a value
	// outside the 32-bit signed range, or a segment with arity outside {1,4,5}.
	MalformedVLQ

	// UnsupportedComposition covers a composition whose input maps don't fit
	// the shape Compose requires: a tail map that isn't flat, or a map strictly
	// between the first and the tail that isn't a flat map with at most one
	// source. The first map may be indexed or carry several sources.
	UnsupportedComposition
)

func (k Kind) String() string {
	switch k {
	case InvalidMap:
		return "InvalidMap"
	case MalformedVLQ:
		return "MalformedVLQ"
	case UnsupportedComposition:
		return "UnsupportedComposition"
	default:
		return "UnknownKind"
	}
}

// Error is the error type returned by every fallible entry point in this
// package. Construction-time errors (Parse, NewConsumer, Compose) are always
// of this type; queries are total and never fail once a Consumer exists.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// Is lets callers use errors.Is(err, sourcemap.ErrMalformedVLQ) and friends
// without caring about the specific message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinel values for errors.Is comparisons; their Msg is never shown to users.
var (
	ErrInvalidMap             = &Error{Kind: InvalidMap}
	ErrMalformedVLQ           = &Error{Kind: MalformedVLQ}
	ErrUnsupportedComposition = &Error{Kind: UnsupportedComposition}
)

func invalidMap(format string, args ...interface{}) *Error {
	return &Error{Kind: InvalidMap, Msg: fmt.Sprintf(format, args...)}
}

func malformedVLQ(format string, args ...interface{}) *Error {
	return &Error{Kind: MalformedVLQ, Msg: fmt.Sprintf(format, args...)}
}

func unsupportedComposition(format string, args ...interface{}) *Error {
	return &Error{Kind: UnsupportedComposition, Msg: fmt.Sprintf(format, args...)}
}
