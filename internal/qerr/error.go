package qerr

import "fmt"

// CallSite is one frame of a lazily-unwound traceback entry.
type CallSite struct {
	Function string
	Filename string
	Line     int
}

// Thrown is the engine's error object: a message plus the kind tag and,
// once augmented, a source location and call-site traceback. It implements
// the standard error interface so it can travel through normal Go
// (result, error) returns in place of a longjmp.
type Thrown struct {
	Kind      Kind
	Message   string
	Filename  string
	Line      int
	Traceback []CallSite
}

// Error implements the error interface.
func (t *Thrown) Error() string {
	if t.Filename != "" {
		return fmt.Sprintf("%s: %s (%s:%d)", t.Kind, t.Message, t.Filename, t.Line)
	}
	return fmt.Sprintf("%s: %s", t.Kind, t.Message)
}

// New constructs a Thrown of the given kind with a formatted message. It is
// the Go-idiomatic replacement for the reference implementation's
// variadic DUK_ERROR macro: callers propagate the returned error instead of
// a longjmp to the nearest catchpoint.
func New(kind Kind, format string, args ...any) *Thrown {
	return &Thrown{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// doubleFault is the pre-allocated singleton used when a second error
// arises while the first is still being constructed, so building the
// error object never itself requires an allocation that could fail.
var doubleFault = &Thrown{Kind: KindInternal, Message: "error while formatting error (double fault)"}

// DoubleFault returns the shared double-fault singleton.
func DoubleFault() *Thrown { return doubleFault }

// Augment sets filename/line/traceback on t, following the design's
// policy of doing so once, immediately after creation and before
// propagation. It is a no-op for kinds that are not augmentable and for
// the double-fault singleton.
func (t *Thrown) Augment(filename string, line int, stack []CallSite) {
	if !t.Kind.Augmentable() || t == doubleFault || t.Filename != "" {
		return
	}
	t.Filename = filename
	t.Line = line
	t.Traceback = stack
}

// AsThrown unwraps a plain error into a *Thrown, wrapping it as an
// InternalError if it did not already originate from this package (e.g. an
// error surfaced by a host collaborator through the Compiler/Executor
// interfaces).
func AsThrown(err error) *Thrown {
	if err == nil {
		return nil
	}
	if t, ok := err.(*Thrown); ok {
		return t
	}
	return &Thrown{Kind: KindInternal, Message: err.Error()}
}
