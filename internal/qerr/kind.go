// Package qerr implements the engine's error taxonomy, double-fault
// protection, and the signal type used to carry control transfers (throw,
// yield, resume, tail-return) across call-handler boundaries in place of
// the reference implementation's longjmp.
package qerr

// Kind is one of the fourteen error kinds the design recognizes: the seven
// ES5-mandated native error constructors plus seven engine-internal kinds
// used for conditions scripts never construct directly.
type Kind uint8

const (
	KindError Kind = iota
	KindEvalError
	KindRangeError
	KindReferenceError
	KindSyntaxError
	KindTypeError
	KindURIError

	KindUnimplemented
	KindUnsupported
	KindInternal
	KindAlloc
	KindAssertion
	KindAPI
	KindUncaught
)

var names = [...]string{
	"Error", "EvalError", "RangeError", "ReferenceError", "SyntaxError", "TypeError", "URIError",
	"UnimplementedError", "UnsupportedError", "InternalError", "AllocError", "AssertionError", "ApiError", "UncaughtError",
}

// String renders the kind the way it would appear as an ECMAScript error
// constructor name (for the seven native kinds) or an engine-internal tag.
func (k Kind) String() string {
	if int(k) < len(names) {
		return names[k]
	}
	return "UnknownError"
}

// Augmentable reports whether an error of this kind should receive
// filename/line/traceback augmentation. Alloc errors skip augmentation per
// the design's error-handling policy, since building the augmentation
// itself risks a second allocation failure. The double-fault singleton is
// an InternalError, so it is not excluded here; Thrown.Augment skips it.
func (k Kind) Augmentable() bool {
	return k != KindAlloc
}
