package quark

import "github.com/sorenby/quarkvm/internal/qobject"

// CompileFlags select the grammar Compile applies to its source string,
// mirroring the three production contexts a hosted program is compiled
// under.
type CompileFlags uint8

const (
	CompileEval CompileFlags = 1 << iota
	CompileStrict
	CompileFuncExpr
)

// Compiler is the collaborator that turns source text into a callable
// compiled function object. Parsing and bytecode generation are out of
// this module's scope; Compile/Eval only need something that implements
// this interface to exercise the call layer end to end.
type Compiler interface {
	// Compile parses source (named filename, for error messages and
	// stack traces) under flags and returns a ClassFunction object
	// carrying a CompiledFuncExt with a runnable Executor.
	Compile(source, filename string, flags CompileFlags) (*qobject.Object, error)
}
