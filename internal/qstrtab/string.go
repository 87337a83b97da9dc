package qstrtab

import (
	"unicode/utf8"

	"github.com/sorenby/quarkvm/internal/qheap"
	"github.com/sorenby/quarkvm/internal/qval"
)

// Flags holds the one-bit properties carried by an interned string.
type Flags uint8

const (
	// FlagInternal marks strings prefixed with an invalid-UTF-8 sentinel,
	// used for engine-internal property keys hidden from script code.
	FlagInternal Flags = 1 << iota
	FlagReserved
	FlagStrictReserved
	FlagEvalOrArguments
	// flagBuiltin marks a string owned permanently by the engine (e.g.
	// "length", "prototype"); built-ins are GC roots and never swept even
	// at refcount zero.
	flagBuiltin
)

// String is an immutable interned byte sequence. Strings live only in a
// Table, never on the heap's general allocated list, and compare by
// pointer identity. Unlike object/buffer heap cells, a string has no
// outbound references and no finalizer, so dropping its last reference can
// be handled synchronously instead of through the refzero driver.
type String struct {
	data    []byte
	hash    uint32
	charLen int
	flags   Flags
	refcnt  uint32
	table   *Table
}

func newString(data []byte, hash uint32, table *Table) *String {
	return &String{data: data, hash: hash, charLen: utf8.RuneCount(data), table: table}
}

// Bytes returns the string's raw byte sequence. The caller must not mutate it.
func (s *String) Bytes() []byte { return s.data }

// ByteLen returns the length in bytes.
func (s *String) ByteLen() int { return len(s.data) }

// CharLen returns the length in Unicode codepoints.
func (s *String) CharLen() int { return s.charLen }

// Hash returns the cached 32-bit hash.
func (s *String) Hash() uint32 { return s.hash }

// Flags returns the string's one-bit property flags.
func (s *String) Flags() Flags { return s.flags }

func (s *String) HasFlag(f Flags) bool { return s.flags&f != 0 }

func (s *String) setFlag(f Flags) { s.flags |= f }

// IncRef implements qval.RefCounted.
func (s *String) IncRef() { s.refcnt++ }

// DecRef implements qval.RefCounted. Reaching zero removes the string from
// its table immediately unless it is a built-in (permanent) string.
func (s *String) DecRef() {
	if s.refcnt == 0 {
		return
	}
	s.refcnt--
	if s.refcnt == 0 && s.flags&flagBuiltin == 0 && s.table != nil {
		s.table.remove(s)
	}
}

// HeapKind implements qval.RefCounted.
func (s *String) HeapKind() uint8 { return uint8(qheap.KindString) }

// Refcount returns the current refcount, mainly for tests/introspection.
func (s *String) Refcount() uint32 { return s.refcnt }

// Value wraps the string as a tagged Value.
func (s *String) Value() qval.Value { return qval.NewString(s) }

// classifyFlags inspects well-known reserved words and the two special
// identifiers ("eval", "arguments") so callers constructing property-key
// strings for identifier lookups get correct strict-mode behavior for free.
func classifyFlags(data []byte) Flags {
	word := string(data)
	var f Flags
	if word == "eval" || word == "arguments" {
		f |= FlagEvalOrArguments
	}
	if reservedWords[word] {
		f |= FlagReserved
	}
	if strictReservedWords[word] {
		f |= FlagStrictReserved
	}
	return f
}

var reservedWords = map[string]bool{
	"break": true, "case": true, "catch": true, "continue": true, "debugger": true,
	"default": true, "delete": true, "do": true, "else": true, "finally": true,
	"for": true, "function": true, "if": true, "in": true, "instanceof": true,
	"new": true, "return": true, "switch": true, "this": true, "throw": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true, "with": true,
	"null": true, "true": true, "false": true,
}

var strictReservedWords = map[string]bool{
	"implements": true, "interface": true, "let": true, "package": true,
	"private": true, "protected": true, "public": true, "static": true, "yield": true,
}
