package quark

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/sorenby/quarkvm/internal/qcall"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qval"
)

func (c *Context) push(v qval.Value) error { return c.Thread.Push(v) }

// PushUndefined pushes the undefined value.
func (c *Context) PushUndefined() error { return c.push(qval.Undefined()) }

// PushNull pushes null.
func (c *Context) PushNull() error { return c.push(qval.Null()) }

// PushBoolean pushes a boolean.
func (c *Context) PushBoolean(b bool) error { return c.push(qval.Bool(b)) }

// PushTrue pushes true.
func (c *Context) PushTrue() error { return c.push(qval.Bool(true)) }

// PushFalse pushes false.
func (c *Context) PushFalse() error { return c.push(qval.Bool(false)) }

// PushNumber pushes a float64.
func (c *Context) PushNumber(f float64) error { return c.push(qval.Number(f)) }

// PushInt pushes an integer value coerced to float64.
func (c *Context) PushInt(i int64) error { return c.push(qval.Int(i)) }

// PushNaN pushes NaN.
func (c *Context) PushNaN() error { return c.push(qval.Number(math.NaN())) }

// PushString interns s and pushes the resulting string value.
func (c *Context) PushString(s string) error {
	return c.push(qval.NewString(c.Strings.Intern([]byte(s))))
}

// PushLString interns b directly (NUL bytes included) and pushes it.
func (c *Context) PushLString(b []byte) error {
	return c.push(qval.NewString(c.Strings.Intern(b)))
}

// PushSprintf formats per format/args and pushes the resulting string.
func (c *Context) PushSprintf(format string, args ...any) error {
	return c.PushString(fmt.Sprintf(format, args...))
}

// PushObject pushes an already-constructed object.
func (c *Context) PushObject(o *qobject.Object) error { return c.push(qval.NewObject(o)) }

// PushNewObject creates a plain object with no prototype and pushes it.
func (c *Context) PushNewObject() (*qobject.Object, error) {
	o := qobject.New(c.Heap, qobject.ClassObject, nil)
	return o, c.push(qval.NewObject(o))
}

// PushNewArray creates an empty array and pushes it.
func (c *Context) PushNewArray() (*qobject.Object, error) {
	o := qobject.NewArray(c.Heap, c.Strings, nil)
	return o, c.push(qval.NewObject(o))
}

// PushThis pushes the `this` binding of the currently running activation:
// the slot directly below its idx_bottom.
func (c *Context) PushThis() error {
	act := c.currentActivation()
	if act == nil {
		return c.PushUndefined()
	}
	return c.push(c.Thread.Stack[act.IdxBottom-1])
}

// PushCurrentThread pushes the thread object this Context wraps.
func (c *Context) PushCurrentThread() error { return c.push(qval.NewObject(c.Thread.Object)) }

// PushPointer pushes an opaque host pointer.
func (c *Context) PushPointer(p unsafe.Pointer) error { return c.push(qval.NewPointer(p)) }

func (c *Context) currentActivation() *qcall.Activation {
	if n := len(c.Thread.Calls); n > 0 {
		return c.Thread.Calls[n-1]
	}
	return nil
}
