package quark

import "github.com/sorenby/quarkvm/internal/qerr"

// CheckStack reports whether n further pushes would fit within the
// configured value-stack limit, growing the backing array if needed but
// never failing the caller with an error.
func (c *Context) CheckStack(n int) bool {
	if c.Thread.StackTop+n > c.Limits.ValstackMax {
		return false
	}
	c.Thread.EnsureStack(n)
	return true
}

// RequireStack is CheckStack's throwing counterpart.
func (c *Context) RequireStack(n int) error {
	if !c.CheckStack(n) {
		return qerr.New(qerr.KindRangeError, "valstack limit reached")
	}
	return nil
}

// CheckStackTop reports whether the stack can be grown so its absolute
// top (relative to bottom) reaches n.
func (c *Context) CheckStackTop(n int) bool {
	return c.CheckStack(n - c.GetTop())
}

// RequireStackTop is CheckStackTop's throwing counterpart.
func (c *Context) RequireStackTop(n int) error {
	if !c.CheckStackTop(n) {
		return qerr.New(qerr.KindRangeError, "valstack limit reached")
	}
	return nil
}
