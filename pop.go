package quark

import "github.com/sorenby/quarkvm/internal/qerr"

// Pop removes and releases the top value.
func (c *Context) Pop() error {
	v, err := c.Thread.Pop()
	if err != nil {
		return err
	}
	v.Release()
	return nil
}

// PopN removes and releases the top n values.
func (c *Context) PopN(n int) error {
	if n < 0 {
		return qerr.New(qerr.KindAPI, "pop: negative count")
	}
	return c.Thread.PopN(n)
}

// Pop2 discards the top two values.
func (c *Context) Pop2() error { return c.PopN(2) }

// Pop3 discards the top three values.
func (c *Context) Pop3() error { return c.PopN(3) }
