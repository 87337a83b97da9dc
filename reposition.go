package quark

import "github.com/sorenby/quarkvm/internal/qerr"

// Dup pushes a copy of the value at idx onto the top of the stack.
func (c *Context) Dup(idx int) error {
	v, ok := c.at(idx)
	if !ok {
		return qerr.New(qerr.KindAPI, "dup: invalid index %d", idx)
	}
	return c.push(v)
}

// DupTop pushes a copy of the current top value.
func (c *Context) DupTop() error { return c.Dup(-1) }

// Replace pops the top value and overwrites the value at idx with it.
func (c *Context) Replace(idx int) error {
	a, ok := c.normalize(idx)
	if !ok {
		return qerr.New(qerr.KindAPI, "replace: invalid index %d", idx)
	}
	v, err := c.Thread.Pop()
	if err != nil {
		return err
	}
	c.Thread.Stack[a].Release()
	c.Thread.Stack[a] = v
	return nil
}

// Remove deletes the value at idx, shifting values above it down by one.
func (c *Context) Remove(idx int) error {
	a, ok := c.normalize(idx)
	if !ok {
		return qerr.New(qerr.KindAPI, "remove: invalid index %d", idx)
	}
	c.Thread.Stack[a].Release()
	for i := a; i < c.Thread.StackTop-1; i++ {
		c.Thread.Stack[i] = c.Thread.Stack[i+1]
	}
	c.Thread.StackTop--
	return nil
}

// Insert pops the top value and inserts it at idx, shifting values
// currently at and above idx up by one.
func (c *Context) Insert(idx int) error {
	a, ok := c.normalize(idx)
	if !ok {
		return qerr.New(qerr.KindAPI, "insert: invalid index %d", idx)
	}
	v, err := c.Thread.Pop()
	if err != nil {
		return err
	}
	for i := c.Thread.StackTop; i > a; i-- {
		c.Thread.Stack[i] = c.Thread.Stack[i-1]
	}
	c.Thread.Stack[a] = v
	c.Thread.StackTop++
	return nil
}

// Swap exchanges the values at idx1 and idx2.
func (c *Context) Swap(idx1, idx2 int) error {
	a1, ok1 := c.normalize(idx1)
	a2, ok2 := c.normalize(idx2)
	if !ok1 || !ok2 {
		return qerr.New(qerr.KindAPI, "swap: invalid index")
	}
	c.Thread.Stack[a1], c.Thread.Stack[a2] = c.Thread.Stack[a2], c.Thread.Stack[a1]
	return nil
}

// SwapTop exchanges the top two values.
func (c *Context) SwapTop() error { return c.Swap(-1, -2) }
