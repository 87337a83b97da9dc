package quark

import (
	"github.com/sorenby/quarkvm/internal/qerr"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qstrtab"
	"github.com/sorenby/quarkvm/internal/qval"
)

// GetType returns the tag of the value at idx, or KindUndefined (a
// harmless default, matching the lenient get_type convention) if idx is
// out of range.
func (c *Context) GetType(idx int) qval.Kind {
	a, ok := c.normalize(idx)
	if !ok {
		return qval.KindUndefined
	}
	return c.Thread.Stack[a].Kind()
}

func (c *Context) at(idx int) (qval.Value, bool) {
	a, ok := c.normalize(idx)
	if !ok {
		return qval.Undefined(), false
	}
	return c.Thread.Stack[a], true
}

// IsNumber reports whether idx holds a number.
func (c *Context) IsNumber(idx int) bool { v, ok := c.at(idx); return ok && v.IsNumber() }

// IsString reports whether idx holds a string.
func (c *Context) IsString(idx int) bool { v, ok := c.at(idx); return ok && v.IsString() }

// IsObject reports whether idx holds an object.
func (c *Context) IsObject(idx int) bool { v, ok := c.at(idx); return ok && v.IsObject() }

// IsBoolean reports whether idx holds a boolean.
func (c *Context) IsBoolean(idx int) bool { v, ok := c.at(idx); return ok && v.IsBoolean() }

// IsUndefined reports whether idx holds undefined (including out of range).
func (c *Context) IsUndefined(idx int) bool { v, ok := c.at(idx); return !ok || v.IsUndefined() }

// IsNull reports whether idx holds null.
func (c *Context) IsNull(idx int) bool { v, ok := c.at(idx); return ok && v.IsNull() }

// IsCallable reports whether idx holds a callable function object.
func (c *Context) IsCallable(idx int) bool {
	v, ok := c.at(idx)
	if !ok || !v.IsObject() {
		return false
	}
	obj, ok := v.AsRef().(*qobject.Object)
	return ok && obj.Class() == qobject.ClassFunction
}

// GetNumber returns the number at idx, or 0 if it is not a number
// (type-lenient, per get_X).
func (c *Context) GetNumber(idx int) float64 {
	v, ok := c.at(idx)
	if !ok || !v.IsNumber() {
		return 0
	}
	return v.AsNumber()
}

// RequireNumber is GetNumber's throwing counterpart.
func (c *Context) RequireNumber(idx int) (float64, error) {
	v, ok := c.at(idx)
	if !ok || !v.IsNumber() {
		return 0, qerr.New(qerr.KindTypeError, "expected number at index %d", idx)
	}
	return v.AsNumber(), nil
}

// GetString returns the string at idx, or "" if it is not a string.
func (c *Context) GetString(idx int) string {
	v, ok := c.at(idx)
	if !ok || !v.IsString() {
		return ""
	}
	s, _ := v.AsRef().(*qstrtab.String)
	if s == nil {
		return ""
	}
	return string(s.Bytes())
}

// RequireString is GetString's throwing counterpart.
func (c *Context) RequireString(idx int) (string, error) {
	v, ok := c.at(idx)
	if !ok || !v.IsString() {
		return "", qerr.New(qerr.KindTypeError, "expected string at index %d", idx)
	}
	s, _ := v.AsRef().(*qstrtab.String)
	return string(s.Bytes()), nil
}

// GetBoolean returns the boolean at idx, or false if it is not a boolean.
func (c *Context) GetBoolean(idx int) bool {
	v, ok := c.at(idx)
	return ok && v.IsBoolean() && v.AsBool()
}

// GetObject returns the object at idx, or nil if it is not an object.
func (c *Context) GetObject(idx int) *qobject.Object {
	v, ok := c.at(idx)
	if !ok || !v.IsObject() {
		return nil
	}
	o, _ := v.AsRef().(*qobject.Object)
	return o
}

// RequireObject is GetObject's throwing counterpart.
func (c *Context) RequireObject(idx int) (*qobject.Object, error) {
	o := c.GetObject(idx)
	if o == nil {
		return nil, qerr.New(qerr.KindTypeError, "expected object at index %d", idx)
	}
	return o, nil
}

// GetLength returns the ToUint32("length") of the value at idx for
// objects (the array/Arguments-style "length" own property), or the
// string's character length for strings, or 0 otherwise.
func (c *Context) GetLength(idx int) int {
	v, ok := c.at(idx)
	if !ok {
		return 0
	}
	switch {
	case v.IsString():
		s, _ := v.AsRef().(*qstrtab.String)
		if s == nil {
			return 0
		}
		return s.CharLen()
	case v.IsObject():
		o, _ := v.AsRef().(*qobject.Object)
		if o == nil {
			return 0
		}
		key := c.Strings.Intern([]byte("length"))
		lv, ok := o.GetOwn(key)
		if !ok || !lv.IsNumber() {
			return 0
		}
		return int(lv.AsNumber())
	default:
		return 0
	}
}
