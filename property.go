package quark

import (
	"math"
	"strconv"

	"github.com/sorenby/quarkvm/internal/qcall"
	"github.com/sorenby/quarkvm/internal/qerr"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qstrtab"
	"github.com/sorenby/quarkvm/internal/qval"
)

func (c *Context) accessors() (qobject.CallGetter, qobject.CallSetter) {
	return qcall.MakeCallAccessors(c.Handler, c.Thread)
}

// keyAt interns key as a property name.
func (c *Context) keyAt(key string) *qstrtab.String { return c.Strings.Intern([]byte(key)) }

// GetProp pops the key at the top of the stack and looks it up on the
// object at objIdx, pushing the result (undefined if objIdx is not an
// object or the property is absent).
func (c *Context) GetProp(objIdx int) error {
	keyVal, err := c.Thread.Pop()
	if err != nil {
		return err
	}
	defer keyVal.Release()

	v, ok := c.at(objIdx)
	if !ok {
		return c.PushUndefined()
	}
	obj, ok := v.AsRef().(*qobject.Object)
	if !ok {
		return c.PushUndefined()
	}
	key := c.Strings.Intern([]byte(c.toStringValue(keyVal)))
	get, _ := c.accessors()
	rv, err := obj.Get(v, key, get)
	if err != nil {
		return err
	}
	return c.push(rv)
}

// GetPropString looks up key on the object at objIdx and pushes the
// result.
func (c *Context) GetPropString(objIdx int, key string) error {
	v, ok := c.at(objIdx)
	if !ok {
		return c.PushUndefined()
	}
	obj, ok := v.AsRef().(*qobject.Object)
	if !ok {
		return c.PushUndefined()
	}
	get, _ := c.accessors()
	rv, err := obj.Get(v, c.keyAt(key), get)
	if err != nil {
		return err
	}
	return c.push(rv)
}

// GetPropIndex looks up the array index idx on the object at objIdx and
// pushes the result.
func (c *Context) GetPropIndex(objIdx int, index uint32) error {
	return c.GetPropString(objIdx, strconv.FormatUint(uint64(index), 10))
}

// PutProp pops value then key from the top of the stack and assigns
// obj[key] = value on the object at objIdx, per [[Put]], with the current
// thread's strictness deciding the failure policy.
func (c *Context) PutProp(objIdx int) error {
	val, err := c.Thread.Pop()
	if err != nil {
		return err
	}
	keyVal, err := c.Thread.Pop()
	if err != nil {
		val.Release()
		return err
	}
	defer val.Release()
	defer keyVal.Release()

	v, ok := c.at(objIdx)
	if !ok || !v.IsObject() {
		return qerr.New(qerr.KindTypeError, "put_prop: target at %d is not an object", objIdx)
	}
	obj, _ := v.AsRef().(*qobject.Object)
	key := c.Strings.Intern([]byte(c.toStringValue(keyVal)))
	_, set := c.accessors()
	return obj.Put(v, key, val, c.Thread.Strict, set)
}

// PutPropString assigns obj[key] = the popped top-of-stack value.
func (c *Context) PutPropString(objIdx int, key string) error {
	val, err := c.Thread.Pop()
	if err != nil {
		return err
	}
	defer val.Release()

	v, ok := c.at(objIdx)
	if !ok || !v.IsObject() {
		return qerr.New(qerr.KindTypeError, "put_prop_string: target at %d is not an object", objIdx)
	}
	obj, _ := v.AsRef().(*qobject.Object)
	_, set := c.accessors()
	return obj.Put(v, c.keyAt(key), val, c.Thread.Strict, set)
}

// HasProp pops the key and reports whether it exists anywhere in the
// prototype chain of the object at objIdx.
func (c *Context) HasProp(objIdx int) (bool, error) {
	keyVal, err := c.Thread.Pop()
	if err != nil {
		return false, err
	}
	defer keyVal.Release()

	v, ok := c.at(objIdx)
	if !ok || !v.IsObject() {
		return false, nil
	}
	obj, _ := v.AsRef().(*qobject.Object)
	key := c.Strings.Intern([]byte(c.toStringValue(keyVal)))
	return obj.Has(key), nil
}

// HasPropString reports whether key exists on the object at objIdx.
func (c *Context) HasPropString(objIdx int, key string) bool {
	v, ok := c.at(objIdx)
	if !ok || !v.IsObject() {
		return false
	}
	obj, _ := v.AsRef().(*qobject.Object)
	return obj.Has(c.keyAt(key))
}

// DelProp pops the key and deletes that own property from the object at
// objIdx, per [[Delete]], with the current thread's strictness deciding
// the failure policy.
func (c *Context) DelProp(objIdx int) (bool, error) {
	keyVal, err := c.Thread.Pop()
	if err != nil {
		return false, err
	}
	defer keyVal.Release()

	v, ok := c.at(objIdx)
	if !ok || !v.IsObject() {
		return false, nil
	}
	obj, _ := v.AsRef().(*qobject.Object)
	key := c.Strings.Intern([]byte(c.toStringValue(keyVal)))
	return obj.Delete(key, c.Thread.Strict)
}

// DelPropString deletes the own property key from the object at objIdx.
func (c *Context) DelPropString(objIdx int, key string) (bool, error) {
	v, ok := c.at(objIdx)
	if !ok || !v.IsObject() {
		return false, nil
	}
	obj, _ := v.AsRef().(*qobject.Object)
	return obj.Delete(c.keyAt(key), c.Thread.Strict)
}

// DefPropFlags carries the subset of [[DefineOwnProperty]] surfaced to the
// host: plain attribute bits, or an accessor pair.
type DefPropFlags struct {
	Writable     bool
	Enumerable   bool
	Configurable bool
	Accessor     bool
}

func (f DefPropFlags) attrs() qobject.Attr {
	var a qobject.Attr
	if f.Writable {
		a |= qobject.AttrWritable
	}
	if f.Enumerable {
		a |= qobject.AttrEnumerable
	}
	if f.Configurable {
		a |= qobject.AttrConfigurable
	}
	return a
}

// DefProp pops value (or getter+setter if flags.Accessor) then defines key
// on the object at objIdx with the given attributes.
func (c *Context) DefProp(objIdx int, key string, flags DefPropFlags) error {
	v, ok := c.at(objIdx)
	if !ok || !v.IsObject() {
		return qerr.New(qerr.KindTypeError, "def_prop: target at %d is not an object", objIdx)
	}
	obj, _ := v.AsRef().(*qobject.Object)

	if flags.Accessor {
		setter, err := c.Thread.Pop()
		if err != nil {
			return err
		}
		getter, err := c.Thread.Pop()
		if err != nil {
			setter.Release()
			return err
		}
		obj.Define(c.keyAt(key), qval.Undefined(), flags.attrs(), true, getter, setter)
		getter.Release()
		setter.Release()
		return nil
	}

	val, err := c.Thread.Pop()
	if err != nil {
		return err
	}
	obj.Define(c.keyAt(key), val, flags.attrs(), false, qval.Undefined(), qval.Undefined())
	val.Release()
	return nil
}

// EnumKeys snapshots the enumerable own-and-inherited property keys of the
// object at objIdx, in qobject.Enumerate's order with array indices sorted.
func (c *Context) EnumKeys(objIdx int) ([]string, error) {
	v, ok := c.at(objIdx)
	if !ok || !v.IsObject() {
		return nil, qerr.New(qerr.KindTypeError, "enum: target at %d is not an object", objIdx)
	}
	obj, _ := v.AsRef().(*qobject.Object)
	keys := obj.Enumerate(qobject.EnumSortArrayIndices)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k.Bytes())
	}
	return out, nil
}

// InstanceOf implements ES5.1 §11.8.6: whether the object at valIdx has the
// function at ctorIdx's "prototype" anywhere in its own prototype chain.
func (c *Context) InstanceOf(valIdx, ctorIdx int) (bool, error) {
	v, ok := c.at(valIdx)
	if !ok || !v.IsObject() {
		return false, nil
	}
	cv, ok := c.at(ctorIdx)
	if !ok || !cv.IsObject() {
		return false, qerr.New(qerr.KindTypeError, "instanceof: right-hand side is not callable")
	}
	ctor, _ := cv.AsRef().(*qobject.Object)
	if ctor.Class() != qobject.ClassFunction {
		return false, qerr.New(qerr.KindTypeError, "instanceof: right-hand side is not callable")
	}
	get, _ := c.accessors()
	protoVal, err := ctor.Get(cv, c.keyAt("prototype"), get)
	if err != nil {
		return false, err
	}
	proto, ok := protoVal.AsRef().(*qobject.Object)
	if !ok {
		return false, qerr.New(qerr.KindTypeError, "instanceof: prototype is not an object")
	}
	obj, _ := v.AsRef().(*qobject.Object)
	for cur := obj.Proto(); cur != nil; cur = cur.Proto() {
		if cur == proto {
			return true, nil
		}
	}
	return false, nil
}

// Equals implements ES5.1 §11.9.3 abstract equality comparison between the
// values at idx1 and idx2.
func (c *Context) Equals(idx1, idx2 int) bool {
	a, ok1 := c.at(idx1)
	b, ok2 := c.at(idx2)
	if !ok1 {
		a = qval.Undefined()
	}
	if !ok2 {
		b = qval.Undefined()
	}
	return c.abstractEquals(a, b)
}

func (c *Context) abstractEquals(a, b qval.Value) bool {
	if a.Kind() == b.Kind() {
		return c.StrictEqualsValues(a, b)
	}
	switch {
	case a.IsNull() && b.IsUndefined(), a.IsUndefined() && b.IsNull():
		return true
	case a.IsNumber() && b.IsString():
		return a.AsNumber() == c.toNumberValue(b)
	case a.IsString() && b.IsNumber():
		return c.toNumberValue(a) == b.AsNumber()
	case a.IsBoolean():
		return c.abstractEquals(qval.Number(c.toNumberValue(a)), b)
	case b.IsBoolean():
		return c.abstractEquals(a, qval.Number(c.toNumberValue(b)))
	case (a.IsNumber() || a.IsString()) && b.IsObject():
		prim := c.toPrimitiveValue(b, "")
		eq := c.abstractEquals(a, prim)
		if !prim.IsObject() {
			prim.Release()
		}
		return eq
	case a.IsObject() && (b.IsNumber() || b.IsString()):
		prim := c.toPrimitiveValue(a, "")
		eq := c.abstractEquals(prim, b)
		if !prim.IsObject() {
			prim.Release()
		}
		return eq
	default:
		return false
	}
}

// StrictEquals implements ES5.1 §11.9.6 strict equality between the values
// at idx1 and idx2.
func (c *Context) StrictEquals(idx1, idx2 int) bool {
	a, ok1 := c.at(idx1)
	b, ok2 := c.at(idx2)
	if !ok1 {
		a = qval.Undefined()
	}
	if !ok2 {
		b = qval.Undefined()
	}
	return c.StrictEqualsValues(a, b)
}

// StrictEqualsValues implements strict equality on two values directly,
// fixing up SameAs's SameValue-flavored NaN handling (NaN !== NaN under
// strict equals, unlike SameValue).
func (c *Context) StrictEqualsValues(a, b qval.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	if a.IsNumber() {
		if math.IsNaN(a.AsNumber()) || math.IsNaN(b.AsNumber()) {
			return false
		}
		return a.AsNumber() == b.AsNumber()
	}
	return a.SameAs(b)
}
