package quark

import (
	"math"

	"github.com/sorenby/quarkvm/internal/qcall"
	"github.com/sorenby/quarkvm/internal/qerr"
	"github.com/sorenby/quarkvm/internal/qnum"
	"github.com/sorenby/quarkvm/internal/qobject"
	"github.com/sorenby/quarkvm/internal/qstrtab"
	"github.com/sorenby/quarkvm/internal/qval"
)

// numberLiteralFlags is the grammar ToNumber's string coercion accepts:
// ES5.1 §9.3.1's StringNumericLiteral production.
const numberLiteralFlags = qnum.TrimWhite | qnum.AllowExp | qnum.AllowFrac | qnum.AllowMinus |
	qnum.AllowPlus | qnum.AllowInfinity | qnum.AllowEmptyAsZero | qnum.AllowAutoHexInt |
	qnum.AllowLeadingZero | qnum.AllowNakedFrac | qnum.AllowEmptyFrac

// toNumberValue implements ES5.1 §9.3 ToNumber on a single value, without
// mutating the stack.
func (c *Context) toNumberValue(v qval.Value) float64 {
	switch v.Kind() {
	case qval.KindUndefined:
		return math.NaN()
	case qval.KindNull:
		return 0
	case qval.KindBoolean:
		if v.AsBool() {
			return 1
		}
		return 0
	case qval.KindNumber:
		return v.AsNumber()
	case qval.KindString:
		s, _ := v.AsRef().(*qstrtab.String)
		if s == nil {
			return math.NaN()
		}
		n, ok := qnum.Parse(string(s.Bytes()), 0, numberLiteralFlags)
		if !ok {
			return math.NaN()
		}
		return n
	case qval.KindObject:
		prim := c.toPrimitiveValue(v, "number")
		if prim.IsObject() {
			return math.NaN()
		}
		n := c.toNumberValue(prim)
		prim.Release()
		return n
	default:
		return math.NaN()
	}
}

// toStringValue implements ES5.1 §9.8 ToString on a single value.
func (c *Context) toStringValue(v qval.Value) string {
	switch v.Kind() {
	case qval.KindUndefined:
		return "undefined"
	case qval.KindNull:
		return "null"
	case qval.KindBoolean:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case qval.KindNumber:
		return qnum.Format(v.AsNumber(), 10, 0, 0)
	case qval.KindString:
		s, _ := v.AsRef().(*qstrtab.String)
		if s == nil {
			return ""
		}
		return string(s.Bytes())
	case qval.KindObject:
		prim := c.toPrimitiveValue(v, "string")
		if prim.IsObject() {
			return "[object Object]"
		}
		s := c.toStringValue(prim)
		prim.Release()
		return s
	default:
		return ""
	}
}

// toPrimitiveValue implements ES5.1 §9.1: try valueOf/toString (or the
// reverse order for a "string" hint) if the object exposes callable
// properties by those names; otherwise return the object unchanged (a
// caller further down the ToNumber/ToString chain then fails or falls
// back, matching what happens when no library-provided methods exist).
func (c *Context) toPrimitiveValue(v qval.Value, hint string) qval.Value {
	obj, ok := v.AsRef().(*qobject.Object)
	if !ok {
		return v
	}
	order := []string{"valueOf", "toString"}
	if hint == "string" {
		order = []string{"toString", "valueOf"}
	}
	get, _ := qcall.MakeCallAccessors(c.Handler, c.Thread)
	for _, name := range order {
		key := c.Strings.Intern([]byte(name))
		fv, err := obj.Get(v, key, get)
		if err != nil || !fv.IsObject() {
			continue
		}
		fn, ok := fv.AsRef().(*qobject.Object)
		if !ok || fn.Class() != qobject.ClassFunction {
			continue
		}
		rv, err := c.Handler.Call(c.Thread, fn, v, nil, false)
		if err != nil || rv.IsObject() {
			continue
		}
		return rv
	}
	return v
}

// ToNumber coerces the value at idx to a number in place.
func (c *Context) ToNumber(idx int) (float64, error) {
	a, ok := c.normalize(idx)
	if !ok {
		return 0, qerr.New(qerr.KindAPI, "to_number: invalid index %d", idx)
	}
	n := c.toNumberValue(c.Thread.Stack[a])
	c.Thread.Stack[a].Release()
	c.Thread.Stack[a] = qval.Number(n)
	return n, nil
}

// ToInt coerces the value at idx to an ES5.1 ToInteger-truncated int.
func (c *Context) ToInt(idx int) (int64, error) {
	n, err := c.ToNumber(idx)
	if err != nil {
		return 0, err
	}
	return int64(toInteger(n)), nil
}

// ToUint32 coerces the value at idx per ES5.1 §9.7 ToUint32.
func (c *Context) ToUint32(idx int) (uint32, error) {
	n, err := c.ToNumber(idx)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, nil
	}
	i := toInteger(n)
	const mod = 4294967296
	m := math.Mod(i, mod)
	if m < 0 {
		m += mod
	}
	return uint32(m), nil
}

func toInteger(n float64) float64 {
	if math.IsNaN(n) {
		return 0
	}
	if math.IsInf(n, 0) || n == 0 {
		return n
	}
	if n < 0 {
		return -math.Floor(-n)
	}
	return math.Floor(n)
}

// ToBoolean coerces the value at idx to a boolean in place.
func (c *Context) ToBoolean(idx int) (bool, error) {
	a, ok := c.normalize(idx)
	if !ok {
		return false, qerr.New(qerr.KindAPI, "to_boolean: invalid index %d", idx)
	}
	b := toBooleanValue(c.Thread.Stack[a])
	c.Thread.Stack[a].Release()
	c.Thread.Stack[a] = qval.Bool(b)
	return b, nil
}

func toBooleanValue(v qval.Value) bool {
	switch v.Kind() {
	case qval.KindUndefined, qval.KindNull:
		return false
	case qval.KindBoolean:
		return v.AsBool()
	case qval.KindNumber:
		n := v.AsNumber()
		return n != 0 && !math.IsNaN(n)
	case qval.KindString:
		s, _ := v.AsRef().(*qstrtab.String)
		return s != nil && s.ByteLen() > 0
	default:
		return true
	}
}

// ToString coerces the value at idx to a string in place.
func (c *Context) ToString(idx int) (string, error) {
	a, ok := c.normalize(idx)
	if !ok {
		return "", qerr.New(qerr.KindAPI, "to_string: invalid index %d", idx)
	}
	s := c.toStringValue(c.Thread.Stack[a])
	c.Thread.Stack[a].Release()
	interned := c.Strings.Intern([]byte(s))
	nv := qval.NewString(interned)
	nv.Retain()
	c.Thread.Stack[a] = nv
	return s, nil
}

// ToLString is ToString's byte-preserving variant: since qstrtab.String
// stores raw bytes (NUL included) rather than a C string, it behaves
// identically to ToString here.
func (c *Context) ToLString(idx int) (string, error) { return c.ToString(idx) }

// ToObject boxes a primitive at idx into a plain object carrying the
// original value, or leaves an existing object alone. Provides the
// generic coercion only: it does not install a Number/String/Boolean
// prototype chain, since those constructors are a built-in-library
// concern out of this module's scope.
func (c *Context) ToObject(idx int) (*qobject.Object, error) {
	a, ok := c.normalize(idx)
	if !ok {
		return nil, qerr.New(qerr.KindAPI, "to_object: invalid index %d", idx)
	}
	v := c.Thread.Stack[a]
	if v.IsNullOrUndefined() {
		return nil, qerr.New(qerr.KindTypeError, "cannot convert null/undefined to object")
	}
	if obj, ok := v.AsRef().(*qobject.Object); ok {
		return obj, nil
	}
	boxed := qobject.New(c.Heap, qobject.ClassObject, nil)
	boxed.SetExt(v)
	v.Release()
	nv := qval.NewObject(boxed)
	nv.Retain()
	c.Thread.Stack[a] = nv
	return boxed, nil
}

// ToPrimitive coerces the value at idx toward a primitive per ES5.1 §9.1,
// using hint "default" ("" also accepted), "number", or "string".
func (c *Context) ToPrimitive(idx int, hint string) error {
	a, ok := c.normalize(idx)
	if !ok {
		return qerr.New(qerr.KindAPI, "to_primitive: invalid index %d", idx)
	}
	if hint == "" {
		hint = "number"
	}
	old := c.Thread.Stack[a]
	prim := c.toPrimitiveValue(old, hint)
	if old.IsObject() && !prim.IsObject() {
		old.Release()
	}
	c.Thread.Stack[a] = prim
	return nil
}
