package callback

import (
	"github.com/dop251/goja"

	"github.com/napi-go/napihost"
)

// PropertyKind distinguishes the three shapes napi_property_descriptor can
// take (spec.md §4.5): a plain data value, a method (value is callable), or
// an accessor pair.
type PropertyKind int

const (
	PropertyValue PropertyKind = iota
	PropertyMethod
	PropertyAccessor
)

// PropertyDescriptor is the Go stand-in for napi_property_descriptor: a
// name, a kind-dependent payload, and the napihost.PropertyAttributes
// bitfield governing writability/enumerability/configurability and
// static-vs-instance placement.
type PropertyDescriptor struct {
	Name  string
	Kind  PropertyKind
	Attrs napihost.PropertyAttributes

	// Value is used when Kind == PropertyValue.
	Value napihost.Value
	// Method is used when Kind == PropertyMethod.
	Method NativeCallback
	// Getter/Setter are used when Kind == PropertyAccessor; Setter may be
	// nil for a read-only accessor.
	Getter NativeCallback
	Setter NativeCallback

	Data any
}

// DefineProperties installs descs onto obj (spec.md's napi_define_properties).
func DefineProperties(env *napihost.Environment, obj *goja.Object, descs []PropertyDescriptor) error {
	for _, d := range descs {
		if err := defineOne(env, obj, d); err != nil {
			return err
		}
	}
	return nil
}

func defineOne(env *napihost.Environment, obj *goja.Object, d PropertyDescriptor) error {
	switch d.Kind {
	case PropertyAccessor:
		return defineAccessor(env, obj, d)
	case PropertyMethod:
		fnVal := NewFunction(env, d.Name, d.Data, d.Method)
		raw, _ := env.Resolve(fnVal)
		return safeSet(obj, d.Name, raw)
	default:
		raw, ok := env.Resolve(d.Value)
		if !ok {
			raw = goja.Undefined()
		}
		return safeSet(obj, d.Name, raw)
	}
}

func defineAccessor(env *napihost.Environment, obj *goja.Object, d PropertyDescriptor) error {
	var getter, setter goja.Value
	if d.Getter != nil {
		gv := NewFunction(env, "get "+d.Name, d.Data, d.Getter)
		raw, _ := env.Resolve(gv)
		if g, ok := raw.(goja.Value); ok {
			getter = g
		}
	}
	if d.Setter != nil {
		sv := NewFunction(env, "set "+d.Name, d.Data, d.Setter)
		raw, _ := env.Resolve(sv)
		if s, ok := raw.(goja.Value); ok {
			setter = s
		}
	}
	return obj.DefineAccessorProperty(d.Name, getter, setter, flagOf(d.Attrs&napihost.AttributeConfigurable != 0), flagOf(d.Attrs&napihost.AttributeEnumerable != 0))
}

func flagOf(b bool) goja.PropertyFlag {
	if b {
		return goja.FLAG_TRUE
	}
	return goja.FLAG_FALSE
}

// ClassDefinition is napi_define_class's input: a constructor callback plus
// the instance/static property descriptors to attach.
type ClassDefinition struct {
	Name        string
	Constructor NativeCallback
	Data        any
	Properties  []PropertyDescriptor
}

// DefineClass builds a constructor function the way goja-eventloop's adapter
// builds Promise: a ConstructorCall-wrapped closure that explicitly sets the
// new instance's prototype, since goja does not wire a constructor's
// declared .prototype onto call.This automatically (spec.md §4.5,
// napi_define_class).
func DefineClass(env *napihost.Environment, def ClassDefinition) napihost.Value {
	rt := env.Runtime()

	proto := rt.NewObject()
	var ctorObj *goja.Object
	var ctorFn goja.Value

	ctorFn = rt.ToValue(func(call goja.ConstructorCall) *goja.Object {
		call.This.SetPrototype(proto)
		// newTarget is the constructor's own handle, not the new instance
		// (spec.md §4.5, napi_get_new_target).
		Invoke(env, def.Constructor, def.Data, call.This, call.Arguments, true, ctorFn)
		return nil // keep goja's own call.This instance
	})

	ctorObj = ctorFn.ToObject(rt)
	_ = safeSet(ctorObj, "name", def.Name)
	_ = safeSet(proto, "constructor", ctorFn)

	var instanceProps, staticProps []PropertyDescriptor
	for _, p := range def.Properties {
		if p.Attrs&napihost.AttributeStatic != 0 {
			staticProps = append(staticProps, p)
		} else {
			instanceProps = append(instanceProps, p)
		}
	}
	_ = DefineProperties(env, proto, instanceProps)
	_ = DefineProperties(env, ctorObj, staticProps)

	v, _ := env.NewValue(ctorFn)
	return v
}
