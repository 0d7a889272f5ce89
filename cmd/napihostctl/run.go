package main

import (
	"fmt"
	"io"

	"github.com/napi-go/napihost"
	"github.com/napi-go/napihost/abi"
	"github.com/napi-go/napihost/config"
	"github.com/napi-go/napihost/internal/callback"
	"github.com/napi-go/napihost/logging"
)

func runScenario(w io.Writer, cfg *config.Config, log *logging.Logger, scenario string) error {
	ctx := napihost.NewContext(cfg, log)
	env := ctx.CreateEnvironment()
	table := abi.DefaultTable(env)

	// A real native module's entry point always runs with a handle scope
	// already open (spec.md §4.2); these scenarios stand in for that.
	scope := env.OpenScope(false)
	defer func() { _ = env.CloseScope(scope) }()

	switch scenario {
	case "e1":
		return runEcho(w, env, table)
	case "e2":
		return runCounter(w, env, table)
	default:
		return fmt.Errorf("unknown scenario %q (want e1 or e2)", scenario)
	}
}

// runEcho implements spec.md §8's E1: an add-on registering add(a,b) = a+b.
func runEcho(w io.Writer, env *napihost.Environment, t *abi.Table) error {
	addFn, status := t.Function.CreateFunction("add", nil, func(env *napihost.Environment, info *callback.CallbackInfo) napihost.Value {
		argv, argc, _, _ := callback.GetCbInfo(info, 2)
		if argc < 2 {
			env.SetPendingException(mustThrowTypeError(env, t, "E_ARGC", "add expects two arguments"))
			return napihost.ValueUndefined
		}
		a, status := t.Value.GetValueDouble(argv[0])
		if status != napihost.StatusOK {
			env.SetPendingException(mustThrowTypeError(env, t, "E_ARG", "arguments must be numbers"))
			return napihost.ValueUndefined
		}
		b, status := t.Value.GetValueDouble(argv[1])
		if status != napihost.StatusOK {
			env.SetPendingException(mustThrowTypeError(env, t, "E_ARG", "arguments must be numbers"))
			return napihost.ValueUndefined
		}
		result, _ := t.Value.CreateDouble(a + b)
		return result
	})
	if status != napihost.StatusOK {
		return fmt.Errorf("create add function: %s", status)
	}

	sum, err := callback.Call(env, addFn, napihost.ValueUndefined, []napihost.Value{mustDouble(t, 2), mustDouble(t, 3)})
	if err != nil {
		return err
	}
	sumF, _ := t.Value.GetValueDouble(sum)
	fmt.Fprintf(w, "add(2, 3) = %v\n", sumF)

	strA, _ := t.Value.CreateStringUTF8("hi")
	strB, _ := t.Value.CreateStringUTF8("lo")
	_, err = callback.Call(env, addFn, napihost.ValueUndefined, []napihost.Value{strA, strB})
	if err != nil {
		return err
	}
	if env.HasPendingException() {
		exc, _ := env.GetAndClearPendingException()
		raw, _ := env.Resolve(exc)
		fmt.Fprintf(w, "add(\"hi\", \"lo\") raised: %v\n", raw)
	} else {
		fmt.Fprintln(w, "add(\"hi\", \"lo\") did not raise (unexpected)")
	}
	return nil
}

func mustDouble(t *abi.Table, f float64) napihost.Value {
	v, _ := t.Value.CreateDouble(f)
	return v
}

func mustThrowTypeError(env *napihost.Environment, t *abi.Table, code, message string) napihost.Value {
	t.Error.ThrowTypeError(code, message)
	v, _ := env.GetAndClearPendingException()
	return v
}

// counterState is the native side of spec.md §8's E2 Counter class.
type counterState struct {
	n int
}

// runCounter implements E2: a Counter class with constructor, increment,
// and a value getter.
func runCounter(w io.Writer, env *napihost.Environment, t *abi.Table) error {
	ctorVal, status := t.Class.DefineClass(callback.ClassDefinition{
		Name: "Counter",
		Constructor: func(env *napihost.Environment, info *callback.CallbackInfo) napihost.Value {
			_ = t.Class.Wrap(info.This, &counterState{}, nil)
			return napihost.ValueUndefined
		},
		Properties: []callback.PropertyDescriptor{
			{
				Name: "increment",
				Kind: callback.PropertyMethod,
				Method: func(env *napihost.Environment, info *callback.CallbackInfo) napihost.Value {
					native, status := t.Class.Unwrap(info.This)
					if status != napihost.StatusOK {
						return napihost.ValueUndefined
					}
					cs := native.(*counterState)
					cs.n++
					return napihost.ValueUndefined
				},
			},
			{
				Name: "value",
				Kind: callback.PropertyAccessor,
				Getter: func(env *napihost.Environment, info *callback.CallbackInfo) napihost.Value {
					native, status := t.Class.Unwrap(info.This)
					if status != napihost.StatusOK {
						v, _ := t.Value.CreateInt32(0)
						return v
					}
					cs := native.(*counterState)
					v, _ := t.Value.CreateInt32(int32(cs.n))
					return v
				},
			},
		},
	})
	if status != napihost.StatusOK {
		return fmt.Errorf("define Counter class: %s", status)
	}

	instance, err := callback.Construct(env, ctorVal, nil)
	if err != nil {
		return err
	}

	incFn, status := t.Object.GetProperty(instance, "increment")
	if status != napihost.StatusOK {
		return fmt.Errorf("get increment: %s", status)
	}
	for i := 0; i < 3; i++ {
		if _, err := callback.Call(env, incFn, instance, nil); err != nil {
			return err
		}
	}

	// instance.Get("value") invokes the accessor's getter directly (goja
	// property-get semantics); the resolved Value already holds the number.
	valResult, status := t.Object.GetProperty(instance, "value")
	if status != napihost.StatusOK {
		return fmt.Errorf("get value: %s", status)
	}
	valF, _ := t.Value.GetValueDouble(valResult)
	fmt.Fprintf(w, "counter.value after 3 increments = %v\n", valF)
	return nil
}
