package di

import (
	"errors"
	"reflect"

	"github.com/dozm/di/v2/errorx"
	"github.com/dozm/di/v2/reflectx"
)

// Get resolves T from the container c and panics on failure.
func Get[T any](c *Container) T {
	result, err := TryGet[T](c)
	if err != nil {
		panic(err)
	}
	return result
}

func TryGet[T any](c *Container) (result T, err error) {
	t := reflectx.TypeOf[T]()
	v, err := c.Resolve(t)
	if err != nil || v == nil {
		return
	}

	result, ok := v.(T)
	if !ok {
		err = &errorx.TypeIncompatibilityError{To: t, From: reflect.TypeOf(v)}
		return
	}

	return
}

// Invoke the function fn.
// the input parameters of the fn function will be resolved from the Container c.
func Invoke(c *Container, fn any) (fnReturn []any, err error) {
	vfn := reflect.ValueOf(fn)
	if vfn.Kind() != reflect.Func {
		err = errors.New("fn is not a function")
		return
	}

	inputTypes := reflectx.GetInParameters(vfn.Type())

	inputs := make([]reflect.Value, len(inputTypes))
	for i, t := range inputTypes {
		v, e := c.resolveValue(t)
		if e != nil {
			err = e
			return
		}

		inputs[i] = v
	}

	outputs := vfn.Call(inputs)
	numOutputs := len(outputs)
	if numOutputs > 0 {
		fnReturn = make([]any, numOutputs)
		for i, v := range outputs {
			fnReturn[i] = v.Interface()
		}
	}

	return
}
