package reflectx

import (
	"fmt"
	"reflect"
	"runtime"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func GetOutParameters(funcType reflect.Type) []reflect.Type {
	if funcType.Kind() != reflect.Func {
		panic(fmt.Errorf("the kind of type '%v' is not function", funcType))
	}
	n := funcType.NumOut()
	paramTypes := make([]reflect.Type, n)
	for i := 0; i < n; i++ {
		paramTypes[i] = funcType.Out(i)
	}
	return paramTypes
}

func GetInParameters(funcType reflect.Type) []reflect.Type {
	if funcType.Kind() != reflect.Func {
		panic(fmt.Errorf("the kind of type '%v' is not function", funcType))
	}
	n := funcType.NumIn()
	paramTypes := make([]reflect.Type, n)
	for i := 0; i < n; i++ {
		paramTypes[i] = funcType.In(i)
	}
	return paramTypes
}

// IsErrorType reports whether t is exactly the built-in error interface.
func IsErrorType(t reflect.Type) bool {
	return t == errorType
}

func GetFuncName(f any) string {
	rv := reflect.ValueOf(f)
	if rv.Kind() != reflect.Func {
		panic("the argument is not a function")
	}
	return runtime.FuncForPC(rv.Pointer()).Name()
}

// FuncPointer returns the code pointer of a function value.
// Closures created from the same literal share it.
func FuncPointer(fn reflect.Value) uintptr {
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return 0
	}
	return fn.Pointer()
}

func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Convert returns v as a value of type to. Interfaces prefer the pointer form
// of an addressable value so pointer-receiver methods stay reachable.
func Convert(ptr reflect.Value, to reflect.Type) (reflect.Value, bool) {
	elem := ptr.Elem()
	switch {
	case to.Kind() == reflect.Interface && ptr.Type().AssignableTo(to):
		return ptr, true
	case elem.Type().AssignableTo(to):
		return elem, true
	case ptr.Type().AssignableTo(to):
		return ptr, true
	}
	return reflect.Value{}, false
}
