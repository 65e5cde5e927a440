package di

import (
	"reflect"

	"github.com/dozm/di/v2/errorx"
)

// DefaultMaxArity bounds the number of arguments a constructor or factory may take.
const DefaultMaxArity = 16

// searchArity returns the largest k <= maxArity for which the target can be
// built from k probes. Factories must take exactly k arguments, aggregates
// accept any prefix of their fields.
func searchArity(target reflect.Type, params []reflect.Type, maxArity int, exact bool) (int, error) {
	for k := maxArity; k >= 0; k-- {
		if k > len(params) || (exact && k != len(params)) {
			continue
		}
		if invocable(target, params[:k]) {
			return k, nil
		}
	}
	return -1, &errorx.ArityUndeducibleError{Target: target, MaxArity: maxArity}
}

func invocable(target reflect.Type, params []reflect.Type) bool {
	for i, t := range params {
		if !probeFor(nil, target, len(params), i).accepts(t) {
			return false
		}
	}
	return true
}

// constructible reports whether t has a zero-arity construction.
func constructible(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Func, reflect.UnsafePointer, reflect.Invalid:
		return false
	default:
		return true
	}
}
