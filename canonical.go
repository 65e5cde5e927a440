package di

import (
	"reflect"

	"github.com/dozm/di/v2/reflectx"
)

// Shape is the syntactic form of a request.
type Shape byte

const (
	ShapeValue Shape = iota
	ShapePointer
	ShapeUnique
	ShapeShared
	ShapeWeak
)

func (s Shape) String() string {
	switch s {
	case ShapeValue:
		return "value"
	case ShapePointer:
		return "pointer"
	case ShapeUnique:
		return "unique"
	case ShapeShared:
		return "shared"
	case ShapeWeak:
		return "weak"
	default:
		return "unknown"
	}
}

// Canonical strips pointers and handle wrappers from t until a fixed point is
// reached. The result identifies bindings and caches.
//
// Arrays keep their extent: [4]T is a value of its own, not a request for T.
// A named pointer type that points to itself, such as type R *R, is its own
// canonical form.
func Canonical(t reflect.Type) reflect.Type {
	var seen []reflect.Type
	for {
		for _, s := range seen {
			if s == t {
				return t
			}
		}
		seen = append(seen, t)

		switch {
		case t.Kind() == reflect.Pointer:
			t = t.Elem()
		case isHandle(t):
			t = handleOf(t).handleElem()
		default:
			return t
		}
	}
}

func CanonicalOf[T any]() reflect.Type {
	return Canonical(reflectx.TypeOf[T]())
}

// ShapeOf classifies the outermost form of t.
func ShapeOf(t reflect.Type) Shape {
	switch {
	case t.Kind() == reflect.Pointer:
		return ShapePointer
	case isHandle(t):
		return handleOf(t).handleShape()
	default:
		return ShapeValue
	}
}
