package di

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dozm/di/v2/errorx"
	"github.com/dozm/di/v2/reflectx"
)

type (
	canonicalSubject struct{ N int }
	canonicalLoop    *canonicalLoop
	embedsShared     struct {
		Shared[canonicalSubject]
	}
)

func TestCanonical(t *testing.T) {
	want := reflectx.TypeOf[canonicalSubject]()

	for _, typ := range []reflect.Type{
		reflectx.TypeOf[canonicalSubject](),
		reflectx.TypeOf[*canonicalSubject](),
		reflectx.TypeOf[**canonicalSubject](),
		reflectx.TypeOf[Unique[canonicalSubject]](),
		reflectx.TypeOf[Shared[canonicalSubject]](),
		reflectx.TypeOf[Weak[canonicalSubject]](),
		reflectx.TypeOf[*Shared[*canonicalSubject]](),
		reflectx.TypeOf[Shared[Unique[canonicalSubject]]](),
	} {
		got := Canonical(typ)
		require.Equal(t, want, got, "canonical of %v", typ)
		require.Equal(t, got, Canonical(got), "canonical of %v is not a fixed point", typ)
	}
}

func TestCanonical_KeepsOtherTypes(t *testing.T) {
	for _, typ := range []reflect.Type{
		reflectx.TypeOf[[4]canonicalSubject](),
		reflectx.TypeOf[[]canonicalSubject](),
		reflectx.TypeOf[map[string]int](),
		reflectx.TypeOf[error](),
	} {
		require.Equal(t, typ, Canonical(typ))
	}
}

func TestShapeOf(t *testing.T) {
	cases := map[reflect.Type]Shape{
		reflectx.TypeOf[canonicalSubject]():          ShapeValue,
		reflectx.TypeOf[*canonicalSubject]():         ShapePointer,
		reflectx.TypeOf[Unique[canonicalSubject]]():  ShapeUnique,
		reflectx.TypeOf[Shared[canonicalSubject]]():  ShapeShared,
		reflectx.TypeOf[Weak[canonicalSubject]]():    ShapeWeak,
		reflectx.TypeOf[*Shared[canonicalSubject]](): ShapePointer,
		reflectx.TypeOf[error]():                     ShapeValue,
	}
	for typ, shape := range cases {
		require.Equal(t, shape, ShapeOf(typ), "shape of %v", typ)
	}
}

func TestCanonical_SelfReferentialPointer(t *testing.T) {
	loop := reflectx.TypeOf[canonicalLoop]()

	done := make(chan reflect.Type, 1)
	go func() { done <- CanonicalOf[canonicalLoop]() }()

	select {
	case got := <-done:
		require.Equal(t, loop, got)
		require.Equal(t, got, Canonical(got))
	case <-time.After(2 * time.Second):
		t.Fatal("canonical form of a self-referential pointer type was not reached")
	}

	_, err := TryGet[canonicalLoop](MustNew(NewTag()))
	var rte *errorx.RecursiveTypeError
	require.ErrorAs(t, err, &rte)
	require.Equal(t, loop, rte.Type)
}

func TestCanonical_EmbeddedHandleIsNotAHandle(t *testing.T) {
	typ := reflectx.TypeOf[embedsShared]()

	require.Equal(t, typ, Canonical(typ))
	require.Equal(t, ShapeValue, ShapeOf(typ))
	require.Equal(t, typ, Canonical(reflectx.TypeOf[*embedsShared]()))
}
